package http

// Request types

type MoveRequest struct {
	BoardState    string `json:"boardState" validate:"required"`
	CurrentColor  string `json:"currentColor" validate:"required,oneof=RED GREEN BLUE"`
	ErrorFeedback string `json:"errorFeedback,omitempty"`
}

// Response types

type MoveResponse struct {
	Move      string `json:"move"`
	Reasoning string `json:"reasoning"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"time"`
	Moves   int    `json:"moves"`
	Storage string `json:"storage,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInternalError     = "INTERNAL_ERROR"
)

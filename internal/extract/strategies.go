package extract

import (
	"regexp"
	"strings"
)

const posPattern = `[RGB][A-C][1-4]`

var (
	sentinelRE = regexp.MustCompile(`<<MOVE>>([^<]+)<<END_MOVE>>`)
	coordRE    = regexp.MustCompile(posPattern)
)

// pairPatterns match two coordinates in the forms "X to Y", "X-Y", "X→Y" and
// "X Y". First match wins; order matters because the bare-pair pattern would
// otherwise swallow the "to" forms.
var pairPatterns = compilePairs(
	`(`+posPattern+`)\s+(?i:to)\s+(`+posPattern+`)`,
	`(`+posPattern+`)\s*-\s*(`+posPattern+`)`,
	`(`+posPattern+`)\s*→\s*(`+posPattern+`)`,
	`(`+posPattern+`)\s+(`+posPattern+`)`,
)

// extendedPatterns additionally tolerate piece-name words, narrative phrasing,
// and color prefixes written separately from the file/rank ("R ... A1 to
// R ... A3"). Applied to reasoning text only.
var extendedPatterns = append(append([]*regexp.Regexp{}, pairPatterns...), compilePairs(
	`(?i:moving)\s+\w+\s+(?i:from)\s+(`+posPattern+`)\s+(?i:to)\s+(`+posPattern+`)`,
	`(?i:move)\s+\w+\s+(?i:from)\s+(`+posPattern+`)\s+(?i:to)\s+(`+posPattern+`)`,
	`(?i:knight|pawn|king|queen|rook|bishop)\s+(?i:on|at|from)?\s*(`+posPattern+`)\s+(?i:to|moves to|→)\s+(`+posPattern+`)`,
	`(?i:from)\s+(`+posPattern+`)\s+(?i:to)\s+(`+posPattern+`)`,
	`(?i:play)\s+(`+posPattern+`)\s+(?i:to)\s+(`+posPattern+`)`,
	`(`+posPattern+`)[^\w]+(`+posPattern+`)`,
	`([RGB])[^A-C\d]+([A-C][1-4])\s+(?i:to)\s+([RGB])[^A-C\d]+([A-C][1-4])`,
)...)

func compilePairs(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		res = append(res, regexp.MustCompile(p))
	}
	return res
}

// sentinelStrategy unwraps the <<MOVE>>…<<END_MOVE>> sentinel token pair.
type sentinelStrategy struct{}

func (sentinelStrategy) Name() string { return StageSentinel }

func (sentinelStrategy) Extract(text string) (string, bool) {
	m := sentinelRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// markerStrategy scans for move marker phrases ("move:", "i play:", …) and
// takes the remainder of that line as the candidate. The candidate is accepted
// only if, after stripping punctuation, it still contains a space and is at
// least five characters.
type markerStrategy struct{}

func (markerStrategy) Name() string { return StageMarkerPhrase }

func (markerStrategy) Extract(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, marker := range moveMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		candidate := text[idx+len(marker):]
		if nl := strings.IndexByte(candidate, '\n'); nl >= 0 {
			candidate = candidate[:nl]
		}
		candidate = strings.TrimSpace(strings.NewReplacer(".", "", "'", "", `"`, "").Replace(strings.TrimSpace(candidate)))
		if strings.Contains(candidate, " ") && len(candidate) >= 5 {
			return candidate, true
		}
	}
	return "", false
}

// patternStrategy tries an ordered list of coordinate-pair regexes. Patterns
// with four capture groups carry the color prefix separately from the
// file/rank fragment and are recombined.
type patternStrategy struct {
	name     string
	patterns []*regexp.Regexp
}

func (s patternStrategy) Name() string { return s.name }

func (s patternStrategy) Extract(text string) (string, bool) {
	for _, re := range s.patterns {
		m := re.FindStringSubmatch(text)
		switch {
		case m == nil:
			continue
		case len(m) == 3:
			return m[1] + " " + m[2], true
		case len(m) == 5:
			return m[1] + m[2] + " " + m[3] + m[4], true
		}
	}
	return "", false
}

// rawContentStrategy passes the entire trimmed content through as the
// candidate. It virtually never survives validation; it exists so that a
// candidate always reaches the parser and the failure mode is observable in
// provenance.
type rawContentStrategy struct{}

func (rawContentStrategy) Name() string { return StageRawContent }

func (rawContentStrategy) Extract(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	return text, true
}

// proximityStrategy collects every coordinate in the text and returns the
// first adjacent pair sharing a color prefix.
type proximityStrategy struct{}

func (proximityStrategy) Name() string { return StageProximity }

func (proximityStrategy) Extract(text string) (string, bool) {
	coords := coordRE.FindAllString(text, -1)
	for i := 0; i+1 < len(coords); i++ {
		if coords[i][0] == coords[i+1][0] {
			return coords[i] + " " + coords[i+1], true
		}
	}
	return "", false
}

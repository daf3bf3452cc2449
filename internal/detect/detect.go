package detect

import (
	"github.com/iamethanf20-hub/seeklens/internal/recog"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// Detection is the unit drawn on screen: a matched piece of text with a
// normalized bounding box. Detections are rebuilt on every accepted
// frame and on every filter re-evaluation, never mutated in place.
// Remote detection responses are converted into this same shape so the
// overlay renders local and remote results identically.
type Detection struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Box        geometry.Rect `json:"box"` // normalized, bottom-left origin
}

// Build filters recognized lines through cfg and returns the detections
// to draw.
//
// Line granularity evaluates each whole line once. Word granularity
// tokenizes the line, evaluates every token independently, and
// reconstructs a tight box per matching token; a token whose box cannot
// be reconstructed is dropped without affecting its siblings.
func Build(lines []recog.RecognizedLine, cfg MatchConfig) []Detection {
	var out []Detection
	for _, line := range lines {
		if cfg.Granularity == GranularityLine {
			if !Matches(line.Text, cfg.Query, cfg.Mode) || line.Box.Empty() {
				continue
			}
			out = append(out, Detection{
				Text:       line.Text,
				Confidence: line.Confidence,
				Box:        line.Box,
			})
			continue
		}

		for _, tok := range Tokenize(line.Text) {
			if !Matches(tok.Text, cfg.Query, cfg.Mode) {
				continue
			}
			box, err := ReconstructBox(line.Boxes, tok.Start, tok.End)
			if err != nil {
				continue
			}
			if box.Empty() {
				continue
			}
			out = append(out, Detection{
				Text:       tok.Text,
				Confidence: line.Confidence,
				Box:        box,
			})
		}
	}
	return out
}

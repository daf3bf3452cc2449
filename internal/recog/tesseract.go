package recog

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
)

// Engine is a Recognizer backed by Tesseract via gosseract.
//
// A gosseract client is not safe for concurrent use; Recognize serializes
// callers with a mutex. The detection pipeline only ever has one
// recognition in flight, so the lock is uncontended in practice.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client

	// Path of the user-words file currently applied, "" if none.
	wordsFile string
}

// NewEngine creates a Tesseract-backed recognition engine.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.wordsFile != "" {
		os.Remove(e.wordsFile)
		e.wordsFile = ""
	}
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Recognize runs one OCR pass over the frame and returns line-level
// results with normalized, bottom-left-origin geometry.
func (e *Engine) Recognize(ctx context.Context, frame gocv.Mat, opts Options) ([]RecognizedLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame.Empty() {
		return nil, fmt.Errorf("recog: empty frame")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	imgSize := geometry.NewSize(float64(frame.Cols()), float64(frame.Rows()))

	if err := e.configure(opts); err != nil {
		return nil, err
	}

	// Tesseract wants an encoded image; PNG is lossless and cheap enough
	// at preview resolution.
	buf, err := gocv.IMEncode(gocv.PNGFileExt, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	words, err := e.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("word recognition failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbols, err := e.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("symbol recognition failed: %w", err)
	}

	lines := assembleLines(words, symbols, imgSize)

	if opts.MinTextHeight > 0 {
		kept := lines[:0]
		for _, ln := range lines {
			if ln.Box.Height >= opts.MinTextHeight {
				kept = append(kept, ln)
			}
		}
		lines = kept
	}
	return lines, nil
}

// configure applies per-pass engine settings.
func (e *Engine) configure(opts Options) error {
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := e.client.SetLanguage(langs...); err != nil {
		return fmt.Errorf("failed to set languages %v: %w", langs, err)
	}

	psm := gosseract.PSM_AUTO
	if opts.Accuracy == AccuracyFast {
		// Sparse mode skips layout analysis; markedly faster on live
		// frames where text floats freely in the scene.
		psm = gosseract.PSM_SPARSE_TEXT
	}
	if err := e.client.SetPageSegMode(psm); err != nil {
		return fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if len(opts.CustomWords) > 0 && e.wordsFile == "" {
		// Best effort: a user-words file biases the language model toward
		// the caller's vocabulary. Recognition proceeds without it on error.
		path := filepath.Join(os.TempDir(), "seeklens-user-words")
		if err := os.WriteFile(path, []byte(strings.Join(opts.CustomWords, "\n")+"\n"), 0o644); err == nil {
			e.wordsFile = path
			_ = e.client.SetVariable("user_words_file", path)
		}
	}
	return nil
}

// assembleLines groups Tesseract word boxes into lines, attaches per-rune
// symbol geometry, and normalizes everything to the unit square.
func assembleLines(words []gosseract.BoundingBox, symbols []gosseract.BoundingBox, imgSize geometry.Size) []RecognizedLine {
	type key struct{ block, par, line int }

	var order []key
	grouped := make(map[key][]gosseract.BoundingBox)
	for _, w := range words {
		if strings.TrimSpace(w.Word) == "" {
			continue
		}
		k := key{w.BlockNum, w.ParNum, w.LineNum}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], w)
	}

	si := 0 // cursor into symbols, which arrive in reading order
	lines := make([]RecognizedLine, 0, len(order))
	for _, k := range order {
		lineWords := grouped[k]

		var sb strings.Builder
		var spans []wordSpan
		var chars []*geometry.Rect
		var pixelUnion geometry.Rect
		confs := make([]float64, 0, len(lineWords))
		runeOff := 0

		for wi, w := range lineWords {
			if wi > 0 {
				sb.WriteString(" ")
				chars = append(chars, nil) // separator has no glyph box
				runeOff++
			}
			wordPixel := rectFromImage(w.Box)
			runes := len([]rune(w.Word))

			spans = append(spans, wordSpan{
				start: runeOff,
				end:   runeOff + runes,
				box:   geometry.PixelToNormalized(wordPixel, imgSize),
			})
			sb.WriteString(w.Word)
			confs = append(confs, w.Confidence)

			// Drop stray symbols that lie wholly before this word in
			// reading order (noise Tesseract boxed outside any word).
			// Left stalled, one stray would deny char geometry to every
			// later rune in the frame.
			for si < len(symbols) && symbolBefore(rectFromImage(symbols[si].Box), wordPixel) {
				si++
			}

			// Consume symbols whose center falls inside this word box,
			// assigning them to the word's runes in order. Symbol and
			// rune counts can disagree (ligatures, merged glyphs); the
			// unmatched side is simply left without geometry.
			assigned := 0
			for si < len(symbols) && wordPixel.Contains(rectFromImage(symbols[si].Box).Center()) {
				if assigned < runes {
					n := geometry.PixelToNormalized(rectFromImage(symbols[si].Box), imgSize)
					chars = append(chars, &n)
					assigned++
				}
				si++
			}
			for ; assigned < runes; assigned++ {
				chars = append(chars, nil)
			}
			runeOff += runes

			if pixelUnion.Empty() {
				pixelUnion = wordPixel
			} else {
				pixelUnion = pixelUnion.Union(wordPixel)
			}
		}

		box := geometry.PixelToNormalized(pixelUnion, imgSize)
		if box.Empty() {
			continue
		}
		lines = append(lines, RecognizedLine{
			Text:       sb.String(),
			Confidence: stat.Mean(confs, nil) / 100,
			Box:        box,
			Boxes: &lineBoxes{
				runeCount: runeOff,
				words:     spans,
				chars:     chars,
			},
		})
	}
	return lines
}

// symbolBefore reports whether a symbol box lies wholly before a word
// box in reading order: entirely above it, or on the same band and
// entirely to its left. Pixel coordinates, top-left origin.
func symbolBefore(s, w geometry.Rect) bool {
	if s.MaxY() <= w.Y {
		return true
	}
	return s.Y < w.MaxY() && s.MaxX() <= w.X
}

func rectFromImage(r image.Rectangle) geometry.Rect {
	return geometry.NewRect(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
}

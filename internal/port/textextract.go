package port

import "context"

// TextExtraction is the output of a text extraction run over a PDF.
// BlockConfidences holds per-block recognition confidences in [0,1]; engines
// that do not score their output leave it empty.
type TextExtraction struct {
	Text             string
	BlockConfidences []float64
}

// TextExtractor abstracts the OCR / text-extraction engine. Its internals are
// a black box; only this contract matters to the pipeline.
type TextExtractor interface {
	Process(ctx context.Context, content []byte) (*TextExtraction, error)
}

package llm

import "fmt"

// NormalizationError means the text fixer failed. It is recoverable: the
// pipeline may fall back to the raw extracted text.
type NormalizationError struct {
	Err error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize text: %v", e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// ExtractionError means the structured parse failed or the model returned
// an incomplete schema.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract profile: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract profile: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

package llm

import (
	"context"
	"fmt"
	"strings"
)

const fixerSystem = "You are a text restoration assistant. Return only the corrected text, no commentary."

// NormalizeText repairs OCR and extraction artifacts: broken line wraps,
// garbled characters and encoding noise. Failures come back as
// *NormalizationError; callers are expected to fall back to the raw text.
func (s *Service) NormalizeText(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &NormalizationError{Err: fmt.Errorf("empty input text")}
	}

	prompt := fmt.Sprintf(`The following text was extracted from a resume document and may contain OCR artifacts: broken line wraps mid-sentence, garbled or substituted characters, duplicated fragments and encoding noise.

Text:
"""
%s
"""

Rewrite the text with these artifacts repaired. Preserve the original wording, ordering and all factual content exactly. Do not summarize, translate or add anything. Return only the repaired text.`, text)

	fixed, err := s.generate(ctx, fixerSystem, prompt, false)
	if err != nil {
		return "", &NormalizationError{Err: err}
	}

	fixed = strings.TrimSpace(fixed)
	if fixed == "" {
		return "", &NormalizationError{Err: fmt.Errorf("model returned empty text")}
	}
	return fixed, nil
}

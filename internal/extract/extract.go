package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// AcquisitionError marks a document as unreadable or unsupported.
type AcquisitionError struct {
	Filename string
	Err      error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire text from %s: %v", e.Filename, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Extracted is the raw text pulled out of a source document.
type Extracted struct {
	Text  string
	Kind  string
	Pages int // PDF only, 0 otherwise
}

// Extractor converts document bytes into raw text. It holds no state beyond
// a logger: extraction is a pure function of (bytes, kind).
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

var imageKinds = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

var documentKinds = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".rtf":  true,
	".odt":  true,
}

// Supported reports whether the file extension maps to a known kind.
func Supported(filename string) bool {
	kind := strings.ToLower(filepath.Ext(filename))
	return kind == ".txt" || documentKinds[kind] || imageKinds[kind]
}

// Extract pulls raw text out of the document bytes, dispatching on the file
// extension. PDFs are validated and page-counted first; images go through
// the OCR path; plain text is decoded with charset sniffing. Failures come
// back as *AcquisitionError.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (*Extracted, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AcquisitionError{Filename: filename, Err: err}
	}
	if len(data) == 0 {
		return nil, &AcquisitionError{Filename: filename, Err: fmt.Errorf("empty document")}
	}

	kind := strings.ToLower(filepath.Ext(filename))
	result := &Extracted{Kind: kind}

	switch {
	case kind == ".txt":
		text, err := decodeText(data)
		if err != nil {
			return nil, &AcquisitionError{Filename: filename, Err: err}
		}
		result.Text = text

	case kind == ".pdf":
		pages, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
		if err != nil {
			return nil, &AcquisitionError{Filename: filename, Err: fmt.Errorf("invalid pdf: %w", err)}
		}
		result.Pages = pages
		text, err := e.convert(filename, data)
		if err != nil {
			return nil, err
		}
		result.Text = text

	case documentKinds[kind] || imageKinds[kind]:
		text, err := e.convert(filename, data)
		if err != nil {
			return nil, err
		}
		result.Text = text

	default:
		return nil, &AcquisitionError{Filename: filename, Err: fmt.Errorf("unsupported file type %q", kind)}
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, &AcquisitionError{Filename: filename, Err: fmt.Errorf("no text extracted")}
	}

	e.logger.Debug("text extracted",
		zap.String("filename", filename),
		zap.String("kind", kind),
		zap.Int("pages", result.Pages),
		zap.Int("chars", len(result.Text)))
	return result, nil
}

func (e *Extractor) convert(filename string, data []byte) (string, error) {
	mime := docconv.MimeTypeByExtension(filename)
	res, err := docconv.Convert(bytes.NewReader(data), mime, true)
	if err != nil {
		return "", &AcquisitionError{Filename: filename, Err: err}
	}
	return res.Body, nil
}

// decodeText converts plain-text bytes to UTF-8, sniffing the source
// charset from the content itself.
func decodeText(data []byte) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/plain")
	if err != nil {
		return "", fmt.Errorf("detect charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(decoded), nil
}

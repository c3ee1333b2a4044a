package extract

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// Content is what the document extractor hands to the AI parser: either
// pre-extracted plain text or an inline binary payload tagged with its MIME
// type. Text is cheaper and more reliable for searchable PDFs; scanned
// statements and images need multimodal inference on the raw bytes.
type Content struct {
	Text     string
	Data     []byte
	MIMEType string
}

// IsText reports whether a text layer was successfully pre-extracted.
func (c Content) IsText() bool {
	return c.Text != ""
}

// DocumentExtractor converts an uploaded PDF or image into parser-ready
// content, degrading from text extraction to an inline payload rather than
// failing the request.
type DocumentExtractor struct {
	log zerolog.Logger
}

// NewDocumentExtractor creates a document extractor.
func NewDocumentExtractor(log zerolog.Logger) *DocumentExtractor {
	return &DocumentExtractor{log: log}
}

// Extract reads the file at path and produces Content for the AI parser.
// PDFs go through text-layer extraction first; an empty or failed extraction
// falls back to submitting the whole file as inline data. CSV and text files
// routed through this path have their MIME type normalized to text/plain;
// every other type keeps its declared MIME type.
func (e *DocumentExtractor) Extract(path, mimeType string) (Content, error) {
	if mimeType == "application/pdf" {
		text, err := pdfText(path)
		if err != nil || strings.TrimSpace(text) == "" {
			if err != nil {
				e.log.Warn().Err(err).Str("path", path).
					Msg("PDF text extraction failed, falling back to inline upload")
			} else {
				e.log.Warn().Str("path", path).
					Msg("PDF has no text layer, falling back to inline upload")
			}
			return inlineContent(path, mimeType)
		}
		return Content{Text: text, MIMEType: "text/plain"}, nil
	}

	if strings.Contains(mimeType, "csv") || strings.Contains(mimeType, "text") {
		return inlineContent(path, "text/plain")
	}
	return inlineContent(path, mimeType)
}

// pdfText extracts the text layer of a PDF page by page.
func pdfText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// inlineContent loads the whole file as an inline binary payload.
func inlineContent(path, mimeType string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("read upload %s: %w", path, err)
	}
	return Content{Data: data, MIMEType: mimeType}, nil
}

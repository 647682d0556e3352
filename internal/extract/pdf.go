package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text layer of a PDF page by page. Scanned pages
// without a text layer contribute nothing.
type PDFExtractor struct {
	matcher
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{matcher{
		mimeTypes:  []string{"application/pdf", "application/x-pdf"},
		extensions: []string{".pdf"},
	}}
}

func (e *PDFExtractor) Name() string { return "pdf" }

func (e *PDFExtractor) Supports(mimeType, filename string) bool {
	return e.supports(mimeType, filename)
}

func (e *PDFExtractor) Extract(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf")
	}
	// The decoder panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf decode panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(pageText)
		}
	}
	return sb.String(), nil
}

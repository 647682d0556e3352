package extract

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PlainTextExtractor handles text/* documents.
type PlainTextExtractor struct {
	matcher
}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{matcher{
		mimePrefixes: []string{"text/"},
		mimeTypes:    []string{"application/json", "application/x-markdown"},
		extensions:   []string{".txt", ".text", ".md", ".markdown", ".csv", ".log"},
	}}
}

func (e *PlainTextExtractor) Name() string { return "plain-text" }

func (e *PlainTextExtractor) Supports(mimeType, filename string) bool {
	return e.supports(mimeType, filename)
}

func (e *PlainTextExtractor) Extract(data []byte) (string, error) {
	return decodeText(data)
}

// decodeText converts data to UTF-8. A UTF-8 or UTF-16 byte order mark selects
// the decoder; otherwise data is taken as UTF-8 and, if that is invalid, as
// Windows-1252.
func decodeText(data []byte) (string, error) {
	if hasUTF16BOM(data) || bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		out, _, err := transform.Bytes(dec, data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

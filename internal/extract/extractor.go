// Package extract turns uploaded document bytes into plain UTF-8 text.
//
// Each supported format is a TextExtractor registered with a Registry. The
// registry picks an extractor by declared MIME type, then by sniffing the
// content, then by filename extension.
package extract

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docquiz/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// DefaultMinChars is the minimum extracted length accepted by the registry.
const DefaultMinChars = 50

// TextExtractor handles one document format.
type TextExtractor interface {
	Name() string
	// Supports reports whether the extractor handles the given MIME type or
	// filename. Either argument may be empty.
	Supports(mimeType, filename string) bool
	Extract(data []byte) (string, error)
}

// Registry dispatches to the first registered extractor that supports a document.
type Registry struct {
	extractors []TextExtractor
	minChars   int
	logger     *zap.Logger
}

// NewRegistry builds a registry over the given extractors, tried in order.
func NewRegistry(logger *zap.Logger, minChars int, extractors ...TextExtractor) *Registry {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{extractors: extractors, minChars: minChars, logger: logger}
}

// NewDefaultRegistry registers every built-in format.
func NewDefaultRegistry(logger *zap.Logger, minChars int) *Registry {
	return NewRegistry(logger, minChars,
		NewPlainTextExtractor(),
		NewDocxExtractor(),
		NewPptxExtractor(),
		NewPDFExtractor(),
	)
}

// Register appends an extractor; later registrations have lower priority.
func (r *Registry) Register(e TextExtractor) {
	r.extractors = append(r.extractors, e)
}

// Resolve finds the extractor for a document without running it.
//
// When the declared MIME type is missing or unsupported the content is
// sniffed before the filename is trusted, so a PNG named notes.txt stays
// unsupported. The extension only decides when the content sniffs as a
// generic container or there is no content to sniff.
func (r *Registry) Resolve(data []byte, mimeType, filename string) (TextExtractor, error) {
	if declared := normalizeMIME(mimeType); declared != "" {
		if e := r.find(declared, ""); e != nil {
			return e, nil
		}
	}
	if len(data) > 0 {
		sniffed := normalizeMIME(mimetype.Detect(data).String())
		if e := r.find(sniffed, ""); e != nil {
			r.logger.Debug("extractor resolved by content sniffing",
				zap.String("declared_mime", mimeType),
				zap.String("sniffed_mime", sniffed),
				zap.String("extractor", e.Name()))
			return e, nil
		}
		if !genericMIME[sniffed] {
			return nil, domain.NewUnsupportedFormatError(mimeType, filename)
		}
	}
	if filename != "" {
		if e := r.find("", filename); e != nil {
			return e, nil
		}
	}
	return nil, domain.NewUnsupportedFormatError(mimeType, filename)
}

// genericMIME lists sniffed types that say nothing about the document format.
var genericMIME = map[string]bool{
	"application/octet-stream": true,
	"application/zip":          true,
}

// Extract returns the document text, trimmed and valid UTF-8. It fails with
// UNSUPPORTED_FORMAT when no extractor matches and EMPTY_EXTRACTION when the
// text is shorter than the configured minimum.
func (r *Registry) Extract(data []byte, mimeType, filename string) (string, error) {
	e, err := r.Resolve(data, mimeType, filename)
	if err != nil {
		return "", err
	}

	text, err := e.Extract(data)
	if err != nil {
		return "", domain.NewError(domain.CodeEmptyExtraction,
			fmt.Sprintf("Failed to extract text from %s document", e.Name()), err)
	}

	text = strings.TrimSpace(strings.ToValidUTF8(text, ""))
	if n := utf8.RuneCountInString(text); n < r.minChars {
		return "", domain.NewEmptyExtractionError(n, r.minChars)
	}

	r.logger.Debug("text extracted",
		zap.String("extractor", e.Name()),
		zap.Int("bytes", len(data)),
		zap.Int("chars", utf8.RuneCountInString(text)))
	return text, nil
}

func (r *Registry) find(mimeType, filename string) TextExtractor {
	for _, e := range r.extractors {
		if e.Supports(mimeType, filename) {
			return e
		}
	}
	return nil
}

// normalizeMIME lowercases and strips parameters such as charset.
func normalizeMIME(m string) string {
	m = strings.TrimSpace(m)
	if m == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(m); err == nil {
		return mt
	}
	return strings.ToLower(m)
}

// matcher is the shared Supports implementation of the built-in extractors.
type matcher struct {
	mimeTypes    []string
	mimePrefixes []string
	extensions   []string
}

func (m matcher) supports(mimeType, filename string) bool {
	if mt := normalizeMIME(mimeType); mt != "" {
		for _, t := range m.mimeTypes {
			if mt == t {
				return true
			}
		}
		for _, p := range m.mimePrefixes {
			if strings.HasPrefix(mt, p) {
				return true
			}
		}
	}
	if filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		for _, e := range m.extensions {
			if ext == e {
				return true
			}
		}
	}
	return false
}

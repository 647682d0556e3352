package extract

import (
	"errors"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocxExtractor reads the main story of a Word document.
type DocxExtractor struct {
	matcher
	body xmlText
}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{
		matcher: matcher{
			mimeTypes:  []string{docxMIME},
			extensions: []string{".docx"},
		},
		body: xmlText{
			textElem:   "t",
			paraElem:   "p",
			tabElem:    "tab",
			breakElems: []string{"br", "cr"},
		},
	}
}

func (e *DocxExtractor) Name() string { return "docx" }

func (e *DocxExtractor) Supports(mimeType, filename string) bool {
	return e.supports(mimeType, filename)
}

func (e *DocxExtractor) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		part, err := readZipFile(f)
		if err != nil {
			return "", err
		}
		return e.body.collect(part)
	}
	return "", errors.New("word/document.xml not found")
}

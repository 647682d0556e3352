package extract

import (
	"archive/zip"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const pptxMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PptxExtractor reads slide text in slide order.
type PptxExtractor struct {
	matcher
	slide xmlText
}

func NewPptxExtractor() *PptxExtractor {
	return &PptxExtractor{
		matcher: matcher{
			mimeTypes:  []string{pptxMIME},
			extensions: []string{".pptx"},
		},
		slide: xmlText{
			textElem:   "t",
			paraElem:   "p",
			breakElems: []string{"br"},
		},
	}
}

func (e *PptxExtractor) Name() string { return "pptx" }

func (e *PptxExtractor) Supports(mimeType, filename string) bool {
	return e.supports(mimeType, filename)
}

func (e *PptxExtractor) Extract(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	type slidePart struct {
		n int
		f *zip.File
	}
	var slides []slidePart
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slidePart{n: n, f: f})
	}
	if len(slides) == 0 {
		return "", errors.New("presentation has no slides")
	}
	// slide10 must follow slide9, so sort numerically.
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	texts := make([]string, 0, len(slides))
	for _, s := range slides {
		part, err := readZipFile(s.f)
		if err != nil {
			return "", err
		}
		text, err := e.slide.collect(part)
		if err != nil {
			return "", err
		}
		if text = strings.TrimSpace(text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

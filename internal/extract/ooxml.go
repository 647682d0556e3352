package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxXMLPartSize bounds a single decompressed OOXML part.
const maxXMLPartSize = 64 << 20

// openZip opens an in-memory OOXML package.
func openZip(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not an OOXML package: %w", err)
	}
	return zr, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxXMLPartSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxXMLPartSize {
		return nil, fmt.Errorf("part %s exceeds %d bytes", f.Name, maxXMLPartSize)
	}
	return b, nil
}

// xmlText walks an OOXML part and collects the character data of textElem
// elements. Closing a paraElem ends a line; tabElem and breakElems emit a tab
// or newline respectively.
type xmlText struct {
	textElem   string
	paraElem   string
	tabElem    string
	breakElems []string
}

func (x xmlText) collect(part []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(part))
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == x.textElem:
				inText = true
			case x.tabElem != "" && t.Name.Local == x.tabElem:
				sb.WriteByte('\t')
			case x.isBreak(t.Name.Local):
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case x.textElem:
				inText = false
			case x.paraElem:
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

func (x xmlText) isBreak(local string) bool {
	for _, b := range x.breakElems {
		if b == local {
			return true
		}
	}
	return false
}

// Package extract turns uploaded file bytes into plain text for the
// chunking pipeline. Supported media: plain text, markdown, PDF, and
// DOCX.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Text extracts the textual content of data based on the file extension.
// Unsupported extensions are an error; callers validate against the
// upload allow-list before reaching this point.
func Text(data []byte, fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md":
		return sanitizeUTF8(string(data)), nil
	case ".pdf":
		return pdfText(data)
	case ".docx":
		return docxText(data)
	default:
		return "", fmt.Errorf("extract: unsupported file type %q", filepath.Ext(fileName))
	}
}

// MediaType reports the MIME type recorded for an uploaded file.
func MediaType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: failed to open pdf: %w", err)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract: failed to read pdf page %d: %w", pageNum, err)
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return sanitizeUTF8(builder.String()), nil
}

// docxText unzips the document and pulls the text runs out of
// word/document.xml. Paragraph boundaries become newlines.
func docxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: failed to open docx archive: %w", err)
	}

	var documentXML io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			documentXML, err = file.Open()
			if err != nil {
				return "", fmt.Errorf("extract: failed to open document.xml: %w", err)
			}
			break
		}
	}
	if documentXML == nil {
		return "", fmt.Errorf("extract: docx has no word/document.xml")
	}
	defer documentXML.Close()

	decoder := xml.NewDecoder(documentXML)
	var builder strings.Builder
	var inTextRun bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract: failed to parse document.xml: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			if element.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			switch element.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inTextRun {
				builder.Write(element)
			}
		}
	}
	return sanitizeUTF8(builder.String()), nil
}

// sanitizeUTF8 strips invalid UTF-8 sequences so downstream storage never
// sees malformed text.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var result strings.Builder
	result.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}
	return result.String()
}

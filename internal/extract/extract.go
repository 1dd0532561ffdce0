// Package extract pulls plain text out of resume files (PDF, Word and
// plain text) before they are split into sections.
package extract

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
	MimeText = "text/plain"
)

var extToMime = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".doc":  MimeDOC,
	".txt":  MimeText,
}

// MimeType returns the mime type for a supported filename, or "".
func MimeType(filename string) string {
	return extToMime[strings.ToLower(filepath.Ext(filename))]
}

// Supported reports whether filename has an extension we can read.
func Supported(filename string) bool {
	return MimeType(filename) != ""
}

// FromFile reads path and extracts its text.
func FromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", newError(ErrReadFailure, filepath.Base(path), err)
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes extracts text from data, choosing a parser by filename extension.
func FromBytes(filename string, data []byte) (string, error) {
	mime := MimeType(filename)
	if mime == "" {
		return "", newError(ErrUnsupportedFormat, filename, fmt.Errorf("extension %q", filepath.Ext(filename)))
	}
	return fromMime(mime, filename, data)
}

// FromMime extracts text from data using its mime type. Generic or missing
// mime types fall back to the filename extension.
func FromMime(mime, filename string, data []byte) (string, error) {
	mime = strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	switch mime {
	case MimePDF, MimeDOCX, MimeDOC, MimeText:
		return fromMime(mime, filename, data)
	case "", "application/octet-stream", "binary/octet-stream":
		return FromBytes(filename, data)
	default:
		return "", newError(ErrUnsupportedFormat, filename, fmt.Errorf("mime type %q", mime))
	}
}

func fromMime(mime, filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch mime {
	case MimeText:
		return string(data), nil
	case MimePDF:
		text, err = extractPDFText(data)
	case MimeDOCX, MimeDOC:
		// .doc goes through the docx reader too; real legacy Word files fail
		// there and are reported as extraction failures.
		text, err = extractDocxText(data)
	}
	if err != nil {
		return "", newError(ErrExtractionFailure, filename, err)
	}
	return text, nil
}

func extractPDFText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

var (
	xmlTag      = regexp.MustCompile(`<[^>]+>`)
	blankRunsRe = regexp.MustCompile(`[ \t]*\n[ \t]*`)
)

// docxXMLToText turns WordprocessingML into plain text, one paragraph per line.
func docxXMLToText(x string) string {
	x = strings.ReplaceAll(x, "</w:p>", "\n")
	x = strings.ReplaceAll(x, "<w:br/>", "\n")
	x = strings.ReplaceAll(x, "<w:tab/>", "\t")
	x = xmlTag.ReplaceAllString(x, "")
	x = html.UnescapeString(x)
	return strings.TrimSpace(blankRunsRe.ReplaceAllString(x, "\n"))
}

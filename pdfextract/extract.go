// Package pdfextract pulls plain text out of uploaded PDF documents.
package pdfextract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Result holds the extracted document content.
type Result struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Info  string `json:"info"`
}

// Extract reads the PDF and returns its plain text and page count.
func Extract(r io.ReaderAt, size int64) (*Result, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return nil, fmt.Errorf("failed to read extracted text: %w", err)
	}

	pages := reader.NumPage()
	return &Result{
		Text:  buf.String(),
		Pages: pages,
		Info:  fmt.Sprintf("%d page(s), %d characters extracted", pages, buf.Len()),
	}, nil
}

package api

import (
	"bytes"
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carverhealth/medgate/pdfextract"
)

// AnalyzePDF extracts text from an uploaded PDF.
// POST /api/analyze-pdf, multipart field "pdf"
func (h *Handler) AnalyzePDF(c echo.Context) error {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "no pdf file attached")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "failed to open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "failed to read uploaded file")
	}

	result, err := pdfextract.Extract(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Printf("ERROR: pdf extraction failed: %v", err)
		return errorJSON(c, http.StatusUnprocessableEntity, "failed to extract text from pdf")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"text":    result.Text,
		"pages":   result.Pages,
		"info":    result.Info,
	})
}

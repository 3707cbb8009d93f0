package service

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageCounter returns the number of pages of a PDF document or an error when the
// bytes are not a readable PDF.
type PageCounter func(data []byte) (int, error)

// PDFPageCount parses data with pdfcpu.
func PDFPageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}

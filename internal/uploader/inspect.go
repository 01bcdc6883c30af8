package uploader

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// maxFileBytes mirrors Textract's limit for asynchronous PDF analysis.
const maxFileBytes = 500 << 20

// File is a local document selected for upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	// Pages is set for PDFs.
	Pages int
}

// Inspect reads path and detects its content type. PDFs are opened to count
// pages so a corrupt file fails before anything is uploaded.
func Inspect(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxFileBytes {
		return File{}, fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), maxFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return InspectBytes(filepath.Base(path), data)
}

// InspectBytes is Inspect for in-memory content.
func InspectBytes(name string, data []byte) (File, error) {
	if len(data) == 0 {
		return File{}, errors.New("file is empty")
	}
	f := File{
		Name:        name,
		ContentType: detectContentType(name, data),
		Data:        data,
	}
	if f.ContentType == mimePDF {
		pages, err := countPDFPages(data)
		if err != nil {
			return File{}, fmt.Errorf("not a readable PDF: %w", err)
		}
		f.Pages = pages
	}
	return f, nil
}

func detectContentType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return mimePDF
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	sniffed := http.DetectContentType(data)
	return strings.TrimSpace(strings.Split(sniffed, ";")[0])
}

func countPDFPages(data []byte) (n int, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

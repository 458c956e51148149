package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pkg/errors"
)

// Source is an ordered collection of images: the files of a directory or the
// pages of a PDF.
type Source interface {
	Count() int
	Name(index int) string
	Load(index int) (image.Image, error)
	Close() error
}

// Open returns a PDFSource for .pdf paths and an ImageSource otherwise.
func Open(path string, dpi int) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path, dpi)
	}
	return NewImageSource(path)
}

// LoadImage loads a single image. For PDFs the first page is rendered.
func LoadImage(path string, dpi int) (image.Image, error) {
	src, err := Open(path, dpi)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	if src.Count() == 0 {
		return nil, errors.Errorf("%s contains no images", path)
	}
	return src.Load(0)
}

// PDFSource renders PDF pages with go-fitz.
type PDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewPDFSource(path string, dpi int) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening pdf %s", path)
	}
	return &PDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (p *PDFSource) Count() int {
	return p.doc.NumPage()
}

func (p *PDFSource) Name(index int) string {
	base := strings.TrimSuffix(filepath.Base(p.path), filepath.Ext(p.path))
	return fmt.Sprintf("%s_p%d", base, index+1)
}

// Load renders one page. Each call opens its own document so pages can be
// rendered from several goroutines.
func (p *PDFSource) Load(index int) (image.Image, error) {
	workerDoc, err := fitz.New(p.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening pdf %s", p.path)
	}
	defer workerDoc.Close()
	img, err := workerDoc.ImageDPI(index, float64(p.dpi))
	if err != nil {
		return nil, errors.Wrapf(err, "rendering page %d of %s", index+1, p.path)
	}
	return img, nil
}

func (p *PDFSource) Close() error {
	return p.doc.Close()
}

package output

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// JPEGQuality is used for .jpg/.jpeg outputs.
const JPEGQuality = 95

// Encoder writes an image in one file format.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
}

type EncoderFunc func(w io.Writer, img image.Image) error

func (f EncoderFunc) Encode(w io.Writer, img image.Image) error { return f(w, img) }

var encoders = map[string]Encoder{
	".png": EncoderFunc(png.Encode),
	".jpg": EncoderFunc(func(w io.Writer, img image.Image) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	}),
	".bmp": EncoderFunc(bmp.Encode),
	".tif": EncoderFunc(func(w io.Writer, img image.Image) error {
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}),
}

func init() {
	encoders[".jpeg"] = encoders[".jpg"]
	encoders[".tiff"] = encoders[".tif"]
}

// EncoderFor picks an encoder by file extension. Unknown extensions get PNG.
func EncoderFor(path string) Encoder {
	if enc, ok := encoders[strings.ToLower(filepath.Ext(path))]; ok {
		return enc
	}
	return encoders[".png"]
}

// Save encodes img to path, creating parent directories as needed.
func Save(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output")
	}

	if err := EncoderFor(path).Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrap(f.Close(), "close output")
}

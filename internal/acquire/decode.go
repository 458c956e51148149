// Package acquire turns broker payloads into source images.
package acquire

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Strategy is one way of reading an image out of a payload.
type Strategy interface {
	Name() string
	Decode(payload []byte) (image.Image, error)
}

// Raw decodes the payload as encoded image bytes.
type Raw struct{}

func (Raw) Name() string { return "raw" }

func (Raw) Decode(payload []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(payload))
	return img, err
}

// JSONFields are tried in order by JSONBase64.
var JSONFields = []string{"data", "image", "img"}

// JSONBase64 decodes a JSON object carrying a base64 image in one of
// JSONFields. The first non-empty string field wins.
type JSONBase64 struct{}

func (JSONBase64) Name() string { return "json-base64" }

func (JSONBase64) Decode(payload []byte) (image.Image, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, errors.Wrap(err, "not a JSON object")
	}
	for _, field := range JSONFields {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			continue
		}
		data, err := decodeBase64([]byte(s))
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", field)
		}
		return Raw{}.Decode(data)
	}
	return nil, errors.Errorf("no image field among %v", JSONFields)
}

// Base64 decodes the whole payload as base64. Bytes outside the alphabet are
// skipped and padding is optional.
type Base64 struct{}

func (Base64) Name() string { return "base64" }

func (Base64) Decode(payload []byte) (image.Image, error) {
	data, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return Raw{}.Decode(data)
}

func decodeBase64(in []byte) ([]byte, error) {
	clean := make([]byte, 0, len(in))
	for _, c := range in {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/':
			clean = append(clean, c)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("no base64 content")
	}
	return base64.RawStdEncoding.DecodeString(string(clean))
}

// DefaultStrategies is the order a Decoder tries when none is given.
func DefaultStrategies() []Strategy {
	return []Strategy{Raw{}, JSONBase64{}, Base64{}}
}

type Decoder struct {
	Strategies []Strategy
}

func NewDecoder() *Decoder {
	return &Decoder{Strategies: DefaultStrategies()}
}

// Decode runs the strategies in order and returns the first image together
// with the name of the strategy that produced it. When every strategy fails
// the returned error lists each failure.
func (d *Decoder) Decode(payload []byte) (image.Image, string, error) {
	strategies := d.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	var errs *multierror.Error
	for _, s := range strategies {
		img, err := s.Decode(payload)
		if err == nil {
			return img, s.Name(), nil
		}
		errs = multierror.Append(errs, errors.Wrap(err, s.Name()))
	}
	return nil, "", errors.Wrap(errs, "decoding payload")
}

package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

type Decoder struct {
	d *yaml.Decoder
}

type DecoderOpt func(*[]yaml.DecodeOption)

// WithStrict rejects mapping keys that have no matching struct field.
func WithStrict() DecoderOpt {
	return func(opts *[]yaml.DecodeOption) {
		*opts = append(*opts, yaml.DisallowUnknownField())
	}
}

func NewDecoder(r io.Reader, opts ...DecoderOpt) *Decoder {
	decOpts := []yaml.DecodeOption{}
	for _, opt := range opts {
		opt(&decOpts)
	}

	return &Decoder{
		d: yaml.NewDecoder(r, decOpts...),
	}
}

// Decode decodes the next document into v. Errors raised by the YAML library
// are converted to [*Error] so that they keep their source token.
func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return NewError(errors.New(yamlErr.GetMessage()), WithToken(yamlErr.GetToken()))
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// Unmarshal decodes data into v, see [Decoder.Decode].
func Unmarshal(data []byte, v any, opts ...DecoderOpt) error {
	return NewDecoder(bytes.NewReader(data), opts...).Decode(v)
}

package yaml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/token"
)

func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// Error is a YAML decoding or validation error. It carries either the
// [*token.Token] where decoding failed or the [*yaml.Path] that failed
// validation, and optionally the source used to annotate the message.
type Error struct {
	Err    error
	Path   *yaml.Path
	Token  *token.Token
	Source []byte
}

type ErrorOpt func(e *Error)

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{Err: err}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) {
		e.Path = path
	}
}

func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

// Wrap applies opts to err if it is an [*Error]; other errors are returned
// unmodified.
func Wrap(err error, opts ...ErrorOpt) error {
	var yamlErr *Error
	if !errors.As(err, &yamlErr) {
		return err
	}

	for _, opt := range opts {
		opt(yamlErr)
	}

	return yamlErr
}

func (e Error) Error() string {
	msg := e.message()

	annotated := e.annotate()
	if annotated == "" {
		return msg
	}

	return msg + "\n" + annotated
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) message() string {
	errMsg := ""
	if e.Err != nil {
		errMsg = e.Err.Error()
	}

	switch {
	case e.Path != nil:
		return fmt.Sprintf("error at %s: %s", e.Path.String(), errMsg)
	case e.Token != nil:
		return fmt.Sprintf("[%d:%d] %s", e.Token.Position.Line, e.Token.Position.Column, errMsg)
	}

	return errMsg
}

// annotate renders the source lines around the error, or "" if there is no
// source to show.
func (e Error) annotate() string {
	if len(e.Source) == 0 || e.Path == nil {
		return ""
	}

	out, err := e.Path.AnnotateSource(e.Source, false)
	if err != nil {
		return ""
	}

	return strings.TrimRight(string(out), "\n")
}

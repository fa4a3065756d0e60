// Package schema checks the shape of instance JSON documents against
// embedded CUE definitions before they are decoded.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// Definition names in schema.cue.
const (
	MachineEnvironment = "#MachineEnvironment"
	Cast               = "#Cast"
	DueDate            = "#DueDate"
)

// Error is a schema violation with the position of the first offending value.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// SyntaxError reports a document that is not valid JSON.
type SyntaxError struct {
	File    string
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

var (
	once    sync.Once
	ctx     *cue.Context
	root    cue.Value
	rootErr error
)

func compiled() (*cue.Context, cue.Value, error) {
	once.Do(func() {
		ctx = cuecontext.New()
		root = ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		rootErr = root.Err()
	})
	return ctx, root, rootErr
}

// Check validates a JSON document against the named definition.
// It returns *SyntaxError for malformed JSON and *Error when the
// document does not satisfy the definition.
func Check(definition, filename string, data []byte) error {
	c, r, err := compiled()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	def := r.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("unknown schema definition %q", definition)
	}

	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		line, msg := firstPosition(err)
		return &SyntaxError{File: filename, Line: line.Line(), Message: msg}
	}

	doc := c.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		line, msg := firstPosition(err)
		return &SyntaxError{File: filename, Line: line.Line(), Message: msg}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		pos, msg := firstPosition(err)
		return &Error{File: filename, Line: pos.Line(), Column: pos.Column(), Message: msg}
	}
	return nil
}

// firstPosition picks the first error and the first position inside the
// checked document. Positions pointing into schema.cue are skipped.
func firstPosition(err error) (token.Pos, string) {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return token.NoPos, err.Error()
	}
	first := errs[0]
	msg := first.Error()
	for _, pos := range errors.Positions(first) {
		if pos.IsValid() && pos.Filename() != "schema.cue" {
			return pos, msg
		}
	}
	return token.NoPos, msg
}

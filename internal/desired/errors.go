package desired

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFileNotFound is returned when the plugin list path is missing or unreadable.
var ErrFileNotFound = errors.New("plugin list file not found")

// ParseError reports a plugin list that is not well-formed structured data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("error parsing plugin list: %v", e.Err)
	}
	return fmt.Sprintf("error parsing plugin list file %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Violation is a single schema violation.
type Violation struct {
	// Location is a JSON pointer into the plugin list, e.g. "/SwagPayPal/update".
	Location string
	Message  string
}

func (v Violation) String() string {
	if v.Location == "" {
		return v.Message
	}
	return v.Location + ": " + v.Message
}

// SchemaError reports a plugin list that does not conform to the bundled schema.
type SchemaError struct {
	Path       string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("error validating plugin list: %s", strings.Join(msgs, "; "))
}

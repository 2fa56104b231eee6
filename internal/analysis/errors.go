package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when aggregation is asked to summarize nothing.
var ErrEmptyInput = errors.New("no records to aggregate")

// MissingInputError reports a required request field that was not supplied.
type MissingInputError struct {
	Field string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input %q", e.Field)
}

// SchemaError reports an uploaded file that cannot be read as a table with a
// text column.
type SchemaError struct {
	Column string
	Found  []string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid csv: %s", e.Reason)
	}
	return fmt.Sprintf("invalid csv: column %q not found in header [%s]", e.Column, strings.Join(e.Found, ", "))
}

// NoMatchError reports that the entity filter kept no records. An empty
// Entity means the upload itself had no usable records.
type NoMatchError struct {
	Entity string
}

func (e *NoMatchError) Error() string {
	if e.Entity == "" {
		return "no records found"
	}
	return fmt.Sprintf("no records mention %q", e.Entity)
}

// ProcessingError wraps a failure inside one pipeline stage.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// UserMessage renders err the way it is shown to someone who uploaded a file.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		missing    *MissingInputError
		schema     *SchemaError
		noMatch    *NoMatchError
		processing *ProcessingError
	)
	switch {
	case errors.As(err, &missing):
		return "Please select a CSV file and enter a bank name."
	case errors.As(err, &schema):
		if schema.Reason != "" {
			return "Invalid CSV format. " + upperFirst(schema.Reason) + "."
		}
		return fmt.Sprintf("Invalid CSV format. A '%s' column is required.", schema.Column)
	case errors.As(err, &noMatch):
		if noMatch.Entity == "" {
			return "No tweets found in the uploaded file."
		}
		return fmt.Sprintf("No tweets mentioning %s found in the uploaded file.", noMatch.Entity)
	case errors.Is(err, ErrEmptyInput):
		return "No tweets found in the uploaded file."
	case errors.As(err, &processing):
		return "An error occurred: " + processing.Err.Error()
	default:
		return "An error occurred: " + err.Error()
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

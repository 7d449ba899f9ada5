// Package asserr defines the typed error taxonomy shared by every importer,
// exporter and postprocess pass in the scene pipeline.
package asserr

import "fmt"

// Kind classifies an Error into one of the fixed categories every codec
// and the dispatcher agree on. Codecs never return a bare error; they
// always wrap it with one of these kinds before it crosses the codec
// boundary.
type Kind int

const (
	// IoError is any failure reading or writing through the I/O abstraction.
	IoError Kind = iota
	// UnknownFormat means dispatch found no importer willing to read the input.
	UnknownFormat
	// UnsupportedVariant means the codec recognised the container but not
	// this flavour or version of it.
	UnsupportedVariant
	// MalformedInput means the bytes violate the format at a known offset
	// or XML path.
	MalformedInput
	// InvariantViolation means a §3.3-style scene invariant failed.
	InvariantViolation
	// PostProcessFailed means a postprocess pass returned an error.
	PostProcessFailed
	// OutOfMemory means an allocation was refused.
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case UnknownFormat:
		return "UnknownFormat"
	case UnsupportedVariant:
		return "UnsupportedVariant"
	case MalformedInput:
		return "MalformedInput"
	case InvariantViolation:
		return "InvariantViolation"
	case PostProcessFailed:
		return "PostProcessFailed"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned across the codec/dispatcher
// boundary. It carries enough locator information to let a caller point
// a user at the byte offset or XML path that triggered the failure.
type Error struct {
	Kind    Kind
	Message string
	Path    string // file path or XML path, when known
	Offset  int64  // byte offset, -1 when not applicable
	Pass    string // postprocess pass name, only set for PostProcessFailed
	Cause   error
}

func (e *Error) Error() string {
	loc := ""
	if e.Path != "" {
		loc += " path=" + e.Path
	}
	if e.Offset >= 0 {
		loc += fmt.Sprintf(" offset=0x%x", e.Offset)
	}
	if e.Pass != "" {
		loc += " pass=" + e.Pass
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s:%s %s (%v)", e.Kind, loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s:%s %s", e.Kind, loc, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with no locator information set.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// Wrap creates an Error of the given kind that wraps an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1, Cause: cause}
}

// AtOffset returns a copy of e with Offset and Path set, for codecs that
// only learn the locator after constructing the error.
func (e *Error) AtOffset(path string, offset int64) *Error {
	c := *e
	c.Path = path
	c.Offset = offset
	return &c
}

// Malformed is a convenience constructor for the most common codec error.
func Malformed(path string, offset int64, format string, args ...interface{}) *Error {
	return &Error{Kind: MalformedInput, Message: fmt.Sprintf(format, args...), Path: path, Offset: offset}
}

// PostProcessFail builds the error a pipeline pass returns to abort the
// runner, carrying the failing pass's name per §4.8.
func PostProcessFail(pass, format string, args ...interface{}) *Error {
	return &Error{Kind: PostProcessFailed, Message: fmt.Sprintf(format, args...), Pass: pass, Offset: -1}
}

// Is supports errors.Is(err, asserr.UnknownFormat) style matching against
// a bare Kind value.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf reports the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}

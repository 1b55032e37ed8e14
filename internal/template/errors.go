package template

import "errors"

// Common template errors
var (
	// ErrTemplateNotFound is returned when a template blob is absent from
	// the store or cannot be parsed.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrEmptyName is returned when a template name is blank.
	ErrEmptyName = errors.New("template name must not be empty")

	// ErrIndexOutOfRange marks a result row whose line index points past
	// the end of the document's extracted lines. It is attached to the
	// individual row; applying a template never fails as a whole because
	// of it.
	ErrIndexOutOfRange = errors.New("line index out of range")
)

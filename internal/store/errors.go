package store

import "fmt"

// Store errors carry the exact text written back to the client; the
// dispatcher only appends the terminating newline.

// KeyNotFoundError reports a read against an absent key.
type KeyNotFoundError struct {
	Key string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("Key %q not found.", e.Key)
}

// TypeMismatchError reports that the key exists under a different stored
// kind than the one the client asked for.
type TypeMismatchError struct {
	Key       string
	Requested string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("Value stored in key %q is not of type %q.", e.Key, e.Requested)
}

// ParseError reports that a SET payload failed the target type's parser.
// The prior record at the key, if any, is untouched.
type ParseError struct {
	Key       string
	Raw       string
	Requested string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Setting key %q failed. Could not parse %q into %q.", e.Key, e.Raw, e.Requested)
}

// OverflowError reports that checked accumulation exceeded the target width.
type OverflowError struct {
	Requested string
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("Adding values of type %q overflowed.", e.Requested)
}

// PatternError reports an invalid glob or regex KEYS pattern. It is scoped
// to the request; the connection stays up.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("Invalid pattern %q: %v.", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

package systeminfo

import "fmt"

// FormatError reports a numeric field or date fragment that does not parse.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("systeminfo: invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("systeminfo: invalid %s %q", e.Field, e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// LookupError reports an adapter sub-field that appears before any adapter
// was opened.
type LookupError struct {
	Label string
	Line  int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("systeminfo: %q on line %d has no owning network adapter", e.Label, e.Line+1)
}

// OutOfRangeError reports a sentinel-terminated list that ran past the end
// of input.
type OutOfRangeError struct {
	List string
	Line int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("systeminfo: %s list starting on line %d is not terminated", e.List, e.Line+1)
}

// UnsupportedLayoutError reports output whose structure does not match the
// known systeminfo layout.
type UnsupportedLayoutError struct {
	Reason string
	Line   int
}

func (e *UnsupportedLayoutError) Error() string {
	return fmt.Sprintf("systeminfo: unsupported layout on line %d: %s", e.Line+1, e.Reason)
}

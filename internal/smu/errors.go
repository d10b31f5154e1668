package smu

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies every failure the package can return.
type ErrorKind int

const (
	// KindAccessUnavailable means the driver interface or one of its
	// entries is absent (module not loaded, entry missing).
	KindAccessUnavailable ErrorKind = iota + 1
	// KindAccessDenied means the entry exists but cannot be read.
	KindAccessDenied
	// KindTransportIO is any other I/O failure during a read.
	KindTransportIO
	// KindUnsupportedVersion means no layout is registered for the
	// table version reported by the driver.
	KindUnsupportedVersion
	// KindUnsupportedProcessor means the codename id did not resolve
	// and no explicit core count was supplied.
	KindUnsupportedProcessor
	// KindSizeMismatch means the buffer is shorter than the layout
	// requires for the core count.
	KindSizeMismatch
	// KindCoreCountUnknown means no positive core count could be
	// established.
	KindCoreCountUnknown
)

var kindNames = map[ErrorKind]string{
	KindAccessUnavailable:    "access unavailable",
	KindAccessDenied:         "access denied",
	KindTransportIO:          "transport i/o",
	KindUnsupportedVersion:   "unsupported pm table version",
	KindUnsupportedProcessor: "unsupported processor",
	KindSizeMismatch:         "pm table size mismatch",
	KindCoreCountUnknown:     "core count unknown",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by this package. Only the
// context fields relevant to Kind are set.
type Error struct {
	Kind ErrorKind

	// Path is the driver entry involved in an access failure.
	Path string

	// Version is the table version for KindUnsupportedVersion.
	Version uint32

	// ProcessorID is the raw codename id for KindUnsupportedProcessor.
	ProcessorID uint32

	// Expected and Actual are byte lengths for KindSizeMismatch.
	Expected int
	Actual   int

	// Err is the underlying cause, if any.
	Err error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrAccessUnavailable    = &Error{Kind: KindAccessUnavailable}
	ErrAccessDenied         = &Error{Kind: KindAccessDenied}
	ErrTransportIO          = &Error{Kind: KindTransportIO}
	ErrUnsupportedVersion   = &Error{Kind: KindUnsupportedVersion}
	ErrUnsupportedProcessor = &Error{Kind: KindUnsupportedProcessor}
	ErrSizeMismatch         = &Error{Kind: KindSizeMismatch}
	ErrCoreCountUnknown     = &Error{Kind: KindCoreCountUnknown}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindAccessUnavailable, KindAccessDenied, KindTransportIO:
		msg = fmt.Sprintf("smu: %s: %s", e.Kind, e.Path)
	case KindUnsupportedVersion:
		msg = fmt.Sprintf("smu: %s: %#x", e.Kind, e.Version)
	case KindUnsupportedProcessor:
		msg = fmt.Sprintf("smu: %s: codename id %d", e.Kind, e.ProcessorID)
	case KindSizeMismatch:
		msg = fmt.Sprintf("smu: %s: expected at least %d bytes, got %d", e.Kind, e.Expected, e.Actual)
	default:
		msg = "smu: " + e.Kind.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// classifyReadError maps the error from an actual read attempt onto
// the access taxonomy. A driver unloaded between polls surfaces as
// ENODEV or ENXIO rather than ENOENT.
func classifyReadError(path string, err error) error {
	kind := KindTransportIO
	switch {
	case errors.Is(err, fs.ErrNotExist), deviceGone(err):
		kind = KindAccessUnavailable
	case errors.Is(err, fs.ErrPermission):
		kind = KindAccessDenied
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

package errors

import (
	"io/fs"
)

// Kind is the distinguishing category of a failure.
type Kind int

// Failure kinds, in the order KindOf checks them.
const (
	KindUnknown Kind = iota
	KindConflictsPending
	KindToolNotSupported
	KindPathResolution
	KindNoRecognizedFormat
	KindInvalidFormat
	KindPathBlocked
	KindPathUnsafe
	KindDuplicate
	KindPermissionDenied
	KindNotFound
	KindIO
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindConflictsPending:   "conflicts_pending",
	KindToolNotSupported:   "tool_not_supported",
	KindPathResolution:     "path_resolution",
	KindNoRecognizedFormat: "no_recognized_format",
	KindInvalidFormat:      "invalid_format",
	KindPathBlocked:        "path_blocked",
	KindPathUnsafe:         "path_unsafe",
	KindDuplicate:          "duplicate",
	KindPermissionDenied:   "permission_denied",
	KindNotFound:           "not_found",
	KindIO:                 "io",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

var kindSentinels = []struct {
	kind Kind
	errs []error
}{
	{KindConflictsPending, []error{ErrConflictsPending}},
	{KindToolNotSupported, []error{ErrToolNotSupported}},
	{KindPathResolution, []error{ErrPathResolution}},
	{KindNoRecognizedFormat, []error{ErrNoRecognizedFormat}},
	{KindInvalidFormat, []error{ErrInvalidFormat}},
	{KindPathBlocked, []error{ErrPathBlocked}},
	{KindPathUnsafe, []error{ErrPathUnsafe}},
	{KindDuplicate, []error{ErrDuplicateServer}},
	{KindPermissionDenied, []error{ErrPermissionDenied, fs.ErrPermission}},
	{KindNotFound, []error{ErrNotFound, fs.ErrNotExist}},
	{KindIO, []error{ErrIO}},
}

// KindOf classifies err. It returns KindUnknown for nil and for errors that
// carry none of the package sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, ks := range kindSentinels {
		for _, sentinel := range ks.errs {
			if Is(err, sentinel) {
				return ks.kind
			}
		}
	}
	return KindUnknown
}

// MarkIO tags an OS-level failure with the matching kind sentinel. Missing
// files become ErrNotFound, permission failures become ErrPermissionDenied
// with a hint, everything else ErrIO. The original message is kept.
func MarkIO(err error, path string) error {
	if err == nil {
		return nil
	}
	switch {
	case Is(err, fs.ErrNotExist):
		return Mark(Wrapf(err, "%s", path), ErrNotFound)
	case Is(err, fs.ErrPermission):
		return WithHint(
			Mark(Wrapf(err, "%s", path), ErrPermissionDenied),
			"the current user cannot access "+path,
		)
	default:
		return Mark(Wrapf(err, "%s", path), ErrIO)
	}
}

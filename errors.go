package r

import "fmt"

// Code is a stable, closed set of small negative error codes, part of the
// runtime's ABI. Every failable core operation returns either a
// non-negative result or one of these values. Implementations must
// preserve the specific integer values so that higher-level callers
// (MQTT, HTTP, database sync, ...) can compare against them directly.
type Code int32

// The closed set of runtime error codes. Values are part of the ABI and
// must never be renumbered.
const (
	OK             Code = 0
	ErrGeneric     Code = -1
	ErrFail        Code = -2
	ErrBadArgs     Code = -3
	ErrBadNull     Code = -4
	ErrBadState    Code = -5
	ErrBadFormat   Code = -6
	ErrBadType     Code = -7
	ErrBadHandle   Code = -8
	ErrBadRequest  Code = -9
	ErrBadSession  Code = -10
	ErrBadVersion  Code = -11
	ErrCantAccess  Code = -12
	ErrCantAllocate Code = -13
	ErrCantComplete Code = -14
	ErrCantConnect  Code = -15
	ErrCantCreate   Code = -16
	ErrCantFind     Code = -17
	ErrCantInitialize Code = -18
	ErrCantLoad     Code = -19
	ErrCantOpen     Code = -20
	ErrCantRead     Code = -21
	ErrCantResolve  Code = -22
	ErrCantWrite    Code = -23
	ErrDeleted      Code = -24
	ErrMemory       Code = -25
	ErrNetwork      Code = -26
	ErrNotReady     Code = -27
	ErrNotInitialized Code = -28
	ErrReadOnly     Code = -29
	ErrTimeout      Code = -30
	ErrTooMany      Code = -31
	ErrWontFit      Code = -32
	ErrWouldBlock   Code = -33
	ErrAborted      Code = -34
	ErrAlreadyExists Code = -35
	ErrEOF           Code = -36
	ErrClosed        Code = -37
	ErrProtocol      Code = -38
	ErrDeadlock      Code = -39
)

var codeNames = map[Code]string{
	OK:                "ok",
	ErrGeneric:        "error",
	ErrFail:           "fail",
	ErrBadArgs:        "bad args",
	ErrBadNull:        "bad null",
	ErrBadState:       "bad state",
	ErrBadFormat:      "bad format",
	ErrBadType:        "bad type",
	ErrBadHandle:      "bad handle",
	ErrBadRequest:     "bad request",
	ErrBadSession:     "bad session",
	ErrBadVersion:     "bad version",
	ErrCantAccess:     "cannot access",
	ErrCantAllocate:   "cannot allocate",
	ErrCantComplete:   "cannot complete",
	ErrCantConnect:    "cannot connect",
	ErrCantCreate:     "cannot create",
	ErrCantFind:       "cannot find",
	ErrCantInitialize: "cannot initialize",
	ErrCantLoad:       "cannot load",
	ErrCantOpen:       "cannot open",
	ErrCantRead:       "cannot read",
	ErrCantResolve:    "cannot resolve",
	ErrCantWrite:      "cannot write",
	ErrDeleted:        "deleted",
	ErrMemory:         "memory exhausted",
	ErrNetwork:        "network error",
	ErrNotReady:       "not ready",
	ErrNotInitialized: "not initialized",
	ErrReadOnly:       "read only",
	ErrTimeout:        "timeout",
	ErrTooMany:        "too many",
	ErrWontFit:        "won't fit",
	ErrWouldBlock:     "would block",
	ErrAborted:        "aborted",
	ErrAlreadyExists:  "already exists",
	ErrEOF:            "end of file",
	ErrClosed:         "closed",
	ErrProtocol:       "protocol error",
	ErrDeadlock:       "deadlock",
}

// String renders the code's symbolic name, e.g. "cannot find".
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int32(c))
}

// Error wraps a Code as a standard Go error, optionally annotated with
// caller-supplied context. Two Errors compare equal via errors.Is when
// their codes match, regardless of annotation — the code is the ABI,
// the annotation is for humans.
type Error struct {
	Code Code
	// Msg is an optional human-readable annotation, e.g. the file path
	// that could not be opened.
	Msg string
}

// NewError builds an Error from a code and an optional formatted message.
func NewError(code Code, format string, args ...any) *Error {
	e := &Error{Code: code}
	if format != "" {
		e.Msg = fmt.Sprintf(format, args...)
	}
	return e
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is implements errors.Is comparison by Code, so a caller can write
// errors.Is(err, r.NewError(r.ErrTimeout, "")) or compare against one of
// the package-level sentinel errors below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for the common codes, for use with errors.Is.
var (
	ErrIsTimeout     = &Error{Code: ErrTimeout}
	ErrIsWouldBlock  = &Error{Code: ErrWouldBlock}
	ErrIsCantFind    = &Error{Code: ErrCantFind}
	ErrIsAborted     = &Error{Code: ErrAborted}
	ErrIsClosed      = &Error{Code: ErrClosed}
	ErrIsBadArgs     = &Error{Code: ErrBadArgs}
	ErrIsNotReady    = &Error{Code: ErrNotReady}
)

// Package apperrors classifies circulation failures so callers can react to the
// kind of failure instead of parsing messages.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind groups errors by how a caller is expected to react.
type Kind int

const (
	// KindInternal is an unexpected failure (storage, bugs).
	KindInternal Kind = iota
	// KindValidation is malformed or missing input; resubmit after correcting it.
	KindValidation
	// KindConflict is a state precondition that does not hold.
	KindConflict
	// KindCapacity is a resource limit; the caller may retry later.
	KindCapacity
	// KindNotFound is an unknown identifier.
	KindNotFound
	// KindDependency is a side-effect failure (audit, notification, events).
	// It is logged and never returned from an engine operation.
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindCapacity:
		return "capacity"
	case KindNotFound:
		return "not_found"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so that a detailed error (see WithMessage) still satisfies
// errors.Is against the predeclared sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// New creates a classified error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, code string, err error, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// Dependency wraps a collaborator failure.
func Dependency(collaborator string, err error) *Error {
	return Wrap(KindDependency, CodeDependencyFailure, err, collaborator+" failed")
}

// KindOf reports the kind of err, or KindInternal when it is not classified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err, or CodeInternal when it is not classified.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

const (
	CodeInternal          = "INTERNAL_ERROR"
	CodeDependencyFailure = "DEPENDENCY_FAILURE"

	CodeValidation            = "VALIDATION_ERROR"
	CodeInvalidWindow         = "INVALID_WINDOW"
	CodeWindowInPast          = "WINDOW_IN_PAST"
	CodeWindowTooLong         = "WINDOW_TOO_LONG"
	CodeInvalidDates          = "INVALID_DATES"
	CodeDurationExceeded      = "DURATION_EXCEEDED"
	CodeInvalidResolution     = "INVALID_RESOLUTION"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeStatusReasonRequired  = "STATUS_REASON_REQUIRED"
	CodeNegativeAmount        = "NEGATIVE_AMOUNT"
	CodeInvalidCopies         = "INVALID_COPIES"
	CodeDuplicateHold         = "DUPLICATE_HOLD"
	CodeNotPending            = "NOT_PENDING"
	CodeNotFulfilled          = "NOT_FULFILLED"
	CodeNotOwner              = "NOT_OWNER"
	CodeAlreadyHeld           = "ALREADY_HELD"
	CodeAlreadyReturned       = "ALREADY_RETURNED"
	CodeMemberInactive        = "MEMBER_INACTIVE"
	CodeDuplicateISBN         = "DUPLICATE_ISBN"
	CodeMemberExists          = "MEMBER_EXISTS"
	CodeBookInactive          = "BOOK_INACTIVE"
	CodeNoCopiesAvailable     = "NO_COPIES_AVAILABLE"
	CodeCapExceeded           = "CAP_EXCEEDED"
	CodeBookNotFound          = "BOOK_NOT_FOUND"
	CodeMemberNotFound        = "MEMBER_NOT_FOUND"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeUserNotPending        = "USER_NOT_PENDING"
	CodeInvalidUserState      = "INVALID_USER_STATE"
	CodeReservationNotFound   = "RESERVATION_NOT_FOUND"
	CodeLoanNotFound          = "LOAN_NOT_FOUND"
	CodeNoFinesFound          = "NO_FINES_FOUND"
	CodeUnsupportedExportKind = "UNSUPPORTED_EXPORT"
)

var (
	ErrInvalidWindow        = New(KindValidation, CodeInvalidWindow, "reserved_to must be after reserved_from")
	ErrWindowInPast         = New(KindValidation, CodeWindowInPast, "reserved_from cannot be in the past")
	ErrWindowTooLong        = New(KindValidation, CodeWindowTooLong, "reservation window exceeds the maximum issue duration")
	ErrInvalidDates         = New(KindValidation, CodeInvalidDates, "due date must be after issue date")
	ErrDurationExceeded     = New(KindValidation, CodeDurationExceeded, "loan duration exceeds the maximum issue duration")
	ErrInvalidResolution    = New(KindValidation, CodeInvalidResolution, "resolution must be RETURNED, LOST or WRITE_OFF")
	ErrInvalidStatus        = New(KindValidation, CodeInvalidStatus, "book status must be ACTIVE, LOST or WRITE_OFF")
	ErrStatusReasonRequired = New(KindValidation, CodeStatusReasonRequired, "a reason is required when marking a book LOST or WRITE_OFF")
	ErrNegativeAmount       = New(KindValidation, CodeNegativeAmount, "amounts must not be negative")
	ErrInvalidCopies        = New(KindValidation, CodeInvalidCopies, "copy counts must not be negative")
	ErrUnsupportedExport    = New(KindValidation, CodeUnsupportedExportKind, "unsupported export kind or format")
	ErrInvalidUserState     = New(KindValidation, CodeInvalidUserState, "state must be pending, approved or declined")

	ErrDuplicateHold   = New(KindConflict, CodeDuplicateHold, "member already holds a pending reservation or an open loan for this book")
	ErrNotPending      = New(KindConflict, CodeNotPending, "reservation is not pending")
	ErrNotFulfilled    = New(KindConflict, CodeNotFulfilled, "reservation is not fulfilled")
	ErrNotOwner        = New(KindConflict, CodeNotOwner, "only the member who made the reservation can cancel it")
	ErrAlreadyHeld     = New(KindConflict, CodeAlreadyHeld, "member already has an open loan for this book")
	ErrAlreadyReturned = New(KindConflict, CodeAlreadyReturned, "loan has already been returned")
	ErrMemberInactive  = New(KindConflict, CodeMemberInactive, "member account is not active")
	ErrDuplicateISBN   = New(KindConflict, CodeDuplicateISBN, "a book with this ISBN already exists")
	ErrMemberExists    = New(KindConflict, CodeMemberExists, "user already has a member profile")
	ErrBookInactive    = New(KindConflict, CodeBookInactive, "book is not in circulation")
	ErrUserNotPending  = New(KindConflict, CodeUserNotPending, "user is not awaiting approval")

	ErrNoCopiesAvailable = New(KindCapacity, CodeNoCopiesAvailable, "no copies available")
	ErrCapExceeded       = New(KindCapacity, CodeCapExceeded, "member has reached the maximum number of open loans")

	ErrBookNotFound        = New(KindNotFound, CodeBookNotFound, "book not found")
	ErrMemberNotFound      = New(KindNotFound, CodeMemberNotFound, "member not found")
	ErrUserNotFound        = New(KindNotFound, CodeUserNotFound, "user not found")
	ErrReservationNotFound = New(KindNotFound, CodeReservationNotFound, "reservation not found")
	ErrLoanNotFound        = New(KindNotFound, CodeLoanNotFound, "loan not found")
	ErrNoFinesFound        = New(KindNotFound, CodeNoFinesFound, "no outstanding fines found")
)

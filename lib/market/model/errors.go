package model

import "fmt"

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a marketplace error. It wraps a code (of type ErrCode) and a message.
// Two errors match with errors.Is when their codes are equal, so callers compare
// against the sentinel values below regardless of the message.
type Error struct {
	Code ErrCode // The error code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Msg
}

// Is reports whether target is a marketplace error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf creates a new error with the given code and a formatted message.
func Errorf(code ErrCode, format string, args ...any) *Error {
	return &Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

type ErrCode uint8

const (
	CodeEmailExists        ErrCode = iota + 1 // 1: Registration with an email that is already taken.
	CodeInvalidCredentials                    // 2: Login with an unknown email or a wrong password.
	CodeNotFound                              // 3: The referenced product does not exist.
	CodeEmptyUsername                         // 4: Username is blank.
	CodeForbidden                             // 5: The actor does not own the product.
	CodeNotAuthenticated                      // 6: The operation needs an active session.
	CodeOwnProduct                            // 7: A seller tried to buy their own product.
	CodeInvalidInput                          // 8: A field failed validation.
	CodeWeakPassword                          // 9: Password is shorter than MinPasswordLength.
)

func (c ErrCode) String() string {
	switch c {
	case CodeEmailExists:
		return "EmailExists"
	case CodeInvalidCredentials:
		return "InvalidCredentials"
	case CodeNotFound:
		return "NotFound"
	case CodeEmptyUsername:
		return "EmptyUsername"
	case CodeForbidden:
		return "Forbidden"
	case CodeNotAuthenticated:
		return "NotAuthenticated"
	case CodeOwnProduct:
		return "OwnProduct"
	case CodeInvalidInput:
		return "InvalidInput"
	case CodeWeakPassword:
		return "WeakPassword"
	default:
		return "Unknown"
	}
}

// Sentinel errors for errors.Is
var (
	ErrEmailExists        = &Error{Code: CodeEmailExists, Msg: "an account with this email already exists"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Msg: "invalid email or password"}
	ErrNotFound           = &Error{Code: CodeNotFound, Msg: "product not found"}
	ErrEmptyUsername      = &Error{Code: CodeEmptyUsername, Msg: "username must not be empty"}
	ErrForbidden          = &Error{Code: CodeForbidden, Msg: "only the seller may change this product"}
	ErrNotAuthenticated   = &Error{Code: CodeNotAuthenticated, Msg: "please log in first"}
	ErrOwnProduct         = &Error{Code: CodeOwnProduct, Msg: "you cannot buy your own product"}
	ErrInvalidInput       = &Error{Code: CodeInvalidInput, Msg: "invalid input"}
	ErrWeakPassword       = &Error{Code: CodeWeakPassword, Msg: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
)

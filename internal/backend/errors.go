package backend

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUserNotFound      Code = "user-not-found"
	CodeWrongPassword     Code = "wrong-password"
	CodeInvalidCredential Code = "invalid-credential"
	CodeInvalidEmail      Code = "invalid-email"
	CodeWeakPassword      Code = "weak-password"
	CodeEmailInUse        Code = "email-already-in-use"
	CodeNetwork           Code = "network-failure"
	CodeUnknown           Code = "unknown"
)

// Error is a categorized backend failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("backend: %s: %s: %v", e.Code, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("backend: %s: %s", e.Code, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("backend: %s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("backend: %s", e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the category of err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeUnknown
}

package account

import "github.com/san-kum/talkalot/internal/backend"

const (
	MsgNameRequired     = "Please enter your name."
	MsgNameDigits       = "Name cannot contain numbers."
	MsgNameTooLong      = "Name cannot be longer than 20 characters."
	MsgEmailRequired    = "Please enter your email."
	MsgPasswordRequired = "Please enter a password."
	MsgConfirmRequired  = "Please confirm your password."
	MsgPasswordMismatch = "Passwords do not match."
	MsgPasswordPattern  = "Password must be at least 8 characters long, include an uppercase letter, and a symbol."
	MsgTooYoung         = "You must be at least 13 years old to sign up."

	MsgResetEmailRequired = "Please enter your email to reset your password."
	MsgResetSent          = "Password reset email sent! Please check your inbox."
	MsgProfileNotSaved    = "Your account was created, but your profile could not be saved. Please try again later."
)

var loginMessages = map[backend.Code]string{
	backend.CodeUserNotFound:      "This email is not associated with an account.",
	backend.CodeWrongPassword:     "Incorrect password. Please try again.",
	backend.CodeInvalidCredential: "Invalid email or password. Please check your details.",
	backend.CodeInvalidEmail:      "Please enter a valid email.",
}

const loginFallback = "Authentication failed. Please try again."

var resetMessages = map[backend.Code]string{
	backend.CodeUserNotFound: "This email is not associated with an account.",
}

const resetFallback = "Error sending password reset email."

var signupMessages = map[backend.Code]string{
	backend.CodeNetwork:      "Please try again later.",
	backend.CodeWeakPassword: MsgPasswordPattern,
	backend.CodeEmailInUse:   "This email is already associated with an account.",
	backend.CodeInvalidEmail: "This email is not valid.",
}

const signupFallback = "An unexpected error occurred. Please try again."

func lookup(table map[backend.Code]string, fallback string, err error) string {
	if msg, ok := table[backend.CodeOf(err)]; ok {
		return msg
	}
	return fallback
}

// LoginMessage is the text shown for a failed sign-in.
func LoginMessage(err error) string { return lookup(loginMessages, loginFallback, err) }

// ResetMessage is the text shown for a failed password reset.
func ResetMessage(err error) string { return lookup(resetMessages, resetFallback, err) }

// SignupMessage is the text shown for a failed account creation.
func SignupMessage(err error) string { return lookup(signupMessages, signupFallback, err) }

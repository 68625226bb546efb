// Package account runs the login, password reset and signup flows against an
// injected [backend.Authenticator] and [backend.ProfileStore].
//
// Every failed flow returns a [*Failure] whose Message is the text to show
// inline. Signup checks its form first; see [Validator] for the rule order.
package account

// Package backend holds the hosted account and document services the app
// talks to.
//
// Callers depend on [Authenticator] and [ProfileStore]; the concrete client is
// built once and passed in:
//
//   - [Firebase]: Identity Toolkit and Firestore over REST
//   - [Memory]: in-process accounts for offline use and tests
//
// Every failure that the user should see is an [*Error] carrying a [Code].
package backend

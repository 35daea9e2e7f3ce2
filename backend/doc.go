// Package backend talks to the membership REST API over HTTP.
//
// It implements gymgate.BackendClient: credential exchange, user lookup
// by email or id, and account signup. Responses are decoded into
// gymgate.Identity; transport and server failures surface as the
// sentinel errors declared in the root package so callers never branch
// on HTTP status codes.
//
// # What this package must NOT do
//
//   - Cache identities or tokens. Persistence belongs to the session
//     store.
//   - Interpret token contents. Decoding lives in package token.
//   - Retry. Callers own retry policy; a failed call returns once.
package backend

// Package token turns opaque bearer strings into structured claim sets.
//
// # Trust model
//
// [Decode] establishes shape, not trust: it base64url-decodes the payload
// segment and validates the claim structure, but never checks the
// signature. The backend is solely responsible for token integrity; the
// local decode is a UI hint. Deployments that terminate sensitive calls
// client-side should construct a [Verifier] and let the guard verify
// signatures on every evaluation.
//
// # What this package must NOT do
//
//   - Issue or sign tokens (the backend owns issuance).
//   - Touch persisted storage or the network.
//   - Panic on any input: every malformed token maps to
//     [ErrMalformedToken].
package token

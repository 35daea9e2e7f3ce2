// Package middleware adapts the route guard to net/http servers.
//
// # Guards
//
//   - [Protect] — evaluates every request path against a guard.Table and
//     redirects denials.
//   - [RequireAdmin] / [RequireClient] — single-role shortcuts for one
//     handler subtree.
//
// Each guard reads the bearer token from the Authorization header or the
// session cookie, evaluates the access decision, and injects the decoded
// claims into the request context on success.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into guard evaluations. It does
// NOT implement access logic itself; every decision is delegated to
// guard.EvaluateWith.
//
// # What this package must NOT do
//
//   - Decode token payloads directly (delegates to the guard's decoder).
//   - Touch the session store beyond what the guard mandates.
//   - Invent outcomes beyond the guard's four terminal states.
package middleware

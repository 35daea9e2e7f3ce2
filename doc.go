// Package gymgate provides the session and identity core for the Memberly
// gym-membership applications: a bearer-token claims codec, a durable
// observable session store, and a role-based route access guard.
//
// The package is the public surface. It exposes [Engine], [Builder],
// [Config], [Store], and the identity value types. Route decision logic
// lives in the guard subpackage, token decoding in token, persistence
// backends in storage, and the backend REST collaborator in backend.
//
// # Architecture boundaries
//
// gymgate never renders UI and never interprets backend HTTP status codes;
// the backend package maps those to sentinel errors before they reach the
// Engine. A guard evaluation is a pure decision plus at most two side
// effects: a redirect through a Navigator and a session clear on invalid
// tokens.
//
// # What this package must NOT do
//
//   - Verify token signatures in the default decode path (the backend owns
//     integrity; local decode establishes shape, not trust).
//   - Expose storage clients or persistence keys beyond the storage package.
//   - Import guard, middleware, or backend (no downward imports into the
//     adapters that build on the Engine).
package gymgate

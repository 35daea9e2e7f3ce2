// Package guard gates entry into navigation destinations based on the
// session's bearer token and a static route table.
//
// # Decision model
//
// [Evaluate] is a pure function over (token, requirement, policy): it
// reaches exactly one terminal [Decision] per call and performs no I/O.
// [Guard.Check] binds it to the two permitted side effects: clearing the
// session when the token turns out to be invalid, and a fire-and-forget
// redirect through a [Navigator]. Every failure degrades to a redirect;
// nothing in this package returns an error to navigation callers or
// panics.
//
// The guard runs on every navigation attempt into a protected
// destination, not once at boot: a session can expire or be cleared
// mid-session by a concurrent logout elsewhere in the app.
//
// # What this package must NOT do
//
//   - Render UI or interpret backend HTTP statuses.
//   - Mutate the session beyond the invalid-token clear.
//   - Trust a token it merely decoded (see the token package trust model).
package guard

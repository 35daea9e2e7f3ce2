package gymgate

import "errors"

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the backend has no user for the
	// requested id or email.
	ErrUserNotFound = errors.New("user not found")
	// ErrBackendUnavailable wraps transport failures and unexpected
	// statuses from the backend collaborator.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrSnapshotCorrupt marks a persisted identity snapshot that failed
	// to parse. The store recovers by clearing both persisted keys.
	ErrSnapshotCorrupt = errors.New("identity snapshot corrupt")
	// ErrRoleInvalid is returned for role values outside the closed
	// ADMIN/CLIENT enumeration.
	ErrRoleInvalid = errors.New("invalid role")
	// ErrNotLoggedIn is returned by operations that need a current
	// identity when the session is empty.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrEngineNotReady is returned when an Engine is used before Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

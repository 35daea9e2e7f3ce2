package gymgate

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Role is the closed set of principal roles issued by the backend. Every
// authenticated identity carries exactly one role, and the role is
// immutable for the lifetime of a session; changing it requires
// re-authentication.
type Role string

const (
	// RoleAdmin grants access to the administrative routes.
	RoleAdmin Role = "ADMIN"
	// RoleClient is the default member role.
	RoleClient Role = "CLIENT"
)

// ParseRole maps a raw claim or payload value onto the closed role set.
// Unknown values are rejected rather than defaulted: a role the guard does
// not know can never satisfy a route requirement.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleClient:
		return RoleClient, nil
	default:
		return "", ErrRoleInvalid
	}
}

// Valid reports whether r is one of the closed enumeration values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// MembershipStatus mirrors the backend's membership lifecycle field. It is
// carried opaquely through the identity snapshot; the guard never consumes
// it.
type MembershipStatus string

const (
	// MembershipActive is an active, paid-up membership.
	MembershipActive MembershipStatus = "ACTIVE"
	// MembershipInactive is a lapsed membership.
	MembershipInactive MembershipStatus = "INACTIVE"
	// MembershipPending is a membership awaiting activation.
	MembershipPending MembershipStatus = "PENDING"
)

// Identity is the decoded principal: the process-local answer to "who is
// logged in right now". Everything except ID and Role is a display
// attribute owned by the backend and treated as opaque payload here.
//
// The JSON field names are the persisted snapshot contract and match the
// backend's user representation; they must not be renamed.
type Identity struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     int64  `json:"phone,omitempty"`
	Role      Role   `json:"role"`
	Photo     string `json:"photo,omitempty"`

	MembershipType   string           `json:"membershipType,omitempty"`
	MembershipStatus MembershipStatus `json:"membershipStatus,omitempty"`
	StartDate        *time.Time       `json:"startDate,omitempty"`
	EndDate          *time.Time       `json:"endDate,omitempty"`
	OfferID          int64            `json:"offerId,omitempty"`
}

// Clone returns a deep copy. The store hands out clones so subscribers can
// never mutate the current identity in place.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	out := *id
	if id.StartDate != nil {
		start := *id.StartDate
		out.StartDate = &start
	}
	if id.EndDate != nil {
		end := *id.EndDate
		out.EndDate = &end
	}
	return &out
}

// EncodeIdentity serializes an identity snapshot for persistence under the
// currentUser storage key.
func EncodeIdentity(id *Identity) (string, error) {
	if id == nil {
		return "", ErrSnapshotCorrupt
	}
	data, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeIdentity parses a persisted identity snapshot. Any parse failure,
// and any snapshot whose role falls outside the closed enumeration, is
// reported as [ErrSnapshotCorrupt]: corrupt state is treated as logged
// out, never partially trusted.
func DecodeIdentity(raw string) (*Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrSnapshotCorrupt
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, ErrSnapshotCorrupt
	}
	if !id.Role.Valid() {
		return nil, ErrSnapshotCorrupt
	}
	return &id, nil
}

// GuardOutcome is the terminal state of one route access evaluation. Every
// evaluation reaches exactly one outcome; there is no retry and no partial
// result.
type GuardOutcome uint8

const (
	// GuardAllowed lets the navigation proceed.
	GuardAllowed GuardOutcome = iota
	// GuardDeniedNoToken denies because no bearer token is present.
	GuardDeniedNoToken
	// GuardDeniedInvalidToken denies because the token failed to decode.
	GuardDeniedInvalidToken
	// GuardDeniedWrongRole denies because the identity's role does not
	// match the destination requirement.
	GuardDeniedWrongRole
)

// String returns the audit and metrics label for the outcome.
func (o GuardOutcome) String() string {
	switch o {
	case GuardAllowed:
		return "allowed"
	case GuardDeniedNoToken:
		return "denied_no_token"
	case GuardDeniedInvalidToken:
		return "denied_invalid_token"
	case GuardDeniedWrongRole:
		return "denied_wrong_role"
	default:
		return "unknown"
	}
}

// SignupInput is the account-creation payload forwarded to the backend
// signup endpoint. Password handling stays on the backend; the client never
// hashes or stores it.
type SignupInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"pwd"`
	Phone     int64  `json:"phone,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

// BackendClient is the consumed REST collaborator interface. The backend
// package provides the HTTP implementation; tests substitute stubs. The
// Engine calls it only to exchange credentials and populate the current
// identity.
type BackendClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	UserByEmail(ctx context.Context, email string) (*Identity, error)
	UserByID(ctx context.Context, id int64) (*Identity, error)
	Signup(ctx context.Context, input SignupInput) error
}

package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken marks a bearer string that is not a parseable token.
// Callers must treat it as "unauthenticated", never as a crash: a token is
// either fully well-formed or absent, there is no partial trust.
var ErrMalformedToken = errors.New("malformed token")

// Claims is the structured record carried in a token's payload segment.
// Unknown payload fields are ignored; the zero value of a field means the
// claim was absent.
type Claims struct {
	Role      string      `json:"role,omitempty"`
	UserID    json.Number `json:"userId,omitempty"`
	FirstName string      `json:"firstName,omitempty"`
	LastName  string      `json:"lastName,omitempty"`
	Email     string      `json:"email,omitempty"`

	jwt.RegisteredClaims
}

// SubjectID returns the principal identifier: the userId claim when
// present, otherwise the registered sub claim. Empty means the token names
// no subject.
func (c *Claims) SubjectID() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID.String()
	}
	return c.Subject
}

// padding tolerated because upstream issuers are inconsistent about it
var segments = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode splits a bearer string on ".", base64url-decodes the payload
// segment, and parses it into [Claims]. The signature segment is never
// inspected. Tokens with fewer than two segments, undecodable payloads, or
// non-object payloads fail with [ErrMalformedToken].
func Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segments.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload segment: %v", ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload json: %v", ErrMalformedToken, err)
	}

	return &claims, nil
}

package token

import (
	"encoding/base64"
	"errors"
	"testing"
)

func encodeSegment(t *testing.T, payload string) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func TestDecodeExtractsClaims(t *testing.T) {
	raw := "header." + encodeSegment(t, `{"role":"ADMIN","userId":42,"email":"ada@memberly.dev"}`) + ".sig"

	claims, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.Role != "ADMIN" {
		t.Fatalf("role = %q, want ADMIN", claims.Role)
	}
	if got := claims.SubjectID(); got != "42" {
		t.Fatalf("subject id = %q, want 42", got)
	}
	if claims.Email != "ada@memberly.dev" {
		t.Fatalf("email = %q", claims.Email)
	}
}

func TestDecodeAcceptsPaddedSegment(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"role":"CLIENT","userId":7}`))
	claims, err := Decode("header." + payload + ".sig")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.Role != "CLIENT" {
		t.Fatalf("role = %q, want CLIENT", claims.Role)
	}
}

func TestDecodeKnownAdminToken(t *testing.T) {
	// Payload segment decodes to {"role":"ADMIN","userId":1}.
	claims, err := Decode("header.eyJyb2xlIjoiQURNSU4iLCJ1c2VySWQiOjF9.sig")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.Role != "ADMIN" || claims.SubjectID() != "1" {
		t.Fatalf("claims = role %q subject %q", claims.Role, claims.SubjectID())
	}
}

func TestDecodeIgnoresSignatureAndHeader(t *testing.T) {
	payload := encodeSegment(t, `{"role":"CLIENT"}`)

	// Identical payloads under different headers and signatures decode
	// to the same claims.
	a, err := Decode("garbage-header." + payload + ".garbage-sig")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	b, err := Decode("other." + payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if a.Role != b.Role {
		t.Fatalf("roles differ: %q vs %q", a.Role, b.Role)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"single segment", "onlyonepart"},
		{"payload not base64", "header.%%%%.sig"},
		{"payload not json", "header." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"},
		{"payload is json array", "header." + base64.RawURLEncoding.EncodeToString([]byte("[1,2]")) + ".sig"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.raw); !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestSubjectIDFallsBackToSubject(t *testing.T) {
	claims, err := Decode("h." + encodeSegment(t, `{"role":"CLIENT","sub":"user-9"}`) + ".s")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := claims.SubjectID(); got != "user-9" {
		t.Fatalf("subject id = %q, want user-9", got)
	}
}

// FuzzDecode exercises the payload decoder with arbitrary strings.
// Goal: no panics; invalid inputs must be rejected with errors.
func FuzzDecode(f *testing.F) {
	f.Add("header.eyJyb2xlIjoiQURNSU4iLCJ1c2VySWQiOjF9.sig")
	f.Add("onlyonepart")
	f.Add("")
	f.Add("a.b.c")
	f.Add("..")
	f.Add("h." + base64.RawURLEncoding.EncodeToString([]byte(`{"role":"CLIENT"}`)))

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := Decode(input)
		if err != nil {
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("unexpected error type: %v", err)
			}
			return
		}
		if claims == nil {
			t.Fatal("Decode returned nil claims without error")
		}
	})
}

package validator

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ValidatedClaims is what ValidateToken returns for a Valid token and what
// the middleware stores in the request context.
type ValidatedClaims struct {
	RegisteredClaims RegisteredClaims
	PrivateClaims    map[string]any
}

// RegisteredClaims represents public claim
// values (as specified in RFC 7519).
type RegisteredClaims struct {
	Issuer    string   `json:"iss,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	Expiry    int64    `json:"exp,omitempty"`
	NotBefore int64    `json:"nbf,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	ID        string   `json:"jti,omitempty"`
}

func newValidatedClaims(token jwt.Token) *ValidatedClaims {
	return &ValidatedClaims{
		RegisteredClaims: RegisteredClaims{
			Issuer:    token.Issuer(),
			Subject:   token.Subject(),
			Audience:  token.Audience(),
			Expiry:    unixTime(token.Expiration()),
			NotBefore: unixTime(token.NotBefore()),
			IssuedAt:  unixTime(token.IssuedAt()),
			ID:        token.JwtID(),
		},
		PrivateClaims: privateClaims(token),
	}
}

// privateClaims copies the non-registered claims, returning nil when there
// are none.
func privateClaims(token jwt.Token) map[string]any {
	claims := token.PrivateClaims()
	if len(claims) == 0 {
		return nil
	}
	copied := make(map[string]any, len(claims))
	for k, v := range claims {
		copied[k] = v
	}
	return copied
}

func unixTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Activation keys are issued by the backend as JWTs. Issuance and
// verification are the backend's business; the console only reads the
// claims to tell the operator what key it holds and whether it has
// already expired, before wasting a round trip.

// ErrMalformedKey means the activation key is not a parseable JWT
var ErrMalformedKey = errors.New("activation key is not a valid token")

// KeyClaims are the claims the backend embeds in an activation key
type KeyClaims struct {
	jwt.RegisteredClaims
	Tenant string `json:"tenant,omitempty"`
	Plan   string `json:"plan,omitempty"`
}

// KeyInfo is what the console surfaces about an activation key
type KeyInfo struct {
	Subject   string     `json:"subject"`
	Tenant    string     `json:"tenant,omitempty"`
	Plan      string     `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

// InspectKey decodes the key's claims without verifying the signature;
// only the backend holds the signing secret
func InspectKey(key string) (*KeyInfo, error) {
	parser := jwt.NewParser()

	var claims KeyClaims
	if _, _, err := parser.ParseUnverified(key, &claims); err != nil {
		return nil, ErrMalformedKey
	}

	info := &KeyInfo{
		Subject: claims.Subject,
		Tenant:  claims.Tenant,
		Plan:    claims.Plan,
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		info.ExpiresAt = &t
		info.Expired = time.Now().After(t)
	}
	return info, nil
}

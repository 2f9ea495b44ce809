package token

import "github.com/golang-jwt/jwt/v5"

// AssertionClaims is the claim set of a JWT-bearer assertion. The audience is
// a single string rather than jwt.ClaimStrings: Google's token endpoint
// expects "aud" as a plain string.
type AssertionClaims struct {
	Issuer    string           `json:"iss"`
	Audience  string           `json:"aud"`
	Scope     string           `json:"scope"`
	IssuedAt  *jwt.NumericDate `json:"iat"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
}

var _ jwt.Claims = AssertionClaims{}

func (c AssertionClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }
func (c AssertionClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c AssertionClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c AssertionClaims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c AssertionClaims) GetSubject() (string, error)                  { return "", nil }
func (c AssertionClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}

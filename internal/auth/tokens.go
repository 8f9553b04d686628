package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the verified content of an access token.
type Claims struct {
	UserID    int64
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Issuer mints HS256 access tokens.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

// Issue returns a signed token for the user plus its claims.
func (i Issuer) Issue(userID int64, role string) (string, Claims, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(i.TTL),
	}
	tok, err := jwt.NewBuilder().
		Subject(strconv.FormatInt(userID, 10)).
		JwtID(claims.TokenID).
		IssuedAt(now).
		Expiration(claims.ExpiresAt).
		Claim("role", role).
		Build()
	if err != nil {
		return "", Claims{}, fmt.Errorf("build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.Secret))
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign token: %w", err)
	}
	return string(signed), claims, nil
}

// Validator verifies tokens and rejects revoked ones.
type Validator struct {
	Secret   []byte
	Denylist *Denylist
}

// Parse verifies signature and expiry and checks the denylist.
func (v Validator) Parse(ctx context.Context, raw string) (Claims, error) {
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, v.Secret), jwt.WithValidate(true))
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	userID, err := strconv.ParseInt(tok.Subject(), 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("token subject: %w", err)
	}
	role, _ := tok.Get("role")
	roleStr, _ := role.(string)
	claims := Claims{
		UserID:    userID,
		Role:      roleStr,
		TokenID:   tok.JwtID(),
		ExpiresAt: tok.Expiration(),
	}
	if v.Denylist != nil {
		revoked, err := v.Denylist.Contains(ctx, claims.TokenID)
		if err != nil {
			return Claims{}, fmt.Errorf("check denylist: %w", err)
		}
		if revoked {
			return Claims{}, fmt.Errorf("token revoked")
		}
	}
	return claims, nil
}

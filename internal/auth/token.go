package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid player token")

// TokenTTL is how long a player token stays valid.
const TokenTTL = 12 * time.Hour

// Claims binds a player to one room.
type Claims struct {
	Room string `json:"room"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// PlayerID returns the subject claim.
func (c *Claims) PlayerID() string { return c.Subject }

// Issuer signs player tokens with a shared HS256 secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Secret exposes the signing key for the fiber jwt middleware.
func (i *Issuer) Secret() []byte { return i.secret }

// Issue returns a signed token for playerID in roomID.
func (i *Issuer) Issue(roomID, playerID, name string) (string, error) {
	now := i.now()
	claims := Claims{
		Room: roomID,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

// Parse verifies raw and returns its claims.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Room == "" {
		return nil, fmt.Errorf("%w: missing subject or room", ErrInvalidToken)
	}
	return claims, nil
}

// FromToken extracts claims from a token the jwt middleware already
// verified. It re-reads them as Claims when the middleware stored MapClaims.
func FromToken(t *jwt.Token) (*Claims, error) {
	if t == nil {
		return nil, ErrInvalidToken
	}
	switch c := t.Claims.(type) {
	case *Claims:
		return c, nil
	case jwt.MapClaims:
		sub, _ := c.GetSubject()
		room, _ := c["room"].(string)
		name, _ := c["name"].(string)
		if sub == "" || room == "" {
			return nil, fmt.Errorf("%w: missing subject or room", ErrInvalidToken)
		}
		return &Claims{Room: room, Name: name, RegisteredClaims: jwt.RegisteredClaims{Subject: sub}}, nil
	}
	return nil, ErrInvalidToken
}

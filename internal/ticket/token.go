package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ErrInvalidToken is returned for a token that is malformed, expired or
// signed with another secret.
var ErrInvalidToken = errors.New("invalid ticket token")

// Claims are carried by a ticket token.  Subject is the transaction id.
type Claims struct {
	ClientID   string   `json:"cid"`
	ShowtimeID string   `json:"sid"`
	Seats      []string `json:"seats"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 ticket tokens.
type Signer struct {
	secret []byte
	// Grace is how long after the showtime starts the token stays valid.
	Grace time.Duration
	now   func() time.Time
}

// NewSigner returns a Signer using secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), Grace: 6 * time.Hour, now: time.Now}
}

// Issue signs a token for rec owned by clientID.  The token expires Grace
// after the showtime start; when the start cannot be determined it expires
// Grace from now.
func (s *Signer) Issue(clientID string, rec model.BookingRecord, loc *time.Location) (string, error) {
	now := s.now().UTC()
	exp := now.Add(s.Grace)
	if start, ok := rec.Showtime.StartsAt(loc); ok {
		exp = start.Add(s.Grace)
	}
	claims := Claims{
		ClientID:   clientID,
		ShowtimeID: rec.Showtime.ID,
		Seats:      rec.SeatIDs(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rec.TransactionID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("ticket: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
func (s *Signer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

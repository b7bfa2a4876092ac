// Package auth issues and verifies seat tokens. A seat token proves its
// bearer plays a given player slot in a given game.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
)

const defaultIssuer = "megapoly"

// Config holds configuration for the token issuer
type Config struct {
	// Secret signs tokens with HS256
	Secret []byte

	// Issuer is stamped into and required from every token
	Issuer string

	// TTL bounds token lifetime; zero means tokens do not expire
	TTL time.Duration

	Clock clock.Clock
}

// Claims identifies a seat
type Claims struct {
	GameID   string
	PlayerID int
}

type seatClaims struct {
	jwt.RegisteredClaims
	GameID   string `json:"gid"`
	PlayerID int    `json:"pid"`
}

// Issuer signs and verifies seat tokens
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

// New creates a token issuer
func New(cfg *Config) (*Issuer, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret cannot be empty")
	}
	if cfg.Clock == nil {
		return nil, errors.New("clock cannot be nil")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}

	return &Issuer{
		secret: cfg.Secret,
		issuer: issuer,
		ttl:    cfg.TTL,
		clock:  cfg.Clock,
	}, nil
}

// Issue signs a token for one seat
func (i *Issuer) Issue(gameID string, playerID int) (string, error) {
	now := i.clock.Now()
	claims := seatClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   i.issuer,
			Subject:  gameID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		GameID:   gameID,
		PlayerID: playerID,
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Parse verifies a token and returns its seat. Every failure is reported
// as UNAUTHORIZED.
func (i *Issuer) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "seat token is required")
	}

	var parsed seatClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.CodeUnauthorized, "seat token is expired", err)
		}
		return nil, apperr.Wrap(apperr.CodeUnauthorized, "seat token is invalid", err)
	}
	if parsed.GameID == "" || parsed.PlayerID <= 0 {
		return nil, apperr.New(apperr.CodeUnauthorized, "seat token has no seat")
	}

	return &Claims{GameID: parsed.GameID, PlayerID: parsed.PlayerID}, nil
}

// FromBearer extracts the token from an Authorization header value
func FromBearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

package uuid

import (
	"strings"

	"github.com/google/uuid"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_uuid.go github.com/KirkDiggler/megapoly/internal/common/uuid UUID

// UUID generates identifiers for games, cards and log entries.
type UUID interface {
	NewUUID() string
}

// DefaultUUID implements the UUID interface using the uuid package
type DefaultUUID struct{}

func New() *DefaultUUID {
	return &DefaultUUID{}
}

// NewUUID returns a new UUID
func (d *DefaultUUID) NewUUID() string {
	return uuid.New().String()
}

// ShortCode derives a human-shareable code from a generated UUID: the
// first n hex characters, upper-cased, with dashes removed.
func ShortCode(gen UUID, n int) string {
	code := strings.ToUpper(strings.ReplaceAll(gen.NewUUID(), "-", ""))
	if n > 0 && len(code) > n {
		code = code[:n]
	}
	return code
}

package dice

//go:generate mockgen -package=mocks -destination=mocks/mock_roller.go github.com/KirkDiggler/megapoly/internal/dice Roller

import (
	"math/rand"
	"sync"
	"time"
)

// Roller is the randomness source for dice, card draws and random picks.
type Roller interface {
	// Roll returns a uniform value in [1, sides]
	Roll(sides int) int
	// Intn returns a uniform value in [0, n)
	Intn(n int) int
}

// SeededRoller is a Roller backed by math/rand
type SeededRoller struct {
	mu     sync.Mutex
	random *rand.Rand
}

// Config for dice roller
type Config struct {
	// Optional seed for deterministic replay
	Seed int64
}

// New creates a new dice roller
func New(cfg *Config) *SeededRoller {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	return &SeededRoller{
		random: rand.New(rand.NewSource(seed)),
	}
}

// Roll generates a random dice roll with the specified number of sides
func (r *SeededRoller) Roll(sides int) int {
	if sides < 1 {
		sides = 6 // Default to 6-sided die
	}
	return r.Intn(sides) + 1
}

// Intn returns a random index in [0, n); n <= 0 yields 0
func (r *SeededRoller) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.random.Intn(n)
}

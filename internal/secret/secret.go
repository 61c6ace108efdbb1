package secret

import (
	"fmt"
	"math/rand"
	"time"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_generator.go github.com/kdurkin/digitduel/internal/secret Generator

// Generator produces secret numbers for a session
type Generator interface {
	// Generate returns a uniform random digit string of the given length
	Generate(digits int) (string, error)
}

// Config for the secret generator
type Config struct {
	// Optional seed for testing
	Seed int64
}

// generator implements Generator using math/rand
type generator struct {
	random *rand.Rand
}

// New creates a new secret number generator.
//
// Leading zeros are allowed: every position is drawn uniformly from
// 0-9, matching the multiplayer rules (the reverse single-player mode
// forbids leading zeros; multiplayer never did).
func New(cfg *Config) *generator {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}

	return &generator{
		random: rand.New(rand.NewSource(seed)),
	}
}

// Generate returns a random digit string of the requested length
func (g *generator) Generate(digits int) (string, error) {
	if digits < 1 {
		return "", fmt.Errorf("digit length must be positive, got %d", digits)
	}

	buf := make([]byte, digits)
	for i := range buf {
		buf[i] = byte('0' + g.random.Intn(10))
	}

	return string(buf), nil
}

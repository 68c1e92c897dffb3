// Package dice provides the random source for the game engine. A fixed seed
// makes every roll reproducible, which deterministic tests rely on.
package dice

import (
	"math/rand"
	"time"
)

// Sides is the number of faces on a standard game die.
const Sides = 6

// Config holds the options for creating a Roller.
type Config struct {
	// Seed fixes the random sequence. Zero means seed from the clock.
	Seed int64
}

// Roller produces die rolls from its own random source.
type Roller struct {
	random *rand.Rand
}

// New creates a Roller. Pass a Config with a non-zero Seed for reproducible
// sequences; a nil Config seeds from the current time.
func New(cfg *Config) *Roller {
	seed := time.Now().UnixNano()
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	}
	return &Roller{
		random: rand.New(rand.NewSource(seed)),
	}
}

// Roll returns a uniform value in [1, sides].
func (r *Roller) Roll(sides int) int {
	return r.random.Intn(sides) + 1
}

// Pair rolls two six-sided dice.
func (r *Roller) Pair() (int, int) {
	return r.Roll(Sides), r.Roll(Sides)
}

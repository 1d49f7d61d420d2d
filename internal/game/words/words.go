// Package words generates the per-room word board from a configurable
// word pool.
package words

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/masterminds-game/masterminds/internal/game/random"
	"github.com/masterminds-game/masterminds/internal/game/state"
)

// Board layout. The first team gets one extra word, plus a single
// assassin word that ends the game when revealed.
const (
	BoardSize     = 25
	GreenWords    = 9
	PurpleWords   = 8
	NeutralWords  = 7
	AssassinWords = 1
)

// poolFile is the YAML shape of an external word pool.
type poolFile struct {
	Words []string `yaml:"words"`
}

// LoadPool reads a word pool from a YAML file.
//
// Precondition: path must name a readable YAML file.
// Postcondition: Returns at least BoardSize distinct words or a non-nil error.
func LoadPool(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading word pool: %w", err)
	}

	var pf poolFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing word pool: %w", err)
	}

	seen := make(map[string]bool, len(pf.Words))
	pool := make([]string, 0, len(pf.Words))
	for _, w := range pf.Words {
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		pool = append(pool, w)
	}

	if len(pool) < BoardSize {
		return nil, fmt.Errorf("word pool has %d usable words, need at least %d", len(pool), BoardSize)
	}
	return pool, nil
}

// Generator draws word boards from a fixed pool.
type Generator struct {
	pool []string
	src  random.Source
}

// NewGenerator creates a Generator over the given pool.
//
// Precondition: pool must hold at least BoardSize distinct words; src
// must be non-nil.
func NewGenerator(pool []string, src random.Source) (*Generator, error) {
	if len(pool) < BoardSize {
		return nil, fmt.Errorf("word pool has %d words, need at least %d", len(pool), BoardSize)
	}
	return &Generator{pool: pool, src: src}, nil
}

// Generate draws BoardSize words without replacement and assigns owners.
//
// Postcondition: The returned map has exactly BoardSize entries with
// GreenWords green, PurpleWords purple, NeutralWords neutral, and
// AssassinWords assassin owners, all unrevealed.
func (g *Generator) Generate() map[string]state.Word {
	// Partial Fisher-Yates over a copy: the first BoardSize slots end up
	// holding the draw.
	deck := make([]string, len(g.pool))
	copy(deck, g.pool)
	for i := 0; i < BoardSize; i++ {
		j := i + g.src.Intn(len(deck)-i)
		deck[i], deck[j] = deck[j], deck[i]
	}

	owners := make([]state.Owner, 0, BoardSize)
	for i := 0; i < GreenWords; i++ {
		owners = append(owners, state.OwnerGreen)
	}
	for i := 0; i < PurpleWords; i++ {
		owners = append(owners, state.OwnerPurple)
	}
	for i := 0; i < NeutralWords; i++ {
		owners = append(owners, state.OwnerNeutral)
	}
	for i := 0; i < AssassinWords; i++ {
		owners = append(owners, state.OwnerAssassin)
	}
	for i := range owners {
		j := i + g.src.Intn(len(owners)-i)
		owners[i], owners[j] = owners[j], owners[i]
	}

	board := make(map[string]state.Word, BoardSize)
	for i := 0; i < BoardSize; i++ {
		board[deck[i]] = state.Word{
			Word:  deck[i],
			Owner: owners[i],
		}
	}
	return board
}

// DefaultPool returns the built-in word pool used when no external pool
// file is configured.
func DefaultPool() []string {
	return []string{
		"anchor", "apple", "arrow", "bridge", "button", "candle", "castle",
		"cloud", "compass", "crown", "dragon", "engine", "feather", "forest",
		"garden", "glacier", "hammer", "harbor", "island", "jungle", "kettle",
		"ladder", "lantern", "magnet", "marble", "mirror", "needle", "ocean",
		"orange", "palace", "pepper", "piano", "pirate", "planet", "pocket",
		"ribbon", "river", "rocket", "saddle", "shadow", "spider", "spring",
		"statue", "temple", "thunder", "ticket", "tunnel", "violin", "whistle",
		"window",
	}
}

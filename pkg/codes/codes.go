// Package codes generates human-shareable join codes.
package codes

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Generator produces join codes. Codes are short human-readable strings;
// uniqueness among open games is enforced by the repository at creation
// time, with the engine retrying on collision.
type Generator interface {
	Generate() string
}

// WordPairGenerator produces codes like "otter-canyon": two distinct
// words from a fixed list joined by a hyphen, always lowercase.
type WordPairGenerator struct {
	lock sync.Mutex
	rng  *rand.Rand
}

// NewWordPairGenerator creates a generator. A nil rng falls back to a
// time-seeded source; tests pass a seeded one for determinism.
func NewWordPairGenerator(rng *rand.Rand) *WordPairGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &WordPairGenerator{
		rng: rng,
	}
}

func (g *WordPairGenerator) Generate() string {
	g.lock.Lock()
	defer g.lock.Unlock()

	first := g.rng.Intn(len(words))
	second := g.rng.Intn(len(words) - 1)
	if second >= first {
		second++
	}
	return fmt.Sprintf("%s-%s", words[first], words[second])
}

var words = []string{
	"acorn", "amber", "anchor", "apple", "arrow", "aspen",
	"badger", "basil", "beacon", "birch", "bison", "breeze",
	"canyon", "cedar", "cinder", "cliff", "clover", "comet",
	"coral", "crane", "cricket", "delta", "drift", "ember",
	"falcon", "fern", "finch", "fjord", "flint", "fox",
	"garnet", "glacier", "grove", "harbor", "hawk", "hazel",
	"heron", "iris", "ivory", "jasper", "juniper", "kestrel",
	"lagoon", "lantern", "larch", "lark", "lichen", "lily",
	"maple", "marsh", "meadow", "mesa", "moss", "nettle",
	"north", "oak", "ocean", "onyx", "orchid", "osprey",
	"otter", "pebble", "pine", "plume", "prairie", "quartz",
	"quill", "raven", "reef", "ridge", "river", "robin",
	"sage", "sequoia", "shale", "sparrow", "spruce", "summit",
	"thistle", "thorn", "tide", "timber", "tundra", "umber",
	"valley", "vapor", "walnut", "willow", "wren", "zephyr",
}

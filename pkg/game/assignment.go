package game

import (
	"math/rand"

	"github.com/gametag/assassin/pkg/game/types"
)

// AssignTargets builds the target chain for a set of players: a mapping
// where every player hunts exactly one other player, and following the
// chain from any player visits every player exactly once before returning
// to the start. The cycle is drawn uniformly at random from all cyclic
// arrangements of the set.
//
// A single-player set maps the player to itself. Roster size policy is
// the engine's concern, not this function's.
func AssignTargets(players []types.PlayerID, rng *rand.Rand) map[types.PlayerID]types.PlayerID {
	order := make([]types.PlayerID, len(players))
	copy(order, players)
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	targets := make(map[types.PlayerID]types.PlayerID, len(order))
	for i, player := range order {
		targets[player] = order[(i+1)%len(order)]
	}
	return targets
}

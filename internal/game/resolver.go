package game

import (
	"fmt"
	"math/rand/v2"

	"github.com/lox/pokerroom/internal/deck"
	"github.com/lox/pokerroom/internal/evaluator"
)

// Resolution names the winner of a showdown
type Resolution struct {
	Winner *Player
	Hand   string // hand class, empty when hands are not ranked
}

// Resolver picks the winner of a showdown from the players still in the
// round. contenders is never empty.
type Resolver interface {
	Resolve(contenders []*Player, community []deck.Card, rng *rand.Rand) Resolution
}

// Resolver names accepted by ResolverByName
const (
	ResolverRandom = "random"
	ResolverRanked = "ranked"
)

// ResolverByName returns the resolver registered under name
func ResolverByName(name string) (Resolver, error) {
	switch name {
	case "", ResolverRandom:
		return RandomResolver{}, nil
	case ResolverRanked:
		return RankedResolver{}, nil
	default:
		return nil, fmt.Errorf("unknown resolver %q", name)
	}
}

// RandomResolver picks a contender uniformly at random, ignoring cards
type RandomResolver struct{}

func (RandomResolver) Resolve(contenders []*Player, _ []deck.Card, rng *rand.Rand) Resolution {
	return Resolution{Winner: contenders[rng.IntN(len(contenders))]}
}

// RankedResolver awards the pot to the best hand. Ties are broken at
// random so exactly one player is paid.
type RankedResolver struct{}

func (RankedResolver) Resolve(contenders []*Player, community []deck.Card, rng *rand.Rand) Resolution {
	var best []*Player
	var bestRank evaluator.HandRank
	for _, p := range contenders {
		cards := make([]deck.Card, 0, len(p.Hand)+len(community))
		cards = append(cards, p.Hand...)
		cards = append(cards, community...)
		rank, err := evaluator.Evaluate(cards)
		if err != nil {
			continue
		}
		switch rank.Compare(bestRank) {
		case 1:
			best, bestRank = []*Player{p}, rank
		case 0:
			best = append(best, p)
		}
	}
	if len(best) == 0 {
		// nobody holds a complete hand
		return RandomResolver{}.Resolve(contenders, community, rng)
	}
	return Resolution{
		Winner: best[rng.IntN(len(best))],
		Hand:   bestRank.String(),
	}
}

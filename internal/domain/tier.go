package domain

import "sort"

// Tier ranking for the VIP program. The rank is the sole ordering key and is
// INVERTED relative to intuition: rank 1 is the highest-value tier. Every
// comparison in the transition engine goes through RankOf, so the inversion
// lives in exactly one place.

// UnknownTierRank is assigned to tier names not in the static table.
// It is deliberately large so unknown segments sort last and never
// collide with a real rank.
const UnknownTierRank = 99

// TierRef is a resolved tier: display name plus its rank.
type TierRef struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// tierRanks is the static name→rank table. Lower rank = higher value.
// The overflow segments (Potential, Overflow) rank after Regular.
var tierRanks = map[string]int{
	"Super VIP": 1,
	"VIP":       2,
	"Tier4":     3,
	"Tier3":     4,
	"Tier2":     5,
	"Tier1":     6,
	"Regular":   7,
	"Potential": 8,
	"Overflow":  9,
}

// RankOf resolves a tier name to its rank. Unknown names get UnknownTierRank.
func RankOf(name string) int {
	if r, ok := tierRanks[name]; ok {
		return r
	}
	return UnknownTierRank
}

// TierByName resolves a tier name to a TierRef.
func TierByName(name string) TierRef {
	return TierRef{Name: name, Rank: RankOf(name)}
}

// KnownTiers returns all configured tiers sorted ascending by rank.
// Used to populate the dashboard tier slicer.
func KnownTiers() []TierRef {
	tiers := make([]TierRef, 0, len(tierRanks))
	for name, rank := range tierRanks {
		tiers = append(tiers, TierRef{Name: name, Rank: rank})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Rank < tiers[j].Rank })
	return tiers
}

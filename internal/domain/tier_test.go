package domain_test

import (
	"testing"

	"github.com/boddenberg/vip-insights-bfa-go/internal/domain"
)

func TestRankOf(t *testing.T) {
	if got := domain.RankOf("Super VIP"); got != 1 {
		t.Errorf("Super VIP: expected rank 1, got %d", got)
	}
	if got := domain.RankOf("Overflow"); got != 9 {
		t.Errorf("Overflow: expected rank 9, got %d", got)
	}
	if got := domain.RankOf("No Such Tier"); got != domain.UnknownTierRank {
		t.Errorf("unknown tier: expected sentinel %d, got %d", domain.UnknownTierRank, got)
	}
	if got := domain.RankOf(""); got != domain.UnknownTierRank {
		t.Errorf("empty name: expected sentinel %d, got %d", domain.UnknownTierRank, got)
	}
}

func TestKnownTiersOrdering(t *testing.T) {
	tiers := domain.KnownTiers()
	if len(tiers) != 9 {
		t.Fatalf("expected 9 tiers, got %d", len(tiers))
	}
	for i := 1; i < len(tiers); i++ {
		if tiers[i-1].Rank >= tiers[i].Rank {
			t.Errorf("tier order not strictly ascending at %d: %+v", i, tiers)
		}
	}
	if tiers[0].Name != "Super VIP" || tiers[len(tiers)-1].Name != "Overflow" {
		t.Errorf("expected Super VIP first and Overflow last, got %s / %s",
			tiers[0].Name, tiers[len(tiers)-1].Name)
	}
}

package quarter

import (
	"testing"

	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

func TestComputeTier(t *testing.T) {
	cfg := rules.Default()
	tests := []struct {
		name     string
		money    int64
		starting int64
		unlocked bool
		want     Tier
	}{
		{name: "negative money fires", money: -500, starting: 10000, want: TierFired},
		{name: "zero money fires", money: 0, starting: 10000, want: TierFired},
		{name: "below starting is under review", money: 9999, starting: 10000, want: TierUnderReview},
		{name: "exactly starting is employed", money: 10000, starting: 10000, want: TierEmployed},
		{name: "just under double is employed", money: 19999, starting: 10000, want: TierEmployed},
		{name: "exactly double is promotion", money: 20000, starting: 10000, want: TierPromotion},
		{name: "just under triple is promotion", money: 29999, starting: 10000, unlocked: true, want: TierPromotion},
		{name: "exactly triple unlocked is legendary", money: 30000, starting: 10000, unlocked: true, want: TierLegendary},
		{name: "exactly triple locked caps at promotion", money: 30000, starting: 10000, want: TierPromotion},
		{name: "far past triple locked still caps", money: 45000, starting: 10000, want: TierPromotion},
		{name: "far past triple unlocked is legendary", money: 45000, starting: 10000, unlocked: true, want: TierLegendary},
		{name: "odd starting money boundary", money: 31000, starting: 15500, want: TierPromotion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeTier(tt.money, tt.starting, tt.unlocked, cfg)
			if got != tt.want {
				t.Errorf("computeTier(%d, %d, %t) = %v, want %v", tt.money, tt.starting, tt.unlocked, got, tt.want)
			}
		})
	}
}

func TestTierPersistable(t *testing.T) {
	tests := []struct {
		tier Tier
		want bool
	}{
		{tier: TierFired, want: false},
		{tier: TierUnderReview, want: false},
		{tier: TierEmployed, want: false},
		{tier: TierPromotion, want: true},
		{tier: TierLegendary, want: true},
	}
	for _, tt := range tests {
		if got := tt.tier.Persistable(); got != tt.want {
			t.Errorf("%v.Persistable() = %t, want %t", tt.tier, got, tt.want)
		}
	}
}

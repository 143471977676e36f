package quarter

import (
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/client"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"
)

// Phase is the game's current phase.
func (g *Game) Phase() Phase { return g.phase }

// Complete reports whether the game reached quarter end.
func (g *Game) Complete() bool { return g.phase == PhaseQuarterEnd }

// Money is the current balance. It can run negative mid-game.
func (g *Game) Money() int64 { return g.money }

// StartingMoney is the opening balance the tier ladder measures against.
func (g *Game) StartingMoney() int64 { return g.startingMoney }

// BudgetScale is the multiplier applied to client budgets.
func (g *Game) BudgetScale() float64 { return g.budgetScale }

// Sheet is the character the game was opened with.
func (g *Game) Sheet() character.Sheet { return g.sheet }

// Territory is the assigned region, unspecified before assignment.
func (g *Game) Territory() client.Territory { return g.territory }

// KeyRoll is the large audit die drawn at assignment.
func (g *Game) KeyRoll() int { return g.keyRoll }

// Strategy is the VP-meeting choice, unspecified before the meeting.
func (g *Game) Strategy() Strategy { return g.strategy }

// LegendaryUnlocked reports whether the all-in strategy was taken.
func (g *Game) LegendaryUnlocked() bool { return g.legendaryUnlocked }

// SpiritUsed reports whether the one-shot spirit ability is spent.
func (g *Game) SpiritUsed() bool { return g.spiritUsed }

// Rolls is the append-only audit log of every derived die.
func (g *Game) Rolls() []fairroll.RollRecord { return g.recorder.Log() }

// SeedPairs lists the supplied entropy bundles in order.
func (g *Game) SeedPairs() []fairroll.SeedPair {
	out := make([]fairroll.SeedPair, len(g.pairs))
	copy(out, g.pairs)
	return out
}

// Choices lists the recorded choice tags in order.
func (g *Game) Choices() []string {
	out := make([]string, len(g.choices))
	copy(out, g.choices)
	return out
}

// Encounters lists the finished negotiations in order.
func (g *Game) Encounters() []EncounterRecord {
	out := make([]EncounterRecord, len(g.encounters))
	copy(out, g.encounters)
	return out
}

// ActiveModifiers snapshots the modifier ledger.
func (g *Game) ActiveModifiers() []modifier.Modifier {
	return g.ledger.Active()
}

// Record is the full audit snapshot of a game, enough for a verifier
// to replay every roll and for the achievement store to file the run.
type Record struct {
	Character         character.Sheet       `json:"character"`
	Phase             Phase                 `json:"phase"`
	Tier              Tier                  `json:"tier"`
	Territory         client.Territory      `json:"territory"`
	KeyRoll           int                   `json:"key_roll"`
	StartingMoney     int64                 `json:"starting_money"`
	Money             int64                 `json:"money"`
	Strategy          Strategy              `json:"strategy"`
	LegendaryUnlocked bool                  `json:"legendary_unlocked"`
	SpiritUsed        bool                  `json:"spirit_used"`
	SeedPairs         []fairroll.SeedPair   `json:"seed_pairs"`
	Rolls             []fairroll.RollRecord `json:"rolls"`
	Choices           []string              `json:"choices"`
	Encounters        []EncounterRecord     `json:"encounters"`
	Modifiers         []modifier.Modifier   `json:"modifiers"`
}

// Snapshot captures the game's audit state. The tier stays unspecified
// until the game is complete.
func (g *Game) Snapshot() Record {
	record := Record{
		Character:         g.sheet,
		Phase:             g.phase,
		Territory:         g.territory,
		KeyRoll:           g.keyRoll,
		StartingMoney:     g.startingMoney,
		Money:             g.money,
		Strategy:          g.strategy,
		LegendaryUnlocked: g.legendaryUnlocked,
		SpiritUsed:        g.spiritUsed,
		SeedPairs:         g.SeedPairs(),
		Rolls:             g.Rolls(),
		Choices:           g.Choices(),
		Encounters:        g.Encounters(),
		Modifiers:         g.ActiveModifiers(),
	}
	if g.Complete() {
		record.Tier = computeTier(g.money, g.startingMoney, g.legendaryUnlocked, g.cfg)
	}
	return record
}

package quarter

import (
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"
)

// eventEntry is one row of a d6 event table. Gains are credited as-is;
// setbacks pass through the element shield and resilience first.
type eventEntry struct {
	name    string
	gain    int64
	setback int64
	grant   *modifier.Modifier
}

// EventOutcome reports a resolved table roll. Money is the signed delta
// actually applied, after any setback reduction.
type EventOutcome struct {
	Label   string             `json:"label"`
	Roll    int                `json:"roll"`
	Name    string             `json:"name"`
	Money   int64              `json:"money"`
	Granted *modifier.Modifier `json:"granted,omitempty"`
}

func phasesGrant(desc string, kind modifier.Kind, effect modifier.Effect, value int64, source modifier.Source, remaining int) *modifier.Modifier {
	return &modifier.Modifier{
		Description: desc,
		Kind:        kind,
		Effect:      effect,
		Value:       value,
		Source:      source,
		Scope:       modifier.ScopePhases,
		Remaining:   remaining,
	}
}

// The trip and event tables are fixed game content keyed by a d6.

var journeyTable = [6]eventEntry{
	{name: "missed connection", setback: 500},
	{name: "lost luggage", setback: 300},
	{name: "uneventful ride"},
	{name: "quiet stretch"},
	{name: "networking seatmate", grant: phasesGrant("networking seatmate", modifier.KindBuff, modifier.EffectPitch, 1, modifier.SourceJourney, 2)},
	{name: "upgrade windfall", gain: 400},
}

var driveTable = [6]eventEntry{
	{name: "flat tire", setback: 400},
	{name: "wrong exit", setback: 200},
	{name: "steady cruise"},
	{name: "scenic route"},
	{name: "early arrival", gain: 300},
	{name: "roadside referral", gain: 500},
}

var luckyTable = [6]eventEntry{
	{name: "cracked mirror", grant: phasesGrant("cracked mirror", modifier.KindDebuff, modifier.EffectPitch, -1, modifier.SourceLucky, 2)},
	{name: "worn map"},
	{name: "plain keychain"},
	{name: "polished cufflinks", grant: &modifier.Modifier{
		Description: "polished cufflinks",
		Kind:        modifier.KindBuff,
		Effect:      modifier.EffectDeal,
		Value:       100,
		Source:      modifier.SourceLucky,
		Scope:       modifier.ScopePitches,
		Remaining:   1,
	}},
	{name: "lucky pen", grant: phasesGrant("lucky pen", modifier.KindBuff, modifier.EffectPitch, 1, modifier.SourceLucky, 2)},
	{name: "four-leaf clover", grant: phasesGrant("four-leaf clover", modifier.KindBuff, modifier.EffectPitch, 2, modifier.SourceLucky, 2)},
}

var marketTable = [6]eventEntry{
	{name: "market crash", setback: 1200},
	{name: "sector dip", setback: 600},
	{name: "flat quarter"},
	{name: "flat quarter"},
	{name: "sector uptick", gain: 800},
	{name: "windfall contract", gain: 1500},
}

var huntTable = [6]eventEntry{
	{name: "burned out", grant: phasesGrant("burned out", modifier.KindDebuff, modifier.EffectPitch, -1, modifier.SourceHunt, 2)},
	{name: "cold trail", setback: 300},
	{name: "routine prep"},
	{name: "routine prep"},
	{name: "warm intro", grant: phasesGrant("warm intro", modifier.KindBuff, modifier.EffectPitch, 1, modifier.SourceHunt, 2)},
	{name: "insider intel", grant: phasesGrant("insider intel", modifier.KindBuff, modifier.EffectPitch, 2, modifier.SourceHunt, 2)},
}

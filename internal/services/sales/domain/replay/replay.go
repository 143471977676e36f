// Package replay re-derives a finished game from its audit record and
// checks the reported outcome against what the engine produces. The
// same seeds and decisions must reproduce the same rolls, the same
// money, and the same tier; any divergence means the record was
// tampered with or filed against different entropy.
package replay

import (
	"fmt"
	"strings"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

// Report is the outcome of replaying a record. Mismatches lists every
// field where the replay disagreed with the record.
type Report struct {
	Money      int64
	Tier       quarter.Tier
	KeyRoll    int
	Rolls      int
	Mismatches []string
}

// Clean reports whether the replay matched the record everywhere.
func (r Report) Clean() bool { return len(r.Mismatches) == 0 }

type recordedChoices struct {
	travel     quarter.TravelChoice
	crossroads quarter.CrossroadsChoice
	strategy   quarter.Strategy
}

func parseChoices(tags []string) (recordedChoices, error) {
	var out recordedChoices
	var haveTravel, haveCrossroads, haveStrategy bool
	for _, tag := range tags {
		kind, name, found := strings.Cut(tag, ":")
		if !found {
			return out, apperrors.WithMetadata(apperrors.CodeAchievementInvalid, "malformed choice tag", map[string]string{
				"tag": tag,
			})
		}
		switch kind {
		case "travel":
			choice, err := quarter.ParseTravelChoice(name)
			if err != nil {
				return out, err
			}
			out.travel, haveTravel = choice, true
		case "crossroads":
			choice, err := quarter.ParseCrossroadsChoice(name)
			if err != nil {
				return out, err
			}
			out.crossroads, haveCrossroads = choice, true
		case "strategy":
			choice, err := quarter.ParseStrategy(name)
			if err != nil {
				return out, err
			}
			out.strategy, haveStrategy = choice, true
		default:
			return out, apperrors.WithMetadata(apperrors.CodeAchievementInvalid, "unknown choice tag", map[string]string{
				"tag": tag,
			})
		}
	}
	if !haveTravel || !haveCrossroads || !haveStrategy {
		return out, apperrors.New(apperrors.CodeAchievementInvalid, "record is missing a choice")
	}
	return out, nil
}

// Run replays a finished record under the given rules and reports
// every divergence. A structural problem with the record itself (bad
// sheet signature, missing choices, an action the engine rejects)
// returns an error instead.
func Run(rec quarter.Record, cfg rules.Config) (Report, error) {
	if rec.Phase != quarter.PhaseQuarterEnd {
		return Report{}, apperrors.WithMetadata(apperrors.CodeGamePhaseInvalid, "record is not a finished game", map[string]string{
			"phase": rec.Phase.String(),
		})
	}
	if err := character.VerifySheet(rec.Character); err != nil {
		return Report{}, err
	}
	if len(rec.Encounters) != 2 {
		return Report{}, apperrors.WithMetadata(apperrors.CodeAchievementInvalid, "record needs both encounters", map[string]string{
			"encounters": fmt.Sprintf("%d", len(rec.Encounters)),
		})
	}
	choices, err := parseChoices(rec.Choices)
	if err != nil {
		return Report{}, err
	}

	game, err := quarter.NewGame(rec.Character, cfg)
	if err != nil {
		return Report{}, err
	}
	for _, pair := range rec.SeedPairs {
		if _, err := game.SupplyEntropy(pair); err != nil {
			return Report{}, err
		}
	}

	step := func(what string, err error) error {
		if err != nil {
			return apperrors.Wrap(apperrors.CodeOf(err), "replay "+what, err)
		}
		return nil
	}
	advance := func() error {
		_, err := game.AdvancePhase()
		return step("advance", err)
	}

	if _, err := game.AssignTerritory(); err != nil {
		return Report{}, step("assignment", err)
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.ResolveTrip(choices.travel); err != nil {
		return Report{}, step("trip", err)
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.BeginFirstClient(); err != nil {
		return Report{}, step("first client", err)
	}
	if err := replayEncounter(game, rec.Encounters[0]); err != nil {
		return Report{}, err
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.ResolveCrossroads(choices.crossroads); err != nil {
		return Report{}, step("crossroads", err)
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.ResolveQuarterEvent(); err != nil {
		return Report{}, step("quarter event", err)
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.ChooseStrategy(choices.strategy); err != nil {
		return Report{}, step("strategy", err)
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.ResolvePrep(); err != nil {
		return Report{}, step("prep", err)
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	if _, err := game.BeginWhale(); err != nil {
		return Report{}, step("whale", err)
	}
	if err := replayEncounter(game, rec.Encounters[1]); err != nil {
		return Report{}, err
	}
	if err := advance(); err != nil {
		return Report{}, err
	}
	tier, err := game.ComputeTier()
	if err != nil {
		return Report{}, step("tier", err)
	}

	report := Report{
		Money:   game.Money(),
		Tier:    tier.Tier,
		KeyRoll: game.KeyRoll(),
		Rolls:   len(game.Rolls()),
	}
	report.Mismatches = compare(game, tier, rec)
	return report, nil
}

func replayEncounter(game *quarter.Game, enc quarter.EncounterRecord) error {
	for i, action := range enc.Actions {
		if _, err := game.Negotiate(action.Action); err != nil {
			return apperrors.WrapWithMetadata(apperrors.CodeOf(err), "replay negotiation action", map[string]string{
				"slot":   enc.Slot,
				"action": fmt.Sprintf("%d:%s", i+1, action.Action),
			}, err)
		}
	}
	return nil
}

func compare(game *quarter.Game, tier quarter.TierResult, rec quarter.Record) []string {
	var mismatches []string
	add := func(format string, args ...any) {
		mismatches = append(mismatches, fmt.Sprintf(format, args...))
	}

	if game.Money() != rec.Money {
		add("money: replayed %d, recorded %d", game.Money(), rec.Money)
	}
	if game.StartingMoney() != rec.StartingMoney {
		add("starting money: replayed %d, recorded %d", game.StartingMoney(), rec.StartingMoney)
	}
	if tier.Tier != rec.Tier {
		add("tier: replayed %s, recorded %s", tier.Tier, rec.Tier)
	}
	if game.KeyRoll() != rec.KeyRoll {
		add("key roll: replayed %d, recorded %d", game.KeyRoll(), rec.KeyRoll)
	}
	if game.Territory() != rec.Territory {
		add("territory: replayed %s, recorded %s", game.Territory(), rec.Territory)
	}
	if game.Strategy() != rec.Strategy {
		add("strategy: replayed %s, recorded %s", game.Strategy(), rec.Strategy)
	}
	if game.LegendaryUnlocked() != rec.LegendaryUnlocked {
		add("legendary unlocked: replayed %t, recorded %t", game.LegendaryUnlocked(), rec.LegendaryUnlocked)
	}
	if game.SpiritUsed() != rec.SpiritUsed {
		add("spirit used: replayed %t, recorded %t", game.SpiritUsed(), rec.SpiritUsed)
	}

	rolls := game.Rolls()
	if len(rolls) != len(rec.Rolls) {
		add("rolls: replayed %d, recorded %d", len(rolls), len(rec.Rolls))
	} else {
		for i, roll := range rolls {
			if roll != rec.Rolls[i] {
				add("roll %d (%s): replayed %d, recorded %d", i+1, roll.Label, roll.Value, rec.Rolls[i].Value)
				break
			}
		}
	}
	return mismatches
}

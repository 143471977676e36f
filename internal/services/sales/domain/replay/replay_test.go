package replay

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

func newPair(t *testing.T, height uint64, hashByte, seedByte string) fairroll.SeedPair {
	t.Helper()
	pair, err := fairroll.NewSeedPair(height, strings.Repeat(hashByte, 32), strings.Repeat(seedByte, 32))
	if err != nil {
		t.Fatalf("new seed pair: %v", err)
	}
	return pair
}

// rolledSheet derives a sheet from a seed pair so VerifySheet accepts
// the record.
func rolledSheet(t *testing.T) character.Sheet {
	t.Helper()
	src, err := fairroll.NewSource(newPair(t, 666, "9a", "3d"))
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	sheet, err := character.RollSheet(src, "Replay Seller")
	if err != nil {
		t.Fatalf("RollSheet: %v", err)
	}
	return sheet
}

// playEncounter closes the running encounter whatever the sheet rolled:
// listen once, pitch while at least two rounds of patience remain, and
// concede before the client walks. Conceding costs no patience, so the
// script never loses the deal.
func playEncounter(t *testing.T, g *quarter.Game, patience int, useAbility bool) {
	t.Helper()
	if useAbility {
		if _, err := g.Negotiate(negotiation.ActionAbility); err != nil {
			t.Fatalf("Negotiate(ability): %v", err)
		}
	}
	listened := false
	for {
		var action negotiation.Action
		switch {
		case patience <= 1:
			action = negotiation.ActionConcede
		case !listened:
			action = negotiation.ActionListen
			listened = true
		default:
			action = negotiation.ActionPitch
		}
		res, err := g.Negotiate(action)
		if err != nil {
			t.Fatalf("Negotiate(%v): %v", action, err)
		}
		if res.Concluded {
			return
		}
		patience = res.Outcome.Patience
	}
}

// playedGame runs one complete quarter against fixed seed pairs. The
// whale encounter spends the spirit ability first.
func playedGame(t *testing.T) *quarter.Game {
	t.Helper()
	g, err := quarter.NewGame(rolledSheet(t), rules.Default())
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	pairs := []fairroll.SeedPair{
		newPair(t, 100, "1a", "5f"),
		newPair(t, 101, "2b", "6a"),
		newPair(t, 102, "3c", "7b"),
		newPair(t, 103, "4d", "8c"),
	}
	for _, pair := range pairs {
		if _, err := g.SupplyEntropy(pair); err != nil {
			t.Fatalf("SupplyEntropy: %v", err)
		}
	}
	advance := func() {
		t.Helper()
		if _, err := g.AdvancePhase(); err != nil {
			t.Fatalf("AdvancePhase from %v: %v", g.Phase(), err)
		}
	}

	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	advance()
	if _, err := g.ResolveTrip(quarter.TravelTrain); err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	advance()
	first, err := g.BeginFirstClient()
	if err != nil {
		t.Fatalf("BeginFirstClient: %v", err)
	}
	playEncounter(t, g, first.Patience, false)
	advance()
	if _, err := g.ResolveCrossroads(quarter.CrossroadsResearch); err != nil {
		t.Fatalf("ResolveCrossroads: %v", err)
	}
	advance()
	if _, err := g.ResolveQuarterEvent(); err != nil {
		t.Fatalf("ResolveQuarterEvent: %v", err)
	}
	advance()
	if _, err := g.ChooseStrategy(quarter.StrategySteady); err != nil {
		t.Fatalf("ChooseStrategy: %v", err)
	}
	advance()
	if _, err := g.ResolvePrep(); err != nil {
		t.Fatalf("ResolvePrep: %v", err)
	}
	advance()
	whale, err := g.BeginWhale()
	if err != nil {
		t.Fatalf("BeginWhale: %v", err)
	}
	playEncounter(t, g, whale.Patience, true)
	advance()
	if _, err := g.ComputeTier(); err != nil {
		t.Fatalf("ComputeTier: %v", err)
	}
	return g
}

func finishedRecord(t *testing.T) quarter.Record {
	t.Helper()
	return playedGame(t).Snapshot()
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", want)
	}
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("error %v is not a domain error", err)
	}
	if domainErr.Code != want {
		t.Fatalf("error code = %s, want %s", domainErr.Code, want)
	}
}

func assertMismatch(t *testing.T, report Report, prefix string) {
	t.Helper()
	for _, m := range report.Mismatches {
		if strings.HasPrefix(m, prefix) {
			return
		}
	}
	t.Fatalf("no mismatch starting with %q in %v", prefix, report.Mismatches)
}

func TestRunReproducesRecordedGame(t *testing.T) {
	rec := finishedRecord(t)

	report, err := Run(rec, rules.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("expected a clean replay, got mismatches: %v", report.Mismatches)
	}
	if report.Money != rec.Money {
		t.Errorf("report money = %d, want %d", report.Money, rec.Money)
	}
	if report.Tier != rec.Tier {
		t.Errorf("report tier = %v, want %v", report.Tier, rec.Tier)
	}
	if report.KeyRoll != rec.KeyRoll {
		t.Errorf("report key roll = %d, want %d", report.KeyRoll, rec.KeyRoll)
	}
	if report.Rolls != len(rec.Rolls) {
		t.Errorf("report rolls = %d, want %d", report.Rolls, len(rec.Rolls))
	}
}

func TestRunFlagsTamperedMoney(t *testing.T) {
	rec := finishedRecord(t)
	rec.Money += 500

	report, err := Run(rec, rules.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Clean() {
		t.Fatal("expected the tampered money to surface")
	}
	assertMismatch(t, report, "money:")
}

func TestRunFlagsTamperedKeyRoll(t *testing.T) {
	rec := finishedRecord(t)
	rec.KeyRoll++

	report, err := Run(rec, rules.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertMismatch(t, report, "key roll:")
}

func TestRunFlagsTamperedRollLog(t *testing.T) {
	rec := finishedRecord(t)
	rec.Rolls = append([]fairroll.RollRecord(nil), rec.Rolls...)
	rec.Rolls[0].Value++

	report, err := Run(rec, rules.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertMismatch(t, report, "roll 1 (")
}

func TestRunFlagsTamperedTier(t *testing.T) {
	rec := finishedRecord(t)
	if rec.Tier == quarter.TierFired {
		rec.Tier = quarter.TierEmployed
	} else {
		rec.Tier = quarter.TierFired
	}

	report, err := Run(rec, rules.Default())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	assertMismatch(t, report, "tier:")
}

func TestRunRejectsTamperedSheet(t *testing.T) {
	rec := finishedRecord(t)
	rec.Character.Stats[0].Total++

	_, err := Run(rec, rules.Default())
	assertCode(t, err, apperrors.CodeCharacterTampered)
}

func TestRunRejectsUnfinishedRecord(t *testing.T) {
	rec := finishedRecord(t)
	rec.Phase = quarter.PhaseWhale

	_, err := Run(rec, rules.Default())
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)
}

func TestRunRejectsMissingEncounter(t *testing.T) {
	rec := finishedRecord(t)
	rec.Encounters = rec.Encounters[:1]

	_, err := Run(rec, rules.Default())
	assertCode(t, err, apperrors.CodeAchievementInvalid)
}

func TestRunRejectsBrokenChoices(t *testing.T) {
	base := finishedRecord(t)

	tests := []struct {
		name   string
		mutate func(*quarter.Record)
		want   apperrors.Code
	}{
		{
			name:   "truncated",
			mutate: func(r *quarter.Record) { r.Choices = r.Choices[:len(r.Choices)-1] },
			want:   apperrors.CodeAchievementInvalid,
		},
		{
			name:   "no separator",
			mutate: func(r *quarter.Record) { r.Choices[0] = "train" },
			want:   apperrors.CodeAchievementInvalid,
		},
		{
			name:   "unknown kind",
			mutate: func(r *quarter.Record) { r.Choices[0] = "weather:sunny" },
			want:   apperrors.CodeAchievementInvalid,
		},
		{
			name:   "unknown travel choice",
			mutate: func(r *quarter.Record) { r.Choices[0] = "travel:teleport" },
			want:   apperrors.CodeChoiceInvalid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := base
			rec.Choices = append([]string(nil), base.Choices...)
			tc.mutate(&rec)

			_, err := Run(rec, rules.Default())
			assertCode(t, err, tc.want)
		})
	}
}

func TestRunRejectsActionAgainstClosedDeal(t *testing.T) {
	rec := finishedRecord(t)
	rec.Encounters = append([]quarter.EncounterRecord(nil), rec.Encounters...)
	whale := rec.Encounters[1]
	whale.Actions = append(append([]negotiation.Result(nil), whale.Actions...), negotiation.Result{Action: negotiation.ActionPitch})
	rec.Encounters[1] = whale

	_, err := Run(rec, rules.Default())
	assertCode(t, err, apperrors.CodeNegotiationInactive)
}

func TestRunUnderDifferentRulesDiverges(t *testing.T) {
	rec := finishedRecord(t)
	cfg := rules.Default()
	cfg.BaseMoney += 1000

	report, err := Run(rec, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Clean() {
		t.Fatal("expected divergence under a different tuning")
	}
	assertMismatch(t, report, "starting money:")
}

package quarter

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/client"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

// gameSheet builds a sheet directly; modifiers are in agreement with
// their totals so verification-free game logic stays consistent.
// Stat order: STR, DEX, CON, INT, WIS, CHA.
func gameSheet(element character.Element, spirit character.Spirit, mods [6]int) character.Sheet {
	var s character.Sheet
	s.Name = "Quarter Tester"
	s.Element = element
	s.Spirit = spirit
	s.Sex = character.SexFemale
	for i, mod := range mods {
		s.Stats[i] = character.StatLine{Total: 13 + 2*mod, Modifier: mod}
	}
	return s
}

// closerSheet always lands its pitches: +4 DEX lifts every body die to
// neutral or better, and CHA+INT cover any resistance from round two.
func closerSheet(element character.Element) character.Sheet {
	return gameSheet(element, character.SpiritRat, [6]int{0, 4, 0, 5, 0, 5})
}

func newPair(t *testing.T, height uint64, hashByte, seedByte string) fairroll.SeedPair {
	t.Helper()
	pair, err := fairroll.NewSeedPair(height, strings.Repeat(hashByte, 32), strings.Repeat(seedByte, 32))
	if err != nil {
		t.Fatalf("new seed pair: %v", err)
	}
	return pair
}

func testPairs(t *testing.T) [4]fairroll.SeedPair {
	t.Helper()
	return [4]fairroll.SeedPair{
		newPair(t, 100, "1a", "5f"),
		newPair(t, 101, "2b", "6a"),
		newPair(t, 102, "3c", "7b"),
		newPair(t, 103, "4d", "8c"),
	}
}

func newTestGame(t *testing.T, sheet character.Sheet) *Game {
	t.Helper()
	g, err := NewGame(sheet, rules.Default())
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g
}

func supplyAll(t *testing.T, g *Game) {
	t.Helper()
	for _, pair := range testPairs(t) {
		if _, err := g.SupplyEntropy(pair); err != nil {
			t.Fatalf("SupplyEntropy: %v", err)
		}
	}
}

func mustAdvance(t *testing.T, g *Game) AdvanceResult {
	t.Helper()
	res, err := g.AdvancePhase()
	if err != nil {
		t.Fatalf("AdvancePhase from %v: %v", g.Phase(), err)
	}
	return res
}

func mustNegotiate(t *testing.T, g *Game, action negotiation.Action) NegotiateResult {
	t.Helper()
	res, err := g.Negotiate(action)
	if err != nil {
		t.Fatalf("Negotiate(%v): %v", action, err)
	}
	return res
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Code != want {
		t.Fatalf("error = %v, want code %s", err, want)
	}
}

// playGame drives a complete quarter: a closed first deal via a listen
// and a guaranteed pitch, research at the crossroads, the given
// strategy, then a closed whale via two listens and a pitch.
func playGame(t *testing.T, g *Game, strategy Strategy) TierResult {
	t.Helper()
	supplyAll(t, g)

	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)

	if _, err := g.ResolveTrip(TravelTrain); err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	mustAdvance(t, g)

	if _, err := g.BeginFirstClient(); err != nil {
		t.Fatalf("BeginFirstClient: %v", err)
	}
	mustNegotiate(t, g, negotiation.ActionListen)
	pitch := mustNegotiate(t, g, negotiation.ActionPitch)
	if !pitch.Outcome.Pitch.Success {
		t.Fatalf("first pitch missed: %+v", pitch.Outcome.Pitch)
	}
	mustNegotiate(t, g, negotiation.ActionConcede)
	mustAdvance(t, g)

	if _, err := g.ResolveCrossroads(CrossroadsResearch); err != nil {
		t.Fatalf("ResolveCrossroads: %v", err)
	}
	mustAdvance(t, g)

	if _, err := g.ResolveQuarterEvent(); err != nil {
		t.Fatalf("ResolveQuarterEvent: %v", err)
	}
	mustAdvance(t, g)

	if _, err := g.ChooseStrategy(strategy); err != nil {
		t.Fatalf("ChooseStrategy: %v", err)
	}
	mustAdvance(t, g)

	if _, err := g.ResolvePrep(); err != nil {
		t.Fatalf("ResolvePrep: %v", err)
	}
	mustAdvance(t, g)

	if _, err := g.BeginWhale(); err != nil {
		t.Fatalf("BeginWhale: %v", err)
	}
	mustNegotiate(t, g, negotiation.ActionListen)
	mustNegotiate(t, g, negotiation.ActionListen)
	whalePitch := mustNegotiate(t, g, negotiation.ActionPitch)
	if !whalePitch.Outcome.Pitch.Success {
		t.Fatalf("whale pitch missed: %+v", whalePitch.Outcome.Pitch)
	}
	mustNegotiate(t, g, negotiation.ActionConcede)
	mustAdvance(t, g)

	tier, err := g.ComputeTier()
	if err != nil {
		t.Fatalf("ComputeTier: %v", err)
	}
	return tier
}

func TestNewGameProjectsEconomy(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))

	if got := g.StartingMoney(); got != 25000 {
		t.Errorf("starting money = %d, want 25000", got)
	}
	if got := g.Money(); got != 25000 {
		t.Errorf("money = %d, want 25000", got)
	}
	if got := g.BudgetScale(); got != 2.5 {
		t.Errorf("budget scale = %v, want 2.5", got)
	}
	if got := g.Phase(); got != PhaseAssignment {
		t.Errorf("phase = %v, want assignment", got)
	}
}

func TestAssignTerritoryRequiresEntropy(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))

	_, err := g.AssignTerritory()
	assertCode(t, err, apperrors.CodeEntropyMissing)
}

func TestAssignTerritory(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)

	res, err := g.AssignTerritory()
	if err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	if res.Territory == client.TerritoryUnspecified {
		t.Error("territory not assigned")
	}
	if res.Roll < 1 || res.Roll > 6 {
		t.Errorf("territory roll = %d, want 1..6", res.Roll)
	}
	if res.KeyRoll < 1 || res.KeyRoll > auditKeyDie {
		t.Errorf("key roll = %d, want 1..%d", res.KeyRoll, auditKeyDie)
	}
	if g.Territory() != res.Territory {
		t.Errorf("game territory = %v, want %v", g.Territory(), res.Territory)
	}

	_, err = g.AssignTerritory()
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)
}

func TestSupplyEntropyLimits(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	pairs := testPairs(t)

	for i, pair := range pairs {
		idx, err := g.SupplyEntropy(pair)
		if err != nil {
			t.Fatalf("SupplyEntropy %d: %v", i+1, err)
		}
		if idx != i+1 {
			t.Errorf("bundle index = %d, want %d", idx, i+1)
		}
	}

	_, err := g.SupplyEntropy(pairs[0])
	assertCode(t, err, apperrors.CodeEntropyAlreadySet)
}

func TestSupplyEntropyRejectsMalformedPair(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))

	_, err := g.SupplyEntropy(fairroll.SeedPair{BlockHeight: 1, BlockHash: "short", ClientSeed: strings.Repeat("ab", 32)})
	assertCode(t, err, apperrors.CodeSeedMalformed)
}

func TestAdvancePhaseBlocksUnresolvedPhase(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))

	_, err := g.AdvancePhase()
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)
}

func TestOperationsGuardTheirPhase(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)

	if _, err := g.ResolveTrip(TravelTrain); err == nil {
		t.Error("ResolveTrip in assignment should fail")
	}
	if _, err := g.ResolveCrossroads(CrossroadsDinner); err == nil {
		t.Error("ResolveCrossroads in assignment should fail")
	}
	if _, err := g.ChooseStrategy(StrategySteady); err == nil {
		t.Error("ChooseStrategy in assignment should fail")
	}
	if _, err := g.BeginFirstClient(); err == nil {
		t.Error("BeginFirstClient in assignment should fail")
	}
	if _, err := g.ComputeTier(); err == nil {
		t.Error("ComputeTier before quarter end should fail")
	}
	_, err := g.Negotiate(negotiation.ActionPitch)
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)
}

func TestResolveTripSpendsFareAndReportsTables(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)
	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)

	res, err := g.ResolveTrip(TravelTrain)
	if err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	if res.Cost != 400 {
		t.Errorf("cost = %d, want 400", res.Cost)
	}
	want := g.StartingMoney() - 400 + res.Journey.Money + res.Drive.Money + res.Lucky.Money
	if res.Money != want {
		t.Errorf("money = %d, want %d from reported deltas", res.Money, want)
	}
	if res.Money != g.Money() {
		t.Errorf("result money = %d, game money = %d", res.Money, g.Money())
	}
	for _, out := range []EventOutcome{res.Journey, res.Drive, res.Lucky} {
		if out.Roll < 1 || out.Roll > 6 {
			t.Errorf("%s roll = %d, want 1..6", out.Label, out.Roll)
		}
		if out.Name == "" {
			t.Errorf("%s outcome has no name", out.Label)
		}
	}

	_, err = g.ResolveTrip(TravelTrain)
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)
}

func TestResolveTripRejectsUnknownChoice(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)
	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)

	_, err := g.ResolveTrip(TravelUnspecified)
	assertCode(t, err, apperrors.CodeChoiceInvalid)
}

func TestNegotiationLifecycleGuards(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)
	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolveTrip(TravelTrain); err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	mustAdvance(t, g)

	// Negotiate before the client is drawn.
	_, err := g.Negotiate(negotiation.ActionPitch)
	assertCode(t, err, apperrors.CodeNegotiationInactive)

	c, err := g.BeginFirstClient()
	if err != nil {
		t.Fatalf("BeginFirstClient: %v", err)
	}
	if c.Name == "" || !c.Active {
		t.Errorf("client = %+v, want named active client", c)
	}
	if c.Territory != g.Territory() {
		t.Errorf("client territory = %v, want %v", c.Territory, g.Territory())
	}

	_, err = g.BeginFirstClient()
	assertCode(t, err, apperrors.CodeNegotiationActive)

	_, err = g.Negotiate(negotiation.ActionUnspecified)
	assertCode(t, err, apperrors.CodeActionInvalid)

	// The phase cannot advance over a live negotiation.
	_, err = g.AdvancePhase()
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)

	mustNegotiate(t, g, negotiation.ActionConcede)

	_, err = g.Negotiate(negotiation.ActionPitch)
	assertCode(t, err, apperrors.CodeNegotiationInactive)

	_, err = g.BeginFirstClient()
	assertCode(t, err, apperrors.CodeGamePhaseInvalid)
}

func TestSpiritAbilityCreditsMoneyOnce(t *testing.T) {
	// Rat with +2 WIS pays 400 + 200.
	sheet := gameSheet(character.ElementNone, character.SpiritRat, [6]int{0, 4, 0, 5, 2, 5})
	g := newTestGame(t, sheet)
	supplyAll(t, g)
	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolveTrip(TravelTrain); err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.BeginFirstClient(); err != nil {
		t.Fatalf("BeginFirstClient: %v", err)
	}

	before := g.Money()
	res := mustNegotiate(t, g, negotiation.ActionAbility)
	if res.Outcome.Ability == nil || res.Outcome.Ability.Money != 600 {
		t.Fatalf("ability outcome = %+v, want 600 money", res.Outcome.Ability)
	}
	if g.Money() != before+600 {
		t.Errorf("money = %d, want %d", g.Money(), before+600)
	}
	if !g.SpiritUsed() {
		t.Error("spirit not marked used")
	}

	_, err := g.Negotiate(negotiation.ActionAbility)
	assertCode(t, err, apperrors.CodeSpiritAlreadyUsed)
}

func TestFullGameMoneyConsistency(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)

	expected := g.StartingMoney()

	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	if adv := mustAdvance(t, g); adv.Income != 0 {
		t.Errorf("advance income = %d, want 0 without wood", adv.Income)
	}

	trip, err := g.ResolveTrip(TravelTrain)
	if err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	expected += -trip.Cost + trip.Journey.Money + trip.Drive.Money + trip.Lucky.Money
	if g.Money() != expected {
		t.Fatalf("money after trip = %d, want %d", g.Money(), expected)
	}
	mustAdvance(t, g)

	if _, err := g.BeginFirstClient(); err != nil {
		t.Fatalf("BeginFirstClient: %v", err)
	}
	mustNegotiate(t, g, negotiation.ActionListen)
	pitch := mustNegotiate(t, g, negotiation.ActionPitch)
	if !pitch.Outcome.Pitch.Success {
		t.Fatalf("first pitch missed: %+v", pitch.Outcome.Pitch)
	}
	concede := mustNegotiate(t, g, negotiation.ActionConcede)
	if !concede.Concluded {
		t.Fatal("concede did not conclude the encounter")
	}
	if concede.Credited <= 0 {
		t.Errorf("credited = %d, want positive payout", concede.Credited)
	}
	expected += concede.Credited
	if g.Money() != expected {
		t.Fatalf("money after first client = %d, want %d", g.Money(), expected)
	}
	mustAdvance(t, g)

	// Research never moves money, only the ledger.
	crossroads, err := g.ResolveCrossroads(CrossroadsResearch)
	if err != nil {
		t.Fatalf("ResolveCrossroads: %v", err)
	}
	if crossroads.Spent != 0 || crossroads.Delta != 0 {
		t.Errorf("research moved money: %+v", crossroads)
	}
	if crossroads.Success && crossroads.Granted == nil {
		t.Error("successful research granted nothing")
	}
	if g.Money() != expected {
		t.Fatalf("money after crossroads = %d, want %d", g.Money(), expected)
	}
	mustAdvance(t, g)

	market, err := g.ResolveQuarterEvent()
	if err != nil {
		t.Fatalf("ResolveQuarterEvent: %v", err)
	}
	expected += market.Money
	if g.Money() != expected {
		t.Fatalf("money after market = %d, want %d", g.Money(), expected)
	}
	mustAdvance(t, g)

	if _, err := g.ChooseStrategy(StrategySteady); err != nil {
		t.Fatalf("ChooseStrategy: %v", err)
	}
	mustAdvance(t, g)

	hunt, err := g.ResolvePrep()
	if err != nil {
		t.Fatalf("ResolvePrep: %v", err)
	}
	expected += hunt.Money
	if g.Money() != expected {
		t.Fatalf("money after prep = %d, want %d", g.Money(), expected)
	}
	mustAdvance(t, g)

	if _, err := g.BeginWhale(); err != nil {
		t.Fatalf("BeginWhale: %v", err)
	}
	mustNegotiate(t, g, negotiation.ActionListen)
	mustNegotiate(t, g, negotiation.ActionListen)
	whalePitch := mustNegotiate(t, g, negotiation.ActionPitch)
	if !whalePitch.Outcome.Pitch.Success {
		t.Fatalf("whale pitch missed: %+v", whalePitch.Outcome.Pitch)
	}
	whaleConcede := mustNegotiate(t, g, negotiation.ActionConcede)
	if whaleConcede.Credited <= 0 {
		t.Errorf("whale credited = %d, want positive", whaleConcede.Credited)
	}
	expected += whaleConcede.Credited
	if g.Money() != expected {
		t.Fatalf("money after whale = %d, want %d", g.Money(), expected)
	}
	mustAdvance(t, g)

	if g.Phase() != PhaseQuarterEnd {
		t.Fatalf("phase = %v, want quarter end", g.Phase())
	}
	tier, err := g.ComputeTier()
	if err != nil {
		t.Fatalf("ComputeTier: %v", err)
	}
	if tier.Money != expected {
		t.Errorf("tier money = %d, want %d", tier.Money, expected)
	}
	if want := computeTier(expected, g.StartingMoney(), false, rules.Default()); tier.Tier != want {
		t.Errorf("tier = %v, want %v", tier.Tier, want)
	}

	snapshot := g.Snapshot()
	if len(snapshot.Encounters) != 2 {
		t.Fatalf("encounters = %d, want 2", len(snapshot.Encounters))
	}
	if snapshot.Encounters[0].Slot != "first" || snapshot.Encounters[1].Slot != "whale" {
		t.Errorf("encounter slots = %s, %s", snapshot.Encounters[0].Slot, snapshot.Encounters[1].Slot)
	}
	wantChoices := []string{"travel:train", "crossroads:research", "strategy:steady"}
	if !reflect.DeepEqual(snapshot.Choices, wantChoices) {
		t.Errorf("choices = %v, want %v", snapshot.Choices, wantChoices)
	}
	if len(snapshot.Rolls) != 17 {
		t.Errorf("roll log length = %d, want 17", len(snapshot.Rolls))
	}
	if snapshot.Rolls[0].Label != "key" || snapshot.Rolls[1].Label != "territory" {
		t.Errorf("first rolls = %s, %s, want key, territory", snapshot.Rolls[0].Label, snapshot.Rolls[1].Label)
	}
	if snapshot.Tier != tier.Tier {
		t.Errorf("snapshot tier = %v, want %v", snapshot.Tier, tier.Tier)
	}

	_, err = g.AdvancePhase()
	assertCode(t, err, apperrors.CodeGameComplete)
	_, err = g.SupplyEntropy(testPairs(t)[0])
	assertCode(t, err, apperrors.CodeGameComplete)
}

func TestFullGameReplaysIdentically(t *testing.T) {
	run := func() Record {
		g := newTestGame(t, closerSheet(character.ElementNone))
		playGame(t, g, StrategySteady)
		return g.Snapshot()
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical seeds and actions produced different games")
	}
}

func TestWhalePayoutUsesStrategyMultiplier(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	playGame(t, g, StrategyAllIn)

	snapshot := g.Snapshot()
	whale := snapshot.Encounters[1]
	if whale.Payout <= 0 {
		t.Fatalf("whale payout = %d, want positive", whale.Payout)
	}
	if want := whale.Payout * 150 / 100; whale.Credited != want {
		t.Errorf("credited = %d, want %d (payout %d at 150%%)", whale.Credited, want, whale.Payout)
	}
	if !snapshot.LegendaryUnlocked {
		t.Error("all-in should unlock legendary")
	}
}

func TestMetalBonusOnClosedDeals(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementMetal))
	playGame(t, g, StrategySteady)

	snapshot := g.Snapshot()
	for _, enc := range snapshot.Encounters {
		if enc.Payout <= 0 {
			t.Fatalf("%s payout = %d, want positive", enc.Slot, enc.Payout)
		}
		if want := enc.Payout + 200; enc.Credited != want {
			t.Errorf("%s credited = %d, want payout+200 = %d", enc.Slot, enc.Credited, want)
		}
	}
}

func TestFireBonusOnFirstDealOnly(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementFire))
	playGame(t, g, StrategySteady)

	snapshot := g.Snapshot()
	first, whale := snapshot.Encounters[0], snapshot.Encounters[1]
	if want := first.Payout + first.Payout*25/100; first.Credited != want {
		t.Errorf("first credited = %d, want %d (25%% first-deal bonus)", first.Credited, want)
	}
	if whale.Credited != whale.Payout {
		t.Errorf("whale credited = %d, want bare payout %d", whale.Credited, whale.Payout)
	}
}

func TestWaterBonusOnEveryDeal(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementWater))
	playGame(t, g, StrategySteady)

	snapshot := g.Snapshot()
	for _, enc := range snapshot.Encounters {
		if want := enc.Payout + enc.Payout*10/100; enc.Credited != want {
			t.Errorf("%s credited = %d, want %d (10%% bonus)", enc.Slot, enc.Credited, want)
		}
	}
}

func TestWoodIncomeOnEveryAdvance(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementWood))
	supplyAll(t, g)
	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}

	before := g.Money()
	adv := mustAdvance(t, g)
	if adv.Income != 150 {
		t.Errorf("income = %d, want 150", adv.Income)
	}
	if g.Money() != before+150 {
		t.Errorf("money = %d, want %d", g.Money(), before+150)
	}
}

func TestAllInPenaltyWhenWhalePaysNothing(t *testing.T) {
	tests := []struct {
		name    string
		element character.Element
		con     int
		want    int64
	}{
		{name: "penalty reduced by resilience", element: character.ElementNone, con: 2, want: 2800},
		{name: "earth shield stacks with resilience", element: character.ElementEarth, con: 2, want: 2500},
		{name: "no mitigation takes it whole", element: character.ElementNone, con: 0, want: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := gameSheet(tt.element, character.SpiritRat, [6]int{0, 0, tt.con, 0, 0, 0})
			g := newTestGame(t, sheet)
			supplyAll(t, g)

			if _, err := g.AssignTerritory(); err != nil {
				t.Fatalf("AssignTerritory: %v", err)
			}
			mustAdvance(t, g)
			if _, err := g.ResolveTrip(TravelCar); err != nil {
				t.Fatalf("ResolveTrip: %v", err)
			}
			mustAdvance(t, g)
			if _, err := g.BeginFirstClient(); err != nil {
				t.Fatalf("BeginFirstClient: %v", err)
			}
			mustNegotiate(t, g, negotiation.ActionConcede)
			mustAdvance(t, g)
			if _, err := g.ResolveCrossroads(CrossroadsResearch); err != nil {
				t.Fatalf("ResolveCrossroads: %v", err)
			}
			mustAdvance(t, g)
			if _, err := g.ResolveQuarterEvent(); err != nil {
				t.Fatalf("ResolveQuarterEvent: %v", err)
			}
			mustAdvance(t, g)
			if _, err := g.ChooseStrategy(StrategyAllIn); err != nil {
				t.Fatalf("ChooseStrategy: %v", err)
			}
			mustAdvance(t, g)
			if _, err := g.ResolvePrep(); err != nil {
				t.Fatalf("ResolvePrep: %v", err)
			}
			mustAdvance(t, g)
			if _, err := g.BeginWhale(); err != nil {
				t.Fatalf("BeginWhale: %v", err)
			}

			before := g.Money()
			res := mustNegotiate(t, g, negotiation.ActionConcede)
			if res.Credited != 0 {
				t.Errorf("credited = %d, want 0 on an empty concede", res.Credited)
			}
			if res.Penalty != tt.want {
				t.Errorf("penalty = %d, want %d", res.Penalty, tt.want)
			}
			if g.Money() != before-tt.want {
				t.Errorf("money = %d, want %d", g.Money(), before-tt.want)
			}
		})
	}
}

func TestSteadyWhaleZeroTakesNoPenalty(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	supplyAll(t, g)

	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolveTrip(TravelTrain); err != nil {
		t.Fatalf("ResolveTrip: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.BeginFirstClient(); err != nil {
		t.Fatalf("BeginFirstClient: %v", err)
	}
	mustNegotiate(t, g, negotiation.ActionConcede)
	mustAdvance(t, g)
	if _, err := g.ResolveCrossroads(CrossroadsResearch); err != nil {
		t.Fatalf("ResolveCrossroads: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolveQuarterEvent(); err != nil {
		t.Fatalf("ResolveQuarterEvent: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ChooseStrategy(StrategySteady); err != nil {
		t.Fatalf("ChooseStrategy: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolvePrep(); err != nil {
		t.Fatalf("ResolvePrep: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.BeginWhale(); err != nil {
		t.Fatalf("BeginWhale: %v", err)
	}

	res := mustNegotiate(t, g, negotiation.ActionConcede)
	if res.Penalty != 0 {
		t.Errorf("penalty = %d, want 0 on steady", res.Penalty)
	}
}

func TestStagedEntropySupply(t *testing.T) {
	g := newTestGame(t, closerSheet(character.ElementNone))
	pairs := testPairs(t)

	if _, err := g.SupplyEntropy(pairs[0]); err != nil {
		t.Fatalf("SupplyEntropy 1: %v", err)
	}
	if _, err := g.AssignTerritory(); err != nil {
		t.Fatalf("AssignTerritory: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolveTrip(TravelTrain); err != nil {
		t.Fatalf("ResolveTrip with bundle 1: %v", err)
	}
	mustAdvance(t, g)

	_, err := g.BeginFirstClient()
	assertCode(t, err, apperrors.CodeEntropyMissing)

	if _, err := g.SupplyEntropy(pairs[1]); err != nil {
		t.Fatalf("SupplyEntropy 2: %v", err)
	}
	if _, err := g.BeginFirstClient(); err != nil {
		t.Fatalf("BeginFirstClient after supply: %v", err)
	}
	mustNegotiate(t, g, negotiation.ActionConcede)
	mustAdvance(t, g)

	_, err = g.ResolveCrossroads(CrossroadsResearch)
	assertCode(t, err, apperrors.CodeEntropyMissing)

	if _, err := g.SupplyEntropy(pairs[2]); err != nil {
		t.Fatalf("SupplyEntropy 3: %v", err)
	}
	if _, err := g.ResolveCrossroads(CrossroadsResearch); err != nil {
		t.Fatalf("ResolveCrossroads after supply: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ResolveQuarterEvent(); err != nil {
		t.Fatalf("ResolveQuarterEvent: %v", err)
	}
	mustAdvance(t, g)
	if _, err := g.ChooseStrategy(StrategyBold); err != nil {
		t.Fatalf("ChooseStrategy: %v", err)
	}
	mustAdvance(t, g)

	_, err = g.ResolvePrep()
	assertCode(t, err, apperrors.CodeEntropyMissing)

	if _, err := g.SupplyEntropy(pairs[3]); err != nil {
		t.Fatalf("SupplyEntropy 4: %v", err)
	}
	if _, err := g.ResolvePrep(); err != nil {
		t.Fatalf("ResolvePrep after supply: %v", err)
	}
}

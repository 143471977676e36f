// Package quarter drives the nine-phase sales quarter: territory
// assignment, the trip out, two negotiations, the decision points
// between them, and the closing tier.
//
// A Game is an aggregate the host advances one operation at a time.
// All randomness comes from four externally supplied seed pairs, so a
// finished game replays identically from its recorded entropy. A Game
// is not safe for concurrent use; callers serialize access.
package quarter

import (
	"strconv"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/client"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

// auditKeyDie sizes the audit key roll drawn at assignment.
const auditKeyDie = 1000000

// Game is the aggregate root of one sales quarter.
type Game struct {
	sheet character.Sheet
	cfg   rules.Config

	phase         Phase
	money         int64
	startingMoney int64
	budgetScale   float64

	ledger   modifier.Ledger
	recorder *fairroll.Recorder
	sources  [EntropyBundles + 1]*fairroll.Source
	pairs    []fairroll.SeedPair

	territory client.Territory
	keyRoll   int

	encounter *negotiation.Encounter

	tripResolved       bool
	crossroadsResolved bool
	marketResolved     bool
	prepResolved       bool
	firstConcluded     bool
	whaleConcluded     bool

	strategy          Strategy
	legendaryUnlocked bool
	spiritUsed        bool
	firstDealClosed   bool

	choices    []string
	encounters []EncounterRecord
}

// gameRoller routes the negotiation engine's dice through the game's
// bundle-aware roll path.
type gameRoller struct{ g *Game }

func (r gameRoller) Roll(label string, sides int) (int, error) {
	return r.g.roll(label, sides)
}

// NewGame opens a quarter for the given character. Starting money and
// the budget scale derive from the sheet once and never change.
func NewGame(sheet character.Sheet, cfg rules.Config) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	startingMoney := sheet.StartingMoney(cfg)
	return &Game{
		sheet:         sheet,
		cfg:           cfg,
		phase:         PhaseAssignment,
		money:         startingMoney,
		startingMoney: startingMoney,
		budgetScale:   character.BudgetScale(startingMoney, cfg),
		recorder:      fairroll.NewRecorder(nil),
	}, nil
}

// SupplyEntropy installs the next of the four seed bundles and returns
// its one-based index. Bundles are consumed in phase order: assignment
// and the trip, the first client, the crossroads and quarter event,
// then the whale hunt.
func (g *Game) SupplyEntropy(pair fairroll.SeedPair) (int, error) {
	if g.phase == PhaseQuarterEnd {
		return 0, apperrors.New(apperrors.CodeGameComplete, "game is complete")
	}
	if len(g.pairs) >= EntropyBundles {
		return 0, apperrors.New(apperrors.CodeEntropyAlreadySet, "all entropy bundles supplied")
	}
	src, err := fairroll.NewSource(pair)
	if err != nil {
		return 0, err
	}
	idx := len(g.pairs) + 1
	g.sources[idx] = src
	g.pairs = append(g.pairs, pair)
	return idx, nil
}

// roll draws a labeled die from the current phase's entropy bundle and
// records it in the audit log.
func (g *Game) roll(label string, sides int) (int, error) {
	bundle := bundleForPhase(g.phase)
	if bundle == 0 {
		return 0, apperrors.WithMetadata(apperrors.CodeEntropyMissing, "phase draws no entropy", map[string]string{
			"phase": g.phase.String(),
		})
	}
	src := g.sources[bundle]
	if src == nil {
		return 0, apperrors.WithMetadata(apperrors.CodeEntropyMissing, "entropy bundle not supplied", map[string]string{
			"bundle": strconv.Itoa(bundle),
			"phase":  g.phase.String(),
		})
	}
	g.recorder.SetRoller(src)
	return g.recorder.Roll(label, sides)
}

func (g *Game) requirePhase(want Phase) error {
	if g.phase != want {
		return apperrors.WithMetadata(apperrors.CodeGamePhaseInvalid, "operation out of phase", map[string]string{
			"phase": g.phase.String(),
			"want":  want.String(),
		})
	}
	return nil
}

// applySetback reduces a loss through the element shield, then
// resilience, subtracts the remainder from money, and returns it.
// Deliberate spends never come through here.
func (g *Game) applySetback(loss int64) int64 {
	reduced := character.ReduceLoss(loss, g.sheet.Element.SetbackShield())
	reduced = character.ReduceLoss(reduced, g.sheet.Resilience(g.cfg))
	g.money -= reduced
	return reduced
}

// rollEvent draws a d6 against a fixed table and applies its row.
func (g *Game) rollEvent(label string, table [6]eventEntry) (EventOutcome, error) {
	roll, err := g.roll(label, 6)
	if err != nil {
		return EventOutcome{}, err
	}
	entry := table[roll-1]
	out := EventOutcome{Label: label, Roll: roll, Name: entry.name}
	if entry.gain > 0 {
		g.money += entry.gain
		out.Money = entry.gain
	}
	if entry.setback > 0 {
		out.Money = -g.applySetback(entry.setback)
	}
	if entry.grant != nil {
		grant := *entry.grant
		g.ledger.Add(grant)
		out.Granted = &grant
	}
	return out, nil
}

// AssignmentResult reports the territory draw and the audit key roll.
type AssignmentResult struct {
	KeyRoll   int              `json:"key_roll"`
	Roll      int              `json:"roll"`
	Territory client.Territory `json:"territory"`
}

// AssignTerritory draws the audit key and the territory. The territory
// is immutable once assigned.
func (g *Game) AssignTerritory() (AssignmentResult, error) {
	if err := g.requirePhase(PhaseAssignment); err != nil {
		return AssignmentResult{}, err
	}
	if g.territory != client.TerritoryUnspecified {
		return AssignmentResult{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "territory already assigned")
	}

	keyRoll, err := g.roll("key", auditKeyDie)
	if err != nil {
		return AssignmentResult{}, err
	}
	roll, err := g.roll("territory", 6)
	if err != nil {
		return AssignmentResult{}, err
	}

	g.keyRoll = keyRoll
	g.territory = client.TerritoryFromRoll(roll)
	return AssignmentResult{KeyRoll: keyRoll, Roll: roll, Territory: g.territory}, nil
}

// TripResult reports the travel choice and the three road tables.
type TripResult struct {
	Choice  TravelChoice `json:"choice"`
	Cost    int64        `json:"cost"`
	Journey EventOutcome `json:"journey"`
	Drive   EventOutcome `json:"drive"`
	Lucky   EventOutcome `json:"lucky"`
	Money   int64        `json:"money"`
}

// ResolveTrip spends the chosen transport's cost, applies its side
// effect, and rolls the journey, drive, and lucky-item tables. The
// fare is a deliberate spend; table setbacks are shielded losses.
func (g *Game) ResolveTrip(choice TravelChoice) (TripResult, error) {
	if err := g.requirePhase(PhaseFirstTrip); err != nil {
		return TripResult{}, err
	}
	if g.tripResolved {
		return TripResult{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "trip already resolved")
	}
	option, ok := travelOptionFor(choice)
	if !ok {
		return TripResult{}, choiceInvalid(choice.String())
	}

	g.money -= option.cost
	if option.grant != nil {
		g.ledger.Add(*option.grant)
	}

	journey, err := g.rollEvent("journey", journeyTable)
	if err != nil {
		return TripResult{}, err
	}
	drive, err := g.rollEvent("drive", driveTable)
	if err != nil {
		return TripResult{}, err
	}
	lucky, err := g.rollEvent("lucky", luckyTable)
	if err != nil {
		return TripResult{}, err
	}

	g.tripResolved = true
	g.choices = append(g.choices, "travel:"+choice.String())
	return TripResult{
		Choice:  choice,
		Cost:    option.cost,
		Journey: journey,
		Drive:   drive,
		Lucky:   lucky,
		Money:   g.money,
	}, nil
}

// BeginFirstClient draws the ordinary client and opens its negotiation.
func (g *Game) BeginFirstClient() (client.Client, error) {
	return g.beginEncounter(PhaseFirstClient, "first", client.StakesOrdinary, g.firstConcluded)
}

// BeginWhale draws the whale and opens the quarter-closing negotiation.
func (g *Game) BeginWhale() (client.Client, error) {
	return g.beginEncounter(PhaseWhale, "whale", client.StakesWhale, g.whaleConcluded)
}

func (g *Game) beginEncounter(phase Phase, slot string, stakes client.Stakes, concluded bool) (client.Client, error) {
	if err := g.requirePhase(phase); err != nil {
		return client.Client{}, err
	}
	if concluded {
		return client.Client{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "negotiation already concluded")
	}
	if g.encounter != nil {
		return client.Client{}, apperrors.New(apperrors.CodeNegotiationActive, "negotiation already running")
	}

	nameRoll, err := g.roll(slot+":name", 6)
	if err != nil {
		return client.Client{}, err
	}
	c := client.New(g.territory, stakes, g.budgetScale, client.NameForRoll(g.territory, nameRoll))
	g.encounter = negotiation.New(slot, c, g.sheet, g.cfg, &g.ledger, gameRoller{g})
	return c, nil
}

// NegotiateResult wraps one negotiation action with the game-level
// settlement that followed it.
type NegotiateResult struct {
	Outcome   negotiation.Result `json:"outcome"`
	Concluded bool               `json:"concluded"`
	// Credited is the money added when the encounter concluded, after
	// the whale multiplier and element bonuses.
	Credited int64 `json:"credited"`
	// Penalty is the all-in charge applied when the whale paid nothing.
	Penalty int64 `json:"penalty,omitempty"`
	Money   int64 `json:"money"`
}

// Negotiate resolves one action against the running encounter. When
// the action concludes the encounter, the payout settles into money:
// whale payouts pass through the strategy multiplier, positive payouts
// earn element bonuses, and an all-in whale that paid nothing draws
// the penalty.
func (g *Game) Negotiate(action negotiation.Action) (NegotiateResult, error) {
	if g.phase != PhaseFirstClient && g.phase != PhaseWhale {
		return NegotiateResult{}, apperrors.WithMetadata(apperrors.CodeGamePhaseInvalid, "no negotiation in this phase", map[string]string{
			"phase": g.phase.String(),
		})
	}
	if g.encounter == nil {
		return NegotiateResult{}, apperrors.New(apperrors.CodeNegotiationInactive, "no active negotiation")
	}

	var (
		outcome negotiation.Result
		err     error
	)
	switch action {
	case negotiation.ActionPitch:
		outcome, err = g.encounter.Pitch()
	case negotiation.ActionListen:
		outcome, err = g.encounter.Listen()
	case negotiation.ActionConcede:
		outcome, err = g.encounter.Concede()
	case negotiation.ActionAbility:
		outcome, err = g.useAbility()
	default:
		return NegotiateResult{}, negotiation.ErrActionUnknown
	}
	if err != nil {
		return NegotiateResult{}, err
	}

	result := NegotiateResult{Outcome: outcome}
	if g.encounter.Status() != negotiation.StatusActive {
		record, penalty := g.concludeEncounter()
		result.Concluded = true
		result.Credited = record.Credited
		result.Penalty = penalty
	}
	result.Money = g.money
	return result, nil
}

func (g *Game) useAbility() (negotiation.Result, error) {
	if g.spiritUsed {
		return negotiation.Result{}, apperrors.WithMetadata(apperrors.CodeSpiritAlreadyUsed, "spirit ability already used", map[string]string{
			"spirit": g.sheet.Spirit.String(),
		})
	}
	ability := g.sheet.Spirit.Ability(g.sheet.Mod(character.StatWisdom))
	outcome, err := g.encounter.UseAbility(g.sheet.Spirit, ability)
	if err != nil {
		return negotiation.Result{}, err
	}
	g.spiritUsed = true
	g.money += ability.Money
	return outcome, nil
}

// EncounterRecord is the audit snapshot of a finished negotiation.
// Payout is what the table settled for; Credited is what actually
// reached money after multipliers and element bonuses.
type EncounterRecord struct {
	Slot     string               `json:"slot"`
	Client   client.Client        `json:"client"`
	Status   negotiation.Status   `json:"status"`
	Rounds   int                  `json:"rounds"`
	Payout   int64                `json:"payout"`
	Credited int64                `json:"credited"`
	Actions  []negotiation.Result `json:"actions"`
}

// concludeEncounter settles a finished negotiation into game money and
// files its record. Returns the record and any all-in penalty taken.
func (g *Game) concludeEncounter() (EncounterRecord, int64) {
	enc := g.encounter
	slot := "first"
	if g.phase == PhaseWhale {
		slot = "whale"
	}

	payout := enc.Payout()
	if g.phase == PhaseWhale {
		payout = payout * g.strategy.MultiplierPercent() / 100
	}

	var credited int64
	if payout > 0 {
		credited = payout + g.sheet.Element.DealBonus(payout, !g.firstDealClosed)
		g.money += credited
		g.firstDealClosed = true
	}

	var penalty int64
	if g.phase == PhaseWhale && g.strategy == StrategyAllIn && payout == 0 {
		penalty = g.applySetback(g.cfg.AllInPenalty)
	}

	record := EncounterRecord{
		Slot:     slot,
		Client:   enc.Client(),
		Status:   enc.Status(),
		Rounds:   enc.Round(),
		Payout:   enc.Payout(),
		Credited: credited,
		Actions:  enc.Actions(),
	}
	g.encounters = append(g.encounters, record)

	if g.phase == PhaseWhale {
		g.whaleConcluded = true
	} else {
		g.firstConcluded = true
	}
	g.encounter = nil
	return record, penalty
}

// CrossroadsResult reports the evening check. Spent is the deliberate
// upfront cost; Delta is the signed outcome applied to money.
type CrossroadsResult struct {
	Choice   CrossroadsChoice   `json:"choice"`
	Stat     character.Stat     `json:"stat"`
	Roll     int                `json:"roll"`
	Modifier int                `json:"modifier"`
	Total    int                `json:"total"`
	DC       int                `json:"dc"`
	Success  bool               `json:"success"`
	Spent    int64              `json:"spent"`
	Delta    int64              `json:"delta"`
	Granted  *modifier.Modifier `json:"granted,omitempty"`
}

// ResolveCrossroads runs the chosen evening gambit as a single d20
// check against the crossroads DC. Dinner pays or costs money, the
// gift spends up front and pays big on success, research banks a
// long-lived pitch buff for the whale.
func (g *Game) ResolveCrossroads(choice CrossroadsChoice) (CrossroadsResult, error) {
	if err := g.requirePhase(PhaseCrossroads); err != nil {
		return CrossroadsResult{}, err
	}
	if g.crossroadsResolved {
		return CrossroadsResult{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "crossroads already resolved")
	}
	if choice != CrossroadsDinner && choice != CrossroadsGift && choice != CrossroadsResearch {
		return CrossroadsResult{}, choiceInvalid(choice.String())
	}

	var spent int64
	if choice == CrossroadsGift {
		spent = crossroadsGiftCost
		g.money -= spent
	}

	roll, err := g.roll("crossroads", 20)
	if err != nil {
		return CrossroadsResult{}, err
	}
	stat := choice.Stat()
	mod := g.sheet.Mod(stat)
	total := roll + mod
	success := total >= g.cfg.CrossroadsDC

	result := CrossroadsResult{
		Choice:   choice,
		Stat:     stat,
		Roll:     roll,
		Modifier: mod,
		Total:    total,
		DC:       g.cfg.CrossroadsDC,
		Success:  success,
		Spent:    spent,
	}
	switch choice {
	case CrossroadsDinner:
		if success {
			g.money += crossroadsDinnerReward
			result.Delta = crossroadsDinnerReward
		} else {
			result.Delta = -g.applySetback(crossroadsDinnerSetback)
		}
	case CrossroadsGift:
		if success {
			g.money += crossroadsGiftReward
			result.Delta = crossroadsGiftReward
		}
	case CrossroadsResearch:
		if success {
			grant := researchGrant()
			g.ledger.Add(grant)
			result.Granted = &grant
		}
	}

	g.crossroadsResolved = true
	g.choices = append(g.choices, "crossroads:"+choice.String())
	return result, nil
}

// ResolveQuarterEvent rolls the market table.
func (g *Game) ResolveQuarterEvent() (EventOutcome, error) {
	if err := g.requirePhase(PhaseQuarterEvent); err != nil {
		return EventOutcome{}, err
	}
	if g.marketResolved {
		return EventOutcome{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "quarter event already resolved")
	}
	out, err := g.rollEvent("market", marketTable)
	if err != nil {
		return EventOutcome{}, err
	}
	g.marketResolved = true
	return out, nil
}

// StrategyResult reports the locked-in whale posture.
type StrategyResult struct {
	Strategy          Strategy `json:"strategy"`
	MultiplierPercent int64    `json:"multiplier_percent"`
	LegendaryUnlocked bool     `json:"legendary_unlocked"`
}

// ChooseStrategy locks in the VP-meeting posture. No die is rolled;
// the choice is immutable for the rest of the game.
func (g *Game) ChooseStrategy(choice Strategy) (StrategyResult, error) {
	if err := g.requirePhase(PhaseVPMeeting); err != nil {
		return StrategyResult{}, err
	}
	if g.strategy != StrategyUnspecified {
		return StrategyResult{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "strategy already chosen")
	}
	if choice != StrategySteady && choice != StrategyBold && choice != StrategyAllIn {
		return StrategyResult{}, choiceInvalid(choice.String())
	}

	g.strategy = choice
	g.legendaryUnlocked = choice.UnlocksLegendary()
	g.choices = append(g.choices, "strategy:"+choice.String())
	return StrategyResult{
		Strategy:          choice,
		MultiplierPercent: choice.MultiplierPercent(),
		LegendaryUnlocked: g.legendaryUnlocked,
	}, nil
}

// ResolvePrep rolls the whale-hunt table.
func (g *Game) ResolvePrep() (EventOutcome, error) {
	if err := g.requirePhase(PhaseWhalePrep); err != nil {
		return EventOutcome{}, err
	}
	if g.prepResolved {
		return EventOutcome{}, apperrors.New(apperrors.CodeGamePhaseInvalid, "whale prep already resolved")
	}
	out, err := g.rollEvent("hunt", huntTable)
	if err != nil {
		return EventOutcome{}, err
	}
	g.prepResolved = true
	return out, nil
}

// AdvanceResult reports one phase transition.
type AdvanceResult struct {
	From   Phase `json:"from"`
	To     Phase `json:"to"`
	Income int64 `json:"income"`
}

// AdvancePhase moves to the next phase once the current one is fully
// resolved: phase-scoped modifiers tick down by one and element income
// lands.
func (g *Game) AdvancePhase() (AdvanceResult, error) {
	if g.phase == PhaseQuarterEnd {
		return AdvanceResult{}, apperrors.New(apperrors.CodeGameComplete, "game is complete")
	}
	if pending := g.phasePending(); pending != "" {
		return AdvanceResult{}, apperrors.WithMetadata(apperrors.CodeGamePhaseInvalid, "phase not resolved", map[string]string{
			"phase":   g.phase.String(),
			"pending": pending,
		})
	}

	from := g.phase
	g.ledger.TickPhase()
	income := g.sheet.Element.PhaseIncome()
	g.money += income
	g.phase = g.phase.next()
	return AdvanceResult{From: from, To: g.phase, Income: income}, nil
}

// phasePending names the unresolved obligation blocking a phase
// advance, or returns empty when the phase is done.
func (g *Game) phasePending() string {
	switch g.phase {
	case PhaseAssignment:
		if g.territory == client.TerritoryUnspecified {
			return "territory not assigned"
		}
	case PhaseFirstTrip:
		if !g.tripResolved {
			return "trip not resolved"
		}
	case PhaseFirstClient:
		if !g.firstConcluded {
			return "first client negotiation not concluded"
		}
	case PhaseCrossroads:
		if !g.crossroadsResolved {
			return "crossroads not resolved"
		}
	case PhaseQuarterEvent:
		if !g.marketResolved {
			return "quarter event not resolved"
		}
	case PhaseVPMeeting:
		if g.strategy == StrategyUnspecified {
			return "strategy not chosen"
		}
	case PhaseWhalePrep:
		if !g.prepResolved {
			return "whale prep not resolved"
		}
	case PhaseWhale:
		if !g.whaleConcluded {
			return "whale negotiation not concluded"
		}
	}
	return ""
}

// TierResult reports the quarter's final rating.
type TierResult struct {
	Tier              Tier    `json:"tier"`
	Money             int64   `json:"money"`
	StartingMoney     int64   `json:"starting_money"`
	Ratio             float64 `json:"ratio"`
	LegendaryUnlocked bool    `json:"legendary_unlocked"`
}

// ComputeTier rates the finished quarter. Only valid at quarter end;
// calling it again returns the same result.
func (g *Game) ComputeTier() (TierResult, error) {
	if err := g.requirePhase(PhaseQuarterEnd); err != nil {
		return TierResult{}, err
	}
	return TierResult{
		Tier:              computeTier(g.money, g.startingMoney, g.legendaryUnlocked, g.cfg),
		Money:             g.money,
		StartingMoney:     g.startingMoney,
		Ratio:             float64(g.money) / float64(g.startingMoney),
		LegendaryUnlocked: g.legendaryUnlocked,
	}, nil
}

package negotiation

import (
	"fmt"

	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/client"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/modifier"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

// Encounter runs one negotiation. It owns its client copy; the ledger
// is shared with the surrounding game so phase-scoped buffs reach into
// the encounter and encounter-scoped ones are pruned when it ends.
//
// Dice labels: pitch rounds draw "<slot>:pitch:<round>" (d20) and the
// body die "<slot>:body:<round>" (d6), so a whale negotiation never
// collides with the first client's rolls.
type Encounter struct {
	slot   string
	client client.Client
	sheet  character.Sheet
	cfg    rules.Config
	ledger *modifier.Ledger
	roller fairroll.Roller

	round   int
	status  Status
	payout  int64
	actions []Result
}

// New starts a negotiation against the given client. The slot names the
// encounter's dice labels.
func New(slot string, c client.Client, sheet character.Sheet, cfg rules.Config, ledger *modifier.Ledger, roller fairroll.Roller) *Encounter {
	return &Encounter{
		slot:   slot,
		client: c,
		sheet:  sheet,
		cfg:    cfg,
		ledger: ledger,
		roller: roller,
		round:  1,
		status: StatusActive,
	}
}

// Client returns a snapshot of the opponent's current state.
func (e *Encounter) Client() client.Client { return e.client }

// Round is the current round number, starting at 1.
func (e *Encounter) Round() int { return e.round }

// Status reports whether the negotiation is active, closed, or lost.
func (e *Encounter) Status() Status { return e.status }

// Payout is the amount a closed negotiation settled for, before any
// game-level multipliers. Zero unless the status is Closed.
func (e *Encounter) Payout() int64 { return e.payout }

// Actions returns a copy of every resolved action in order.
func (e *Encounter) Actions() []Result {
	out := make([]Result, len(e.actions))
	copy(out, e.actions)
	return out
}

// Pitch rolls d20 plus the round's pitch modifier against the client's
// resistance. A success banks value into the running deal; patience
// drops by one either way, and the body-language die follows.
func (e *Encounter) Pitch() (Result, error) {
	if e.status != StatusActive {
		return Result{}, ErrInactive
	}
	round := e.round

	mod := e.sheet.BasePitchModifier(round, e.client.Territory.FavoredStat())
	mod += int(e.ledger.Sum(modifier.EffectPitch))

	roll, err := e.roller.Roll(fmt.Sprintf("%s:pitch:%d", e.slot, round), 20)
	if err != nil {
		return Result{}, err
	}
	total := roll + mod
	resistance := e.client.Resistance
	margin := total - resistance

	pitch := &PitchReport{
		Roll:       roll,
		Modifier:   mod,
		Total:      total,
		Resistance: resistance,
		Margin:     margin,
		Success:    total >= resistance,
	}
	if pitch.Success {
		pitch.Value = e.pitchValue(margin)
		e.client.AddDeal(pitch.Value)
		e.ledger.ConsumeForDeal()
	}
	e.ledger.ConsumeForPitch()
	e.client.SpendPatience(1)

	body, err := e.applyBody(round)
	if err != nil {
		return Result{}, err
	}

	e.endRound()
	result := e.snapshot(ActionPitch, round)
	result.Pitch = pitch
	result.Body = body
	e.actions = append(e.actions, result)
	return result, nil
}

// Listen spends the round reading the client: a one-pitch bonus lands
// in the ledger, patience drops by one, and body language still plays.
func (e *Encounter) Listen() (Result, error) {
	if e.status != StatusActive {
		return Result{}, ErrInactive
	}
	round := e.round

	e.ledger.Add(modifier.Modifier{
		Description: "listened closely",
		Kind:        modifier.KindBuff,
		Effect:      modifier.EffectPitch,
		Value:       int64(e.cfg.ListenPitchBonus),
		Source:      modifier.SourceListen,
		Scope:       modifier.ScopePitches,
		Remaining:   1,
	})
	e.client.SpendPatience(1)

	body, err := e.applyBody(round)
	if err != nil {
		return Result{}, err
	}

	e.endRound()
	result := e.snapshot(ActionListen, round)
	result.Body = body
	e.actions = append(e.actions, result)
	return result, nil
}

// Concede closes the deal immediately at the configured fraction of the
// accumulated value. A full-concession effect pays the whole deal. No
// die is rolled and no round is consumed.
func (e *Encounter) Concede() (Result, error) {
	if e.status != StatusActive {
		return Result{}, ErrInactive
	}

	percent := e.cfg.ConcedePercent
	if e.ledger.Has(modifier.EffectConcedeFull) {
		percent = 100
	}
	e.payout = e.client.DealValue * percent / 100
	e.client.Close()
	e.status = StatusClosed
	e.ledger.PruneEncounter()

	result := e.snapshot(ActionConcede, e.round)
	result.Payout = e.payout
	e.actions = append(e.actions, result)
	return result, nil
}

// UseAbility resolves a spirit invocation inside the negotiation. The
// game enforces the once-per-game guard and credits any money award;
// the encounter applies the ledger grant. No round is consumed.
func (e *Encounter) UseAbility(spirit character.Spirit, outcome character.AbilityOutcome) (Result, error) {
	if e.status != StatusActive {
		return Result{}, ErrInactive
	}

	report := &AbilityReport{Spirit: spirit, Money: outcome.Money}
	if outcome.Modifier != nil {
		grant := *outcome.Modifier
		e.ledger.Add(grant)
		report.Grant = &grant
	}

	result := e.snapshot(ActionAbility, e.round)
	result.Ability = report
	e.actions = append(e.actions, result)
	return result, nil
}

// pitchValue derives the money a successful pitch adds: a budget share
// grown by the success margin up to a cap, plus the closing bonus,
// floored at the minimum, plus any deal-effect buffs. Margin is never
// negative here.
func (e *Encounter) pitchValue(margin int) int64 {
	bonus := e.cfg.PitchMarginStepPercent * int64(margin)
	if bonus > e.cfg.PitchMarginCapPercent {
		bonus = e.cfg.PitchMarginCapPercent
	}
	value := e.client.Budget * e.cfg.PitchBasePercent * (100 + bonus) / 10000
	value += e.sheet.ClosingBonus(e.cfg)
	if value < e.cfg.MinPitchValue {
		value = e.cfg.MinPitchValue
	}
	value += e.ledger.Sum(modifier.EffectDeal)
	return value
}

// applyBody rolls and applies the round's body-language die. The raw
// d6 is shifted by the character's read, clamped back to 1..6, then
// mapped to a read whose side effects land after the pitch result.
func (e *Encounter) applyBody(round int) (*BodyReport, error) {
	roll, err := e.roller.Roll(fmt.Sprintf("%s:body:%d", e.slot, round), 6)
	if err != nil {
		return nil, err
	}
	shifted := clampDie(roll + e.sheet.BodyShift(round))
	read := readForDie(shifted)

	report := &BodyReport{Roll: roll, Shifted: shifted, Read: read}
	if (read == BodyArmsCrossed || read == BodySkeptical) && e.ledger.Has(modifier.EffectBodyCalm) {
		report.Read = BodyNeutral
		report.Calmed = true
		return report, nil
	}

	switch read {
	case BodyArmsCrossed:
		if !e.ledger.Has(modifier.EffectPatienceGuard) {
			e.client.SpendPatience(2)
		}
		if !e.ledger.Has(modifier.EffectResistHold) {
			e.client.RaiseResistance(1)
		}
	case BodySkeptical:
		if !e.ledger.Has(modifier.EffectResistHold) {
			e.client.RaiseResistance(2)
		}
	case BodyInterested:
		e.client.LowerResistance(1, e.cfg.MinResistance)
	case BodyEngaged:
		e.client.LowerResistance(2, e.cfg.MinResistance)
		e.client.AddDeal(e.client.DealValue / 10)
	}
	return report, nil
}

// endRound closes a pitch or listen round: round-scoped modifiers tick,
// the counter advances, and an out-of-patience client loses the deal.
func (e *Encounter) endRound() {
	e.ledger.TickRound()
	e.round++
	if !e.client.Active && e.status == StatusActive {
		e.status = StatusLost
		e.ledger.PruneEncounter()
	}
}

func (e *Encounter) snapshot(action Action, round int) Result {
	return Result{
		Action:     action,
		Round:      round,
		Status:     e.status,
		Patience:   e.client.Patience,
		Resistance: e.client.Resistance,
		DealValue:  e.client.DealValue,
	}
}

func clampDie(v int) int {
	if v < 1 {
		return 1
	}
	if v > 6 {
		return 6
	}
	return v
}

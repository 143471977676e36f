// Package app hosts running sales games and exposes the quarter's
// operations as a use-case layer over the domain engine. Games live in
// an in-memory registry; finished runs that rate an eligible tier are
// filed to the achievement store.
package app

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/vdappdev2/vcharacter-sales/internal/chain"
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/pagination"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/client"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/negotiation"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage"
)

// Publisher receives per-game events after each successful operation.
type Publisher interface {
	Publish(event Event)
}

// Event is one entry on a game's live feed.
type Event struct {
	GameID string    `json:"game_id"`
	Type   string    `json:"type"`
	Phase  string    `json:"phase"`
	Money  int64     `json:"money"`
	At     time.Time `json:"at"`
	Detail any       `json:"detail,omitempty"`
}

// ServiceConfig wires the service's collaborators.
type ServiceConfig struct {
	Rules   rules.Config
	Store   storage.AchievementStore
	Entropy chain.EntropySource
	Events  Publisher
}

// Service runs hosted games end to end: creation, entropy commitment
// and reveal, phase operations, and achievement filing.
type Service struct {
	rules    rules.Config
	registry *Registry
	store    storage.AchievementStore
	entropy  chain.EntropySource
	events   Publisher
	now      func() time.Time
}

// NewService builds the sales service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	if cfg.Store == nil {
		return nil, errors.New("achievement store is required")
	}
	if cfg.Entropy == nil {
		return nil, errors.New("entropy source is required")
	}
	return &Service{
		rules:    cfg.Rules,
		registry: NewRegistry(),
		store:    cfg.Store,
		entropy:  cfg.Entropy,
		events:   cfg.Events,
		now:      time.Now,
	}, nil
}

// GameSummary is the hosted game's public state.
type GameSummary struct {
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	Phase         string          `json:"phase"`
	Money         int64           `json:"money"`
	StartingMoney int64           `json:"starting_money"`
	BudgetScale   float64         `json:"budget_scale"`
	Character     character.Sheet `json:"character"`
	Complete      bool            `json:"complete"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CommitState is one entropy bundle's commitment slot.
type CommitState struct {
	Bundle     int    `json:"bundle"`
	Commitment string `json:"commitment"`
	Height     uint64 `json:"height"`
	Revealed   bool   `json:"revealed"`
}

// RevealResult reports a completed seed reveal.
type RevealResult struct {
	Bundle    int    `json:"bundle"`
	Height    uint64 `json:"block_height"`
	BlockHash string `json:"block_hash"`
}

// AuditView is the full verifiable trail of a hosted game.
type AuditView struct {
	ID      string         `json:"id"`
	Owner   string         `json:"owner"`
	Commits []CommitState  `json:"commits"`
	Record  quarter.Record `json:"record"`
}

func (s *Service) summary(hg *hostedGame) GameSummary {
	return GameSummary{
		ID:            hg.id,
		Owner:         hg.owner,
		Phase:         hg.game.Phase().String(),
		Money:         hg.game.Money(),
		StartingMoney: hg.game.StartingMoney(),
		BudgetScale:   hg.game.BudgetScale(),
		Character:     hg.game.Sheet(),
		Complete:      hg.game.Complete(),
		CreatedAt:     hg.createdAt,
	}
}

// publish drops the event when no publisher is wired. Callers hold the
// hosted game's mutex so phase and money read consistently.
func (s *Service) publish(hg *hostedGame, eventType string, detail any) {
	if s.events == nil {
		return
	}
	s.events.Publish(Event{
		GameID: hg.id,
		Type:   eventType,
		Phase:  hg.game.Phase().String(),
		Money:  hg.game.Money(),
		At:     s.now().UTC(),
		Detail: detail,
	})
}

// CreateGame verifies a rolled sheet and opens a quarter for it.
func (s *Service) CreateGame(ctx context.Context, owner string, sheet character.Sheet) (GameSummary, error) {
	if err := ctx.Err(); err != nil {
		return GameSummary{}, err
	}
	hg, err := s.registry.create(owner, sheet, s.rules)
	if err != nil {
		return GameSummary{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	s.publish(hg, "game.created", nil)
	return s.summary(hg), nil
}

// Game returns the current state of one hosted game.
func (s *Service) Game(ctx context.Context, id, owner string) (GameSummary, error) {
	if err := ctx.Err(); err != nil {
		return GameSummary{}, err
	}
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return GameSummary{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	return s.summary(hg), nil
}

// Audit returns the game's commitment slots and full roll trail.
func (s *Service) Audit(ctx context.Context, id, owner string) (AuditView, error) {
	if err := ctx.Err(); err != nil {
		return AuditView{}, err
	}
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return AuditView{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	return AuditView{
		ID:      hg.id,
		Owner:   hg.owner,
		Commits: hg.commitStates(),
		Record:  hg.game.Snapshot(),
	}, nil
}

// ChainHeight reports the entropy chain's current tip so clients can
// pick a commitment target past it.
func (s *Service) ChainHeight(ctx context.Context) (uint64, error) {
	return s.entropy.BestHeight(ctx)
}

// Commit publishes a seed commitment against a target block height for
// the next open entropy bundle.
func (s *Service) Commit(ctx context.Context, id, owner string, height uint64, commitment string) (CommitState, error) {
	if err := ctx.Err(); err != nil {
		return CommitState{}, err
	}
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return CommitState{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	bundle, err := hg.commit(height, commitment)
	if err != nil {
		return CommitState{}, err
	}
	state := CommitState{
		Bundle:     bundle,
		Commitment: hg.commits[bundle-1].commitment,
		Height:     height,
	}
	s.publish(hg, "entropy.committed", state)
	return state, nil
}

// Reveal discloses the seed behind the oldest unrevealed commitment,
// waits for the committed block if the chain has not reached it, and
// feeds the pair to the engine. The wait is bounded by ctx; a reveal
// that outlives its deadline reports the block as still unknown.
func (s *Service) Reveal(ctx context.Context, id, owner, clientSeed string) (RevealResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return RevealResult{}, err
	}
	hg.mu.Lock()
	bundle, slot, err := hg.pendingReveal()
	if err != nil {
		hg.mu.Unlock()
		return RevealResult{}, err
	}
	commitment, height := slot.commitment, slot.height
	hg.mu.Unlock()

	if err := fairroll.VerifyCommitment(clientSeed, commitment); err != nil {
		return RevealResult{}, err
	}
	// The chain wait runs outside the game lock so a slow block cannot
	// stall audit reads or the event stream.
	blockHash, err := s.entropy.WaitForHeight(ctx, height)
	if err != nil {
		if ctx.Err() != nil {
			return RevealResult{}, apperrors.WrapWithMetadata(apperrors.CodeBlockUnknown, "target block not mined before deadline", map[string]string{
				"height": strconv.FormatUint(height, 10),
			}, err)
		}
		return RevealResult{}, err
	}
	pair, err := fairroll.NewSeedPair(height, blockHash, clientSeed)
	if err != nil {
		return RevealResult{}, err
	}

	hg.mu.Lock()
	defer hg.mu.Unlock()
	if slot.revealed {
		return RevealResult{}, apperrors.New(apperrors.CodeEntropyAlreadySet, "commitment already revealed")
	}
	if _, err := hg.game.SupplyEntropy(pair); err != nil {
		return RevealResult{}, err
	}
	slot.revealed = true
	result := RevealResult{Bundle: bundle, Height: height, BlockHash: blockHash}
	s.publish(hg, "entropy.revealed", result)
	return result, nil
}

// AssignTerritory rolls the audit key and the territory.
func (s *Service) AssignTerritory(ctx context.Context, id, owner string) (quarter.AssignmentResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.AssignmentResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.AssignTerritory()
	if err != nil {
		return quarter.AssignmentResult{}, err
	}
	s.publish(hg, "territory.assigned", res)
	return res, nil
}

// ResolveTrip resolves travel to the territory.
func (s *Service) ResolveTrip(ctx context.Context, id, owner string, choice quarter.TravelChoice) (quarter.TripResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.TripResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.ResolveTrip(choice)
	if err != nil {
		return quarter.TripResult{}, err
	}
	s.publish(hg, "trip.resolved", res)
	return res, nil
}

// BeginEncounter opens the negotiation the current phase calls for.
func (s *Service) BeginEncounter(ctx context.Context, id, owner string) (client.Client, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return client.Client{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	var opened client.Client
	switch hg.game.Phase() {
	case quarter.PhaseWhale:
		opened, err = hg.game.BeginWhale()
	default:
		opened, err = hg.game.BeginFirstClient()
	}
	if err != nil {
		return client.Client{}, err
	}
	s.publish(hg, "encounter.opened", opened)
	return opened, nil
}

// Negotiate applies one action to the running encounter.
func (s *Service) Negotiate(ctx context.Context, id, owner string, action negotiation.Action) (quarter.NegotiateResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.NegotiateResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.Negotiate(action)
	if err != nil {
		return quarter.NegotiateResult{}, err
	}
	s.publish(hg, "negotiation.action", res)
	return res, nil
}

// ResolveCrossroads runs the chosen evening gambit.
func (s *Service) ResolveCrossroads(ctx context.Context, id, owner string, choice quarter.CrossroadsChoice) (quarter.CrossroadsResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.CrossroadsResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.ResolveCrossroads(choice)
	if err != nil {
		return quarter.CrossroadsResult{}, err
	}
	s.publish(hg, "crossroads.resolved", res)
	return res, nil
}

// ResolveQuarterEvent rolls the market table.
func (s *Service) ResolveQuarterEvent(ctx context.Context, id, owner string) (quarter.EventOutcome, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.EventOutcome{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.ResolveQuarterEvent()
	if err != nil {
		return quarter.EventOutcome{}, err
	}
	s.publish(hg, "market.resolved", res)
	return res, nil
}

// ChooseStrategy locks in the VP-meeting posture.
func (s *Service) ChooseStrategy(ctx context.Context, id, owner string, choice quarter.Strategy) (quarter.StrategyResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.StrategyResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.ChooseStrategy(choice)
	if err != nil {
		return quarter.StrategyResult{}, err
	}
	s.publish(hg, "strategy.chosen", res)
	return res, nil
}

// ResolvePrep rolls the whale-hunt table.
func (s *Service) ResolvePrep(ctx context.Context, id, owner string) (quarter.EventOutcome, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.EventOutcome{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.ResolvePrep()
	if err != nil {
		return quarter.EventOutcome{}, err
	}
	s.publish(hg, "prep.resolved", res)
	return res, nil
}

// AdvancePhase moves the game to its next phase.
func (s *Service) AdvancePhase(ctx context.Context, id, owner string) (quarter.AdvanceResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.AdvanceResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.AdvancePhase()
	if err != nil {
		return quarter.AdvanceResult{}, err
	}
	s.publish(hg, "phase.advanced", res)
	return res, nil
}

// ComputeTier rates the finished quarter and files eligible runs to
// the achievement store. Refiling an already-filed run is a no-op.
func (s *Service) ComputeTier(ctx context.Context, id, owner string) (quarter.TierResult, error) {
	hg, err := s.registry.get(id, owner)
	if err != nil {
		return quarter.TierResult{}, err
	}
	hg.mu.Lock()
	defer hg.mu.Unlock()
	res, err := hg.game.ComputeTier()
	if err != nil {
		return quarter.TierResult{}, err
	}
	if res.Tier.Persistable() {
		achievement := storage.FromRecord(hg.id, hg.game.Snapshot())
		achievement.CreatedAt = s.now().UTC()
		err := s.store.CreateAchievement(ctx, achievement)
		if err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
			return quarter.TierResult{}, apperrors.Wrap(apperrors.CodeUnknown, "file achievement", err)
		}
	}
	s.publish(hg, "tier.computed", res)
	return res, nil
}

// achievementPaging bounds the achievement list's page size.
var achievementPaging = pagination.PageSizeConfig{Default: 20, Max: 100}

// Achievements lists persisted runs. Absent or oversized page sizes
// are folded into the configured bounds.
func (s *Service) Achievements(ctx context.Context, pageSize int, pageToken string) (storage.AchievementPage, error) {
	return s.store.ListAchievements(ctx, pagination.ClampPageSize(pageSize, achievementPaging), pagination.CleanPageToken(pageToken))
}

// Achievement fetches one persisted run.
func (s *Service) Achievement(ctx context.Context, id string) (storage.Achievement, error) {
	return s.store.GetAchievement(ctx, id)
}

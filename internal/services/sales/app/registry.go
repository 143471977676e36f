package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/quarter"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
)

// seedCommit is one entropy bundle's published commitment, waiting for
// its seed reveal.
type seedCommit struct {
	commitment string
	height     uint64
	revealed   bool
}

// hostedGame pairs a running engine with its commitment slots. All
// access goes through mu; the engine itself is single-threaded.
type hostedGame struct {
	id        string
	owner     string
	createdAt time.Time

	mu      sync.Mutex
	game    *quarter.Game
	commits [quarter.EntropyBundles]*seedCommit
}

// Registry holds the in-memory set of hosted games keyed by id.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*hostedGame
	now   func() time.Time
}

// NewRegistry creates an empty game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]*hostedGame),
		now:   time.Now,
	}
}

// create verifies the sheet, opens a quarter for it, and registers the
// hosted game under a fresh id.
func (r *Registry) create(owner string, sheet character.Sheet, cfg rules.Config) (*hostedGame, error) {
	if err := character.VerifySheet(sheet); err != nil {
		return nil, err
	}
	game, err := quarter.NewGame(sheet, cfg)
	if err != nil {
		return nil, err
	}
	hosted := &hostedGame{
		id:        uuid.NewString(),
		owner:     owner,
		createdAt: r.now().UTC(),
		game:      game,
	}
	r.mu.Lock()
	r.games[hosted.id] = hosted
	r.mu.Unlock()
	return hosted, nil
}

// get looks up a hosted game, hiding games owned by other sellers.
func (r *Registry) get(id, owner string) (*hostedGame, error) {
	r.mu.RLock()
	hosted, ok := r.games[id]
	r.mu.RUnlock()
	if !ok || hosted.owner != owner {
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "game not found", map[string]string{
			"game_id": id,
		})
	}
	return hosted, nil
}

// commit records a commitment for the next open bundle slot. Callers
// hold hg.mu.
func (hg *hostedGame) commit(height uint64, commitment string) (int, error) {
	folded, err := fairroll.NormalizeCommitment(commitment)
	if err != nil {
		return 0, err
	}
	if height == 0 {
		return 0, apperrors.New(apperrors.CodeSeedMalformed, "target block height is required")
	}
	for i, slot := range hg.commits {
		if slot != nil {
			continue
		}
		hg.commits[i] = &seedCommit{commitment: folded, height: height}
		return i + 1, nil
	}
	return 0, apperrors.New(apperrors.CodeEntropyAlreadySet, "all entropy bundles committed")
}

// pendingReveal returns the first committed slot whose seed has not
// been revealed yet. Callers hold hg.mu.
func (hg *hostedGame) pendingReveal() (int, *seedCommit, error) {
	for i, slot := range hg.commits {
		if slot == nil {
			break
		}
		if !slot.revealed {
			return i + 1, slot, nil
		}
	}
	return 0, nil, apperrors.New(apperrors.CodeEntropyMissing, "no commitment pending reveal")
}

// commitStates snapshots the bundle slots for audit views. Callers
// hold hg.mu.
func (hg *hostedGame) commitStates() []CommitState {
	out := make([]CommitState, 0, len(hg.commits))
	for i, slot := range hg.commits {
		if slot == nil {
			break
		}
		out = append(out, CommitState{
			Bundle:     i + 1,
			Commitment: slot.commitment,
			Height:     slot.height,
			Revealed:   slot.revealed,
		})
	}
	return out
}

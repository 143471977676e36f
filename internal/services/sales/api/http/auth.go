package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vdappdev2/vcharacter-sales/internal/identity"
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
)

// challenge is an issued signing nonce awaiting its signature.
type challenge struct {
	name    string
	expires time.Time
}

// challengeStore tracks outstanding signing challenges. Entries are
// single use and expire after the configured TTL.
type challengeStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]challenge
	now     func() time.Time
}

func newChallengeStore(ttl time.Duration) *challengeStore {
	return &challengeStore{
		ttl:     ttl,
		entries: make(map[string]challenge),
		now:     time.Now,
	}
}

// issue mints a challenge nonce bound to one identity name.
func (cs *challengeStore) issue(name string) (string, time.Time) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	now := cs.now()
	for id, entry := range cs.entries {
		if now.After(entry.expires) {
			delete(cs.entries, id)
		}
	}
	id := uuid.NewString()
	expires := now.Add(cs.ttl)
	cs.entries[id] = challenge{name: name, expires: expires}
	return id, expires
}

// take consumes a challenge. A missing, expired, or already-used id
// reports false.
func (cs *challengeStore) take(id, name string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	entry, ok := cs.entries[id]
	if !ok {
		return false
	}
	delete(cs.entries, id)
	return entry.name == name && !cs.now().After(entry.expires)
}

type challengeRequest struct {
	Name string `json:"name"`
}

type challengeResponse struct {
	Name      string    `json:"name"`
	Challenge string    `json:"challenge"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleChallenge hands out a nonce for the named identity to sign.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := identity.NormalizeName(req.Name)
	if name == "" || name == "@" {
		writeDomainError(w, apperrors.New(apperrors.CodeIdentityUnknown, "identity name is required"))
		return
	}
	id, expires := s.challenges.issue(name)
	writeJSON(w, http.StatusOK, challengeResponse{
		Name:      name,
		Challenge: id,
		ExpiresAt: expires.UTC(),
	})
}

type grantRequest struct {
	Name      string `json:"name"`
	Challenge string `json:"challenge"`
	Signature string `json:"signature"`
}

type grantResponse struct {
	Grant     string    `json:"grant"`
	Player    string    `json:"player"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleIssueGrant trades a signed challenge for a session grant. The
// signature must verify against the identity's on-chain signing key.
func (s *Server) handleIssueGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := identity.NormalizeName(req.Name)
	if !s.challenges.take(req.Challenge, name) {
		writeDomainError(w, apperrors.New(apperrors.CodeSignatureInvalid, "challenge is unknown or expired"))
		return
	}
	resolved, err := s.resolver.Resolve(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := identity.VerifyMessage(resolved, []byte(req.Challenge), req.Signature); err != nil {
		writeDomainError(w, err)
		return
	}
	grant, err := identity.IssueGrant(s.grantKey, s.grants, resolved.Name, "", s.grantTTL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grantResponse{
		Grant:     grant,
		Player:    resolved.Name,
		ExpiresAt: time.Now().Add(s.grantTTL).UTC(),
	})
}

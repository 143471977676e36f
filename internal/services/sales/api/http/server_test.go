package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vdappdev2/vcharacter-sales/internal/identity"
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/app"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/character"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/fairroll"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage"
)

// staticResolver resolves identities from a fixed table.
type staticResolver struct {
	identities map[string]identity.Identity
}

func (r *staticResolver) Resolve(_ context.Context, name string) (identity.Identity, error) {
	id, ok := r.identities[identity.NormalizeName(name)]
	if !ok {
		return identity.Identity{}, apperrors.WithMetadata(apperrors.CodeIdentityUnknown, "identity not found", map[string]string{
			"name": name,
		})
	}
	return id, nil
}

type stubStore struct {
	achievements []storage.Achievement
}

func (s *stubStore) CreateAchievement(_ context.Context, achievement storage.Achievement) error {
	for _, got := range s.achievements {
		if got.ID == achievement.ID {
			return storage.ErrAlreadyExists
		}
	}
	s.achievements = append(s.achievements, achievement)
	return nil
}

func (s *stubStore) GetAchievement(_ context.Context, id string) (storage.Achievement, error) {
	for _, got := range s.achievements {
		if got.ID == id {
			return got, nil
		}
	}
	return storage.Achievement{}, storage.ErrNotFound
}

func (s *stubStore) ListAchievements(_ context.Context, _ int, _ string) (storage.AchievementPage, error) {
	return storage.AchievementPage{Achievements: s.achievements}, nil
}

type stubEntropy struct {
	hashes map[uint64]string
}

func (e *stubEntropy) BestHeight(context.Context) (uint64, error) {
	var best uint64
	for height := range e.hashes {
		if height > best {
			best = height
		}
	}
	return best, nil
}

func (e *stubEntropy) BlockHash(_ context.Context, height uint64) (string, error) {
	hash, ok := e.hashes[height]
	if !ok {
		return "", apperrors.WithMetadata(apperrors.CodeBlockUnknown, "block not found", map[string]string{
			"height": fmt.Sprintf("%d", height),
		})
	}
	return hash, nil
}

func (e *stubEntropy) WaitForHeight(ctx context.Context, height uint64) (string, error) {
	return e.BlockHash(ctx, height)
}

type testServer struct {
	server    *Server
	store     *stubStore
	entropy   *stubEntropy
	playerKey ed25519.PrivateKey
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	grantPub, grantKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate grant key: %v", err)
	}
	playerPub, playerKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate player key: %v", err)
	}

	store := &stubStore{}
	entropy := &stubEntropy{hashes: make(map[uint64]string)}
	service, err := app.NewService(app.ServiceConfig{
		Rules:   rules.Default(),
		Store:   store,
		Entropy: entropy,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	server, err := NewServer(Config{
		Service: service,
		Resolver: &staticResolver{identities: map[string]identity.Identity{
			"seller@": {Name: "seller@", Key: playerPub},
		}},
		GrantKey: grantKey,
		Grants: identity.GrantConfig{
			Issuer:   "vcsales-test",
			Audience: "vcsales-test-api",
			Key:      grantPub,
		},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testServer{server: server, store: store, entropy: entropy, playerKey: playerKey}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// grant walks the challenge and grant exchange for the seller identity.
func (ts *testServer) grant(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/v1/auth/challenge", "", map[string]string{"name": "seller"})
	if w.Code != http.StatusOK {
		t.Fatalf("challenge status = %d, body %s", w.Code, w.Body.String())
	}
	challenge := decodeBody[struct {
		Name      string `json:"name"`
		Challenge string `json:"challenge"`
	}](t, w)
	if challenge.Name != "seller@" {
		t.Fatalf("challenge name = %q, want seller@", challenge.Name)
	}
	if challenge.Challenge == "" {
		t.Fatal("challenge id is empty")
	}

	signature := identity.SignMessage(ts.playerKey, []byte(challenge.Challenge))
	w = ts.do(t, http.MethodPost, "/v1/auth/grants", "", map[string]string{
		"name":      "seller",
		"challenge": challenge.Challenge,
		"signature": signature,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("grant status = %d, body %s", w.Code, w.Body.String())
	}
	grant := decodeBody[struct {
		Grant  string `json:"grant"`
		Player string `json:"player"`
	}](t, w)
	if grant.Player != "seller@" {
		t.Fatalf("grant player = %q, want seller@", grant.Player)
	}
	if grant.Grant == "" {
		t.Fatal("grant token is empty")
	}
	return grant.Grant
}

func rolledSheet(t *testing.T) character.Sheet {
	t.Helper()
	pair, err := fairroll.NewSeedPair(4200, strings.Repeat("ab", 32), strings.Repeat("cd", 32))
	if err != nil {
		t.Fatalf("new seed pair: %v", err)
	}
	src, err := fairroll.NewSource(pair)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	sheet, err := character.RollSheet(src, "API Seller")
	if err != nil {
		t.Fatalf("roll sheet: %v", err)
	}
	return sheet
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody[map[string]bool](t, w)
	if !body["ok"] {
		t.Fatalf("body = %v, want ok true", body)
	}
}

func TestChainHeightReportsTip(t *testing.T) {
	ts := newTestServer(t)
	ts.entropy.hashes[64] = strings.Repeat("cd", 32)
	ts.entropy.hashes[120] = strings.Repeat("ab", 32)

	w := ts.do(t, http.MethodGet, "/v1/chain/height", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := decodeBody[struct {
		Height uint64 `json:"height"`
	}](t, w)
	if body.Height != 120 {
		t.Fatalf("height = %d, want 120", body.Height)
	}
}

func TestAuthFlowIssuesUsableGrant(t *testing.T) {
	ts := newTestServer(t)
	token := ts.grant(t)

	w := ts.do(t, http.MethodPost, "/v1/games", token, map[string]any{"character": rolledSheet(t)})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	summary := decodeBody[app.GameSummary](t, w)
	if summary.Owner != "seller@" {
		t.Fatalf("owner = %q, want seller@", summary.Owner)
	}
	if summary.Phase != "assignment" {
		t.Fatalf("phase = %q, want assignment", summary.Phase)
	}
	if summary.ID == "" {
		t.Fatal("game id is empty")
	}

	w = ts.do(t, http.MethodGet, "/v1/games/"+summary.ID, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestAuthRejectsMissingAndBadTokens(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/games", "", map[string]any{"character": rolledSheet(t)})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = ts.do(t, http.MethodPost, "/v1/games", "not-a-grant", map[string]any{"character": rolledSheet(t)})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	body := decodeBody[map[string]string](t, w)
	if body["code"] != string(apperrors.CodeGrantInvalid) {
		t.Fatalf("code = %q, want %s", body["code"], apperrors.CodeGrantInvalid)
	}
}

func TestChallengeIsSingleUse(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/auth/challenge", "", map[string]string{"name": "seller"})
	if w.Code != http.StatusOK {
		t.Fatalf("challenge status = %d", w.Code)
	}
	challenge := decodeBody[struct {
		Challenge string `json:"challenge"`
	}](t, w)
	signature := identity.SignMessage(ts.playerKey, []byte(challenge.Challenge))
	grantReq := map[string]string{
		"name":      "seller",
		"challenge": challenge.Challenge,
		"signature": signature,
	}

	w = ts.do(t, http.MethodPost, "/v1/auth/grants", "", grantReq)
	if w.Code != http.StatusOK {
		t.Fatalf("first grant status = %d, body %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPost, "/v1/auth/grants", "", grantReq)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replayed grant status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	body := decodeBody[map[string]string](t, w)
	if body["code"] != string(apperrors.CodeSignatureInvalid) {
		t.Fatalf("code = %q, want %s", body["code"], apperrors.CodeSignatureInvalid)
	}
}

func TestGrantRejectsWrongKeySignature(t *testing.T) {
	ts := newTestServer(t)
	_, wrongKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	w := ts.do(t, http.MethodPost, "/v1/auth/challenge", "", map[string]string{"name": "seller"})
	challenge := decodeBody[struct {
		Challenge string `json:"challenge"`
	}](t, w)

	w = ts.do(t, http.MethodPost, "/v1/auth/grants", "", map[string]string{
		"name":      "seller",
		"challenge": challenge.Challenge,
		"signature": identity.SignMessage(wrongKey, []byte(challenge.Challenge)),
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCommitRevealAssignOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := ts.grant(t)

	w := ts.do(t, http.MethodPost, "/v1/games", token, map[string]any{"character": rolledSheet(t)})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	summary := decodeBody[app.GameSummary](t, w)

	seed := strings.Repeat("5f", 32)
	commitment, err := fairroll.Commitment(seed)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}
	w = ts.do(t, http.MethodPost, "/v1/games/"+summary.ID+"/commits", token, map[string]any{
		"height":     500,
		"commitment": commitment,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("commit status = %d, body %s", w.Code, w.Body.String())
	}
	state := decodeBody[app.CommitState](t, w)
	if state.Bundle != 1 {
		t.Fatalf("bundle = %d, want 1", state.Bundle)
	}

	ts.entropy.hashes[500] = strings.Repeat("1a", 32)
	w = ts.do(t, http.MethodPost, "/v1/games/"+summary.ID+"/reveals", token, map[string]string{
		"client_seed": seed,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reveal status = %d, body %s", w.Code, w.Body.String())
	}
	reveal := decodeBody[app.RevealResult](t, w)
	if reveal.Bundle != 1 || reveal.BlockHash != strings.Repeat("1a", 32) {
		t.Fatalf("reveal = %+v", reveal)
	}

	w = ts.do(t, http.MethodPost, "/v1/games/"+summary.ID+"/assignment", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("assignment status = %d, body %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodPost, "/v1/games/"+summary.ID+"/advance", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("advance status = %d, body %s", w.Code, w.Body.String())
	}

	w = ts.do(t, http.MethodGet, "/v1/games/"+summary.ID+"/audit", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("audit status = %d, body %s", w.Code, w.Body.String())
	}
	audit := decodeBody[app.AuditView](t, w)
	if len(audit.Commits) != 1 || !audit.Commits[0].Revealed {
		t.Fatalf("audit commits = %+v, want one revealed", audit.Commits)
	}
}

func TestDomainErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	token := ts.grant(t)

	w := ts.do(t, http.MethodGet, "/v1/games/no-such-game", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown game status = %d, want %d", w.Code, http.StatusNotFound)
	}
	body := decodeBody[map[string]string](t, w)
	if body["code"] != string(apperrors.CodeNotFound) {
		t.Fatalf("code = %q, want %s", body["code"], apperrors.CodeNotFound)
	}

	created := ts.do(t, http.MethodPost, "/v1/games", token, map[string]any{"character": rolledSheet(t)})
	summary := decodeBody[app.GameSummary](t, created)
	w = ts.do(t, http.MethodPost, "/v1/games/"+summary.ID+"/trip", token, map[string]string{"choice": "teleport"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad choice status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	body = decodeBody[map[string]string](t, w)
	if body["code"] != string(apperrors.CodeChoiceInvalid) {
		t.Fatalf("code = %q, want %s", body["code"], apperrors.CodeChoiceInvalid)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/v1/auth/challenge", "", map[string]string{
		"name":    "seller",
		"surname": "unexpected",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAchievementEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.store.achievements = []storage.Achievement{{ID: "run-1", CharacterName: "API Seller"}}

	w := ts.do(t, http.MethodGet, "/v1/achievements", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	page := decodeBody[storage.AchievementPage](t, w)
	if len(page.Achievements) != 1 || page.Achievements[0].ID != "run-1" {
		t.Fatalf("page = %+v", page)
	}

	w = ts.do(t, http.MethodGet, "/v1/achievements/run-1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/v1/achievements/run-2", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = ts.do(t, http.MethodGet, "/v1/achievements?page_size=oops", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad page size status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestStreamRouteWithoutHub(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/v1/games/any/stream", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

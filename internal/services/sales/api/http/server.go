// Package http exposes the sales service over a JSON HTTP API. Routes
// follow the hosted game lifecycle: identity grants, game creation,
// entropy commitment and reveal, phase operations, audit reads, and
// the persisted achievement board.
package http

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vdappdev2/vcharacter-sales/internal/identity"
	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/requestctx"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/timeouts"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/api/stream"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/app"
)

const (
	defaultChallengeTTL = 5 * time.Minute
	defaultGrantTTL     = 12 * time.Hour
)

// Config wires the API server's collaborators.
type Config struct {
	Service  *app.Service
	Stream   *stream.Hub
	Resolver identity.Resolver
	GrantKey ed25519.PrivateKey
	Grants   identity.GrantConfig

	// ChallengeTTL bounds how long a signing challenge stays valid.
	ChallengeTTL time.Duration
	// GrantTTL bounds issued session grants.
	GrantTTL time.Duration
}

// Server is the HTTP API front of the sales service.
type Server struct {
	service    *app.Service
	mux        *chi.Mux
	stream     *stream.Hub
	resolver   identity.Resolver
	grantKey   ed25519.PrivateKey
	grants     identity.GrantConfig
	grantTTL   time.Duration
	challenges *challengeStore
}

// NewServer builds the router around the service.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("sales service is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("identity resolver is required")
	}
	if len(cfg.GrantKey) != ed25519.PrivateKeySize {
		return nil, errors.New("grant signing key is required")
	}
	challengeTTL := cfg.ChallengeTTL
	if challengeTTL <= 0 {
		challengeTTL = defaultChallengeTTL
	}
	grantTTL := cfg.GrantTTL
	if grantTTL <= 0 {
		grantTTL = defaultGrantTTL
	}
	s := &Server{
		service:    cfg.Service,
		mux:        chi.NewRouter(),
		stream:     cfg.Stream,
		resolver:   cfg.Resolver,
		grantKey:   cfg.GrantKey,
		grants:     cfg.Grants,
		grantTTL:   grantTTL,
		challenges: newChallengeStore(challengeTTL),
	}
	s.routes()
	return s, nil
}

// Handler returns the routable HTTP surface.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeouts.Request))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/challenge", s.handleChallenge)
		r.Post("/auth/grants", s.handleIssueGrant)

		r.Get("/chain/height", s.handleChainHeight)

		r.Get("/achievements", s.handleListAchievements)
		r.Get("/achievements/{achievementID}", s.handleGetAchievement)

		r.Get("/games/{gameID}/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/games", s.handleCreateGame)
			r.Route("/games/{gameID}", func(r chi.Router) {
				r.Get("/", s.handleGetGame)
				r.Get("/audit", s.handleAudit)
				r.Post("/commits", s.handleCommit)
				r.Post("/reveals", s.handleReveal)
				r.Post("/assignment", s.handleAssignTerritory)
				r.Post("/trip", s.handleTrip)
				r.Post("/encounter", s.handleBeginEncounter)
				r.Post("/negotiation", s.handleNegotiate)
				r.Post("/crossroads", s.handleCrossroads)
				r.Post("/market", s.handleMarket)
				r.Post("/strategy", s.handleStrategy)
				r.Post("/prep", s.handlePrep)
				r.Post("/advance", s.handleAdvance)
				r.Post("/tier", s.handleTier)
			})
		})
	})
}

// requestLogger emits one line per request. Trace identifiers from an
// incoming W3C traceparent header are lifted into the request context
// so API logs line up with caller traces.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))

		correlation := ""
		if requestID := middleware.GetReqID(ctx); requestID != "" {
			correlation = " request_id=" + requestID
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			correlation += " trace_id=" + sc.TraceID().String() + " span_id=" + sc.SpanID().String()
		}
		log.Printf("http %s %s status=%d duration=%s%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond), correlation)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := identity.ValidateGrant(token, s.grants)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		ctx := requestctx.WithPlayer(r.Context(), requestctx.Player{
			Name:   claims.PlayerName,
			GameID: claims.GameID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerFromContext(ctx context.Context) (requestctx.Player, error) {
	player, ok := requestctx.PlayerFromContext(ctx)
	if !ok {
		return requestctx.Player{}, apperrors.New(apperrors.CodeGrantInvalid, "missing auth context")
	}
	return player, nil
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

// writeDomainError maps domain codes onto HTTP statuses and keeps the
// code in the body so clients can branch without parsing messages.
func writeDomainError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.HTTPStatus(err), map[string]any{
		"error": err.Error(),
		"code":  string(apperrors.CodeOf(err)),
	})
}

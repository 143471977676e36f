// Package server wires the sales runtime: storage, the chain entropy
// client, identity grants, the HTTP API, the event stream hub, and a
// gRPC health listener.
package server

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vdappdev2/vcharacter-sales/internal/chain"
	"github.com/vdappdev2/vcharacter-sales/internal/identity"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/config"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/timeouts"
	salesapi "github.com/vdappdev2/vcharacter-sales/internal/services/sales/api/http"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/api/stream"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/app"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/domain/rules"
	"github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage"
	salespostgres "github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage/postgres"
	salessqlite "github.com/vdappdev2/vcharacter-sales/internal/services/sales/storage/sqlite"
)

// Config holds env-parsed settings for the sales server.
type Config struct {
	HTTPAddr   string `env:"VCSALES_HTTP_ADDR"`
	HealthAddr string `env:"VCSALES_HEALTH_ADDR"`

	DBDriver    string `env:"VCSALES_DB_DRIVER"`
	DBPath      string `env:"VCSALES_DB_PATH"`
	DatabaseURL string `env:"VCSALES_DATABASE_URL"`

	ChainRPCURL  string `env:"VCSALES_CHAIN_RPC_URL"`
	ChainRPCUser string `env:"VCSALES_CHAIN_RPC_USER"`
	ChainRPCPass string `env:"VCSALES_CHAIN_RPC_PASS"`

	GrantIssuer   string `env:"VCSALES_GRANT_ISSUER"`
	GrantAudience string `env:"VCSALES_GRANT_AUDIENCE"`
	// GrantKeySeed is a 32-byte hex ed25519 seed. When empty the server
	// generates an ephemeral key, invalidating grants across restarts.
	GrantKeySeed string `env:"VCSALES_GRANT_KEY_SEED"`

	RulesPath string `env:"VCSALES_RULES_PATH"`
}

// LoadConfig reads settings from the environment and fills defaults.
func LoadConfig() Config {
	var cfg Config
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = ":8080"
	}
	if strings.TrimSpace(cfg.HealthAddr) == "" {
		cfg.HealthAddr = ":9090"
	}
	if strings.TrimSpace(cfg.DBDriver) == "" {
		cfg.DBDriver = "sqlite"
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "sales.db")
	}
	if strings.TrimSpace(cfg.ChainRPCURL) == "" {
		cfg.ChainRPCURL = "http://127.0.0.1:27486"
	}
	if strings.TrimSpace(cfg.GrantIssuer) == "" {
		cfg.GrantIssuer = "vcsales"
	}
	if strings.TrimSpace(cfg.GrantAudience) == "" {
		cfg.GrantAudience = "vcsales-api"
	}
	return cfg
}

// Server hosts the sales HTTP API and its health listener.
type Server struct {
	httpListener   net.Listener
	httpServer     *http.Server
	healthListener net.Listener
	grpcServer     *grpc.Server
	health         *health.Server
	hub            *stream.Hub
	store          io.Closer
}

// New builds a configured sales server. Listeners are bound eagerly so
// address conflicts surface before Serve.
func New(ctx context.Context, cfg Config) (*Server, error) {
	tuning, err := loadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chainClient := chain.NewClient(cfg.ChainRPCURL, cfg.ChainRPCUser, cfg.ChainRPCPass)
	grantKey, err := loadGrantKey(cfg.GrantKeySeed)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	hub := stream.NewHub()
	service, err := app.NewService(app.ServiceConfig{
		Rules:   tuning,
		Store:   store,
		Entropy: chainClient,
		Events:  hub,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	api, err := salesapi.NewServer(salesapi.Config{
		Service:  service,
		Stream:   hub,
		Resolver: &identity.ChainResolver{Client: chainClient},
		GrantKey: grantKey,
		Grants: identity.GrantConfig{
			Issuer:   cfg.GrantIssuer,
			Audience: cfg.GrantAudience,
			Key:      grantKey.Public().(ed25519.PublicKey),
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	healthListener, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HealthAddr, err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("sales.v1.SalesService", grpc_health_v1.HealthCheckResponse_SERVING)

	return &Server{
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           api.Handler(),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		healthListener: healthListener,
		grpcServer:     grpcServer,
		health:         healthServer,
		hub:            hub,
		store:          store,
	}, nil
}

// Addr returns the bound HTTP address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// HealthAddr returns the bound gRPC health address.
func (s *Server) HealthAddr() string {
	if s == nil || s.healthListener == nil {
		return ""
	}
	return s.healthListener.Addr().String()
}

// Run builds a server from config and serves until ctx cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs the API and health listeners until ctx cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	go s.hub.Run()

	serveErr := make(chan error, 2)
	log.Printf("sales API listening at %v", s.httpListener.Addr())
	go func() {
		err := s.httpServer.Serve(s.httpListener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()
	log.Printf("sales health listening at %v", s.healthListener.Addr())
	go func() {
		err := s.grpcServer.Serve(s.healthListener)
		if errors.Is(err, grpc.ErrServerStopped) {
			err = nil
		}
		serveErr <- err
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		s.grpcServer.GracefulStop()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve sales: %w", err)
		}
		return nil
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.healthListener != nil {
		_ = s.healthListener.Close()
	}
	if s.hub != nil {
		s.hub.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close achievement store: %v", err)
		}
	}
}

func loadRules(path string) (rules.Config, error) {
	if strings.TrimSpace(path) == "" {
		return rules.Default(), nil
	}
	tuning, err := rules.LoadFile(path)
	if err != nil {
		return rules.Config{}, fmt.Errorf("load rules from %s: %w", path, err)
	}
	return tuning, nil
}

// openStore picks the achievement backend from config.
func openStore(ctx context.Context, cfg Config) (achievementStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DBDriver)) {
	case "", "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := salessqlite.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sales sqlite store: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := salespostgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open sales postgres store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}

// achievementStore joins the storage contract with lifecycle close.
type achievementStore interface {
	storage.AchievementStore
	io.Closer
}

// loadGrantKey derives the grant signing key from a hex seed, or
// generates an ephemeral one.
func loadGrantKey(seed string) (ed25519.PrivateKey, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		_, key, err := ed25519.GenerateKey(nil)
		if err != nil {
			return nil, fmt.Errorf("generate grant key: %w", err)
		}
		log.Printf("sales grant key not configured; using an ephemeral key")
		return key, nil
	}
	raw, err := hex.DecodeString(seed)
	if err != nil {
		return nil, fmt.Errorf("decode grant key seed: %w", err)
	}
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("grant key seed must be %d bytes, got %d", ed25519.SeedSize, len(raw))
	}
	return ed25519.NewKeyFromSeed(raw), nil
}

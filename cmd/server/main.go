package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"custodia/internal/custody"
	"custodia/internal/custody/secrets"
	"custodia/internal/delegation/handler"
	"custodia/internal/delegation/service"
	"custodia/internal/envelope"
	"custodia/internal/ledger"
	"custodia/internal/ledger/memnode"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
	audit "custodia/pkg/platform/audit"
	auditkafka "custodia/pkg/platform/audit/store/kafka"
	auditmemory "custodia/pkg/platform/audit/store/memory"
	auditpostgres "custodia/pkg/platform/audit/store/postgres"
	auditworker "custodia/pkg/platform/audit/worker"
)

const auditBufferSize = 256

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	log := logger.New()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	cipher, err := envelope.New(cfg.EnvelopeSecret())
	if err != nil {
		log.Error("envelope cipher setup failed", "error", err.Error())
		os.Exit(1)
	}

	m := metrics.New()

	// Secret store: Vault when configured, in-memory for dev.
	var secretStore custody.SecretStore
	if cfg.VaultAddr != "" {
		vaultStore, err := secrets.NewVaultStore(cfg.VaultAddr, cfg.VaultToken)
		if err != nil {
			log.Error("vault client setup failed", "error", err.Error())
			os.Exit(1)
		}
		secretStore = vaultStore
		log.Info("custody backend: vault", "addr", cfg.VaultAddr, "mount", cfg.VaultMount)
	} else {
		secretStore = secrets.NewMemoryStore()
		log.Warn("custody backend: in-memory, keys will not survive a restart")
	}
	custodyStore := custody.NewStore(secretStore, cfg.VaultMount, cfg.CustodyPathPrefix)

	node := memnode.New()
	log.Info("ledger node: in-process", "contract", cfg.ContractAddress)
	gateway := ledger.NewGateway(node, cfg.ContractAddress, cfg.ExplorerBaseURL, cfg.FinalityTimeout, log, m)

	// Audit pipeline: every configured sink receives every event.
	inbox := make(chan audit.Event, auditBufferSize)
	sinks := []audit.Store{auditmemory.New()}
	if cfg.AuditDatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.AuditDatabaseURL)
		if err != nil {
			log.Error("audit database setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		sinks = append(sinks, auditpostgres.New(db))
		log.Info("audit sink: postgres")
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			log.Error("kafka client setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaStore.Close()
		sinks = append(sinks, kafkaStore)
		log.Info("audit sink: kafka", "topic", cfg.KafkaAuditTopic)
	}
	emitter := audit.NewChannelEmitter(inbox, log)
	worker := auditworker.New(inbox, log, sinks...)

	svc := service.New(gateway, custodyStore, cipher, emitter, log, m)

	var jwtValidator middleware.JWTValidator
	if cfg.JWTSigningKey != "" {
		jwtValidator = middleware.NewHMACValidator(cfg.JWTSigningKey)
	} else {
		log.Warn("JWT signing key not set, endpoints are unauthenticated")
	}

	router := chi.NewRouter()
	handler.New(svc, log, m, jwtValidator).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting custodia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("custodia stopped")
}

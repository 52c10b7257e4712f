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

	_ "github.com/lib/pq"

	"passgate/internal/audit"
	"passgate/internal/clearance"
	"passgate/internal/decision"
	"passgate/internal/gate"
	gatemetrics "passgate/internal/gate/metrics"
	"passgate/internal/platform/config"
	"passgate/internal/platform/httpserver"
	"passgate/internal/platform/logger"
	redisplatform "passgate/internal/platform/redis"
	ratelimitmetrics "passgate/internal/ratelimit/metrics"
	ratelimitmw "passgate/internal/ratelimit/middleware"
	ratelimitsvc "passgate/internal/ratelimit/service"
	"passgate/internal/ratelimit/store/counter"
	"passgate/internal/token"
	"passgate/internal/verify"
	verifymetrics "passgate/internal/verify/metrics"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Counter store: Redis when configured, then Postgres, else in-memory.
	var counterStore ratelimitsvc.CounterStore = counter.NewMemoryStore()
	redisClient, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	switch {
	case redisClient != nil:
		counterStore = counter.NewRedisStore(redisClient.Client)
		defer redisClient.Close()
		log.Info("rate limit counters backed by redis")
	case cfg.PostgresDSN != "":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pgStore := counter.NewPostgresStore(db)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("postgres schema setup failed", "error", err)
			os.Exit(1)
		}
		counterStore = pgStore
		log.Info("rate limit counters backed by postgres")
	default:
		log.Info("rate limit counters in memory")
	}

	limiter, err := ratelimitsvc.New(counterStore,
		ratelimitsvc.WindowConfig{Limit: cfg.DailyLimit, Period: cfg.DailyWindow},
		ratelimitsvc.WindowConfig{Limit: cfg.HourlyLimit, Period: cfg.HourlyWindow},
		ratelimitsvc.WithLogger(log),
		ratelimitsvc.WithMetrics(ratelimitmetrics.New()),
	)
	if err != nil {
		log.Error("rate limiter setup failed", "error", err)
		os.Exit(1)
	}

	vm := verifymetrics.New()
	challenge := verify.NewClient(token.KindChallenge, cfg.AuthorityURL, cfg.ChallengeSecret,
		verify.WithTimeout(cfg.VerifyTimeout),
		verify.WithLogger(log),
		verify.WithMetrics(vm),
	)
	behavioral := verify.NewClient(token.KindBehavioral, cfg.AuthorityURL, cfg.BehavioralSecret,
		verify.WithTimeout(cfg.VerifyTimeout),
		verify.WithLogger(log),
		verify.WithMetrics(vm),
	)
	orchestrator := verify.NewOrchestrator(challenge, behavioral)

	policy := decision.Policy{
		ConfidenceThreshold:    cfg.ConfidenceThreshold,
		AllowMissingBehavioral: cfg.AllowMissingBehavioral,
		RedirectURL:            cfg.RedirectURL,
	}

	// Audit sink: Kafka when brokers are configured, else in-memory.
	var auditStore audit.Store = audit.NewMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("kafka audit sink setup failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafkaStore.Close(flushCtx)
		}()
		auditStore = kafkaStore
		log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	}

	// Audit events flow through a buffered inbox; the worker persists them in
	// the background so the submission path never waits on the sink.
	auditInbox := make(chan audit.Event, 256)
	auditWorker := audit.NewWorker(auditStore, auditInbox)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	serviceOpts := []gate.Option{
		gate.WithLogger(log),
		gate.WithMetrics(gatemetrics.New()),
		gate.WithEmitter(audit.NewChannelPublisher(auditInbox)),
	}
	if cfg.ClearanceSigningKey != "" {
		issuer, err := clearance.New(cfg.ClearanceSigningKey, cfg.ClearanceTTL)
		if err != nil {
			log.Error("clearance setup failed", "error", err)
			os.Exit(1)
		}
		serviceOpts = append(serviceOpts, gate.WithIssuer(issuer))
	}

	service, err := gate.NewService(orchestrator, policy, serviceOpts...)
	if err != nil {
		log.Error("gate service setup failed", "error", err)
		os.Exit(1)
	}

	renderer, err := gate.NewRenderer(cfg.ChallengeSiteKey, cfg.BehavioralSiteKey)
	if err != nil {
		log.Error("renderer setup failed", "error", err)
		os.Exit(1)
	}

	handler := gate.NewHandler(service, renderer, log)
	limits := ratelimitmw.New(limiter, log, ratelimitmw.WithRejectFunc(handler.RejectThrottled))
	router := gate.NewRouter(handler, limits)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting passgate", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rolegate/internal/application/cooldown"
	"github.com/go-rolegate/internal/application/snapshot"
	"github.com/go-rolegate/internal/application/switching"
	"github.com/go-rolegate/internal/application/verification"
	"github.com/go-rolegate/internal/config"
	"github.com/go-rolegate/internal/infrastructure/discord"
	"github.com/go-rolegate/internal/infrastructure/dynamo"
	"github.com/go-rolegate/internal/infrastructure/filestore"
	jwtinfra "github.com/go-rolegate/internal/infrastructure/jwt"
	s3infra "github.com/go-rolegate/internal/infrastructure/s3"
	"github.com/go-rolegate/internal/infrastructure/sns"
	transporthttp "github.com/go-rolegate/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	projects := cfg.Projects()

	// Optional AWS integrations; each one is skipped when unconfigured or unreachable.
	var recorder switching.Recorder
	if cfg.AuditTable != "" {
		if client, err := dynamo.NewClient(ctx, cfg); err == nil {
			dynamo.Bootstrap(ctx, client, cfg.AuditTable)
			recorder = dynamo.NewAuditRepo(client, cfg.AuditTable)
		} else {
			slog.Warn("audit trail not available", "err", err)
		}
	}

	var mirror snapshot.Mirror
	if cfg.S3BucketName != "" {
		if client, err := s3infra.NewClient(ctx, cfg); err == nil {
			m := s3infra.NewMirror(client, cfg.S3BucketName, cfg.S3SnapshotKey)
			slog.Info("mirroring role data", "location", m.Location())
			mirror = m
		} else {
			slog.Warn("role data mirror not available", "err", err)
		}
	}

	var alerter switching.Alerter
	if cfg.SNSAlertTopicARN != "" {
		if a, err := sns.NewAlerter(ctx, cfg); err == nil {
			alerter = a
		} else {
			slog.Warn("operator alerts not available", "err", err)
		}
	}

	file := filestore.New(cfg.DataFile)
	store := snapshot.NewStore(file, mirror, projects.Keys()...)
	store.Load(ctx)

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Printf("discord session: %v", err)
		os.Exit(1)
	}
	gateway := discord.NewThrottled(discord.NewGateway(session), cfg.GatewayRate, cfg.GatewayBurst)

	cooldowns := cooldown.NewTracker(cfg.SwitchCooldown)
	defer cooldowns.Stop()
	captchas := verification.NewManager(cfg.CaptchaTTL)
	defer captchas.Stop()

	verifier := verification.NewService(verification.ServiceDeps{
		Manager:        captchas,
		Gateway:        gateway,
		Recorder:       recorder,
		GuildID:        cfg.ServerID,
		AuditRetention: cfg.AuditRetention,
	})
	coordinator := switching.NewCoordinator(switching.Deps{
		Gateway:          gateway,
		Store:            store,
		Cooldowns:        cooldowns,
		Recorder:         recorder,
		Alerter:          alerter,
		Projects:         projects,
		GuildID:          cfg.ServerID,
		ExceptionalRoles: cfg.ExceptionalRoles,
		AuditRetention:   cfg.AuditRetention,
	})
	queueDone := make(chan struct{})
	go func() {
		coordinator.Run(ctx)
		close(queueDone)
	}()

	bot := discord.NewBot(discord.BotDeps{
		Session:  session,
		Gateway:  gateway,
		Verifier: verifier,
		Switcher: coordinator,
		Projects: projects,
		Settings: discord.Settings{
			GuildID:               cfg.ServerID,
			VerificationChannelID: cfg.VerificationChannelID,
			RoleSwitchChannelID:   cfg.RoleSwitchChannelID,
			CaptchaTTL:            cfg.CaptchaTTL,
		},
	})
	bot.Register(session)
	if err := session.Open(); err != nil {
		log.Printf("discord login failed: %v", err)
		os.Exit(1)
	}

	var srv *http.Server
	if cfg.AppPort != "" {
		deps := &transporthttp.Deps{
			Ready: func() bool {
				session.RLock()
				defer session.RUnlock()
				return session.DataReady
			},
			Queue:     coordinator,
			Captchas:  verifier,
			Cooldowns: cooldowns,
			Snapshots: store,
			Clearer:   coordinator,
		}
		// JWT provider (optional, authenticated routes answer 503 without it).
		if p, err := jwtinfra.NewVerifier(cfg); err == nil {
			deps.Verifier = p
		} else {
			slog.Warn("JWT verifier not available", "err", err)
		}

		srv = &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.AppPort),
			Handler:      transporthttp.NewRouter(ctx, cfg, deps),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			slog.Info("ops API starting", "port", cfg.AppPort, "env", cfg.AppEnv)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ops API stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("shutting down")

	// Stop taking interactions, then let the switch queue drain.
	if err := session.Close(); err != nil {
		slog.Warn("discord close", "err", err)
	}
	<-queueDone

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("forced ops API shutdown", "err", err)
		}
	}
	slog.Info("stopped", "data_file", file.Path())
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		opts.Level = slog.LevelDebug
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

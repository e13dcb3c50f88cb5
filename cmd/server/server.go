package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"

	"github.com/KirkDiggler/campaign-api/internal/errors"
	"github.com/KirkDiggler/campaign-api/internal/notify"
	"github.com/KirkDiggler/campaign-api/internal/orchestrators/ability"
	"github.com/KirkDiggler/campaign-api/internal/orchestrators/encounter"
	"github.com/KirkDiggler/campaign-api/internal/orchestrators/equipment"
	"github.com/KirkDiggler/campaign-api/internal/pkg/idgen"
	redisclient "github.com/KirkDiggler/campaign-api/internal/redis"
	"github.com/KirkDiggler/campaign-api/internal/repositories/abilities"
	"github.com/KirkDiggler/campaign-api/internal/repositories/characters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/encounters"
	"github.com/KirkDiggler/campaign-api/internal/repositories/inventory"
	"github.com/KirkDiggler/campaign-api/internal/repositories/items"
	"github.com/KirkDiggler/campaign-api/internal/repositories/ledger"
	"github.com/KirkDiggler/campaign-api/internal/repositories/npcs"
)

// serverConfig is populated from the environment
type serverConfig struct {
	Port           int           `env:"GRPC_PORT" envDefault:"50051"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisTLS       bool          `env:"REDIS_TLS" envDefault:"false"`
	FeedSchedule   string        `env:"FEED_POLL_SCHEDULE" envDefault:"@every 10s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"30s"`
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the gRPC server",
	Long:  `Start the campaign API gRPC server with all configured services.`,
	RunE:  runServer,
}

// services bundles the wired orchestrators
type services struct {
	Equipment equipment.Service
	Ability   ability.Service
	Encounter encounter.Service
	Feed      notify.Feed
}

// buildServices wires repositories and orchestrators onto a Redis client
func buildServices(client redisclient.Client) (*services, error) {
	characterRepo, err := characters.NewRedis(&characters.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create character repository: %w", err)
	}
	npcRepo, err := npcs.NewRedis(&npcs.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create NPC repository: %w", err)
	}
	itemRepo, err := items.NewRedis(&items.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create item repository: %w", err)
	}
	abilityRepo, err := abilities.NewRedis(&abilities.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create ability repository: %w", err)
	}
	inventoryRepo, err := inventory.NewRedis(&inventory.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory repository: %w", err)
	}
	ledgerRepo, err := ledger.NewRedis(&ledger.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger repository: %w", err)
	}
	encounterRepo, err := encounters.NewRedis(&encounters.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create encounter repository: %w", err)
	}

	feed, err := notify.NewRedis(&notify.RedisConfig{Client: client})
	if err != nil {
		return nil, fmt.Errorf("failed to create change feed: %w", err)
	}

	equipmentSvc, err := equipment.NewOrchestrator(&equipment.Config{
		CharacterRepo: characterRepo,
		ItemRepo:      itemRepo,
		InventoryRepo: inventoryRepo,
		AbilityRepo:   abilityRepo,
		LedgerRepo:    ledgerRepo,
		Feed:          feed,
		IDGenerator:   idgen.NewUUID("inv"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create equipment orchestrator: %w", err)
	}

	abilitySvc, err := ability.NewOrchestrator(&ability.Config{
		CharacterRepo: characterRepo,
		AbilityRepo:   abilityRepo,
		LedgerRepo:    ledgerRepo,
		ItemRepo:      itemRepo,
		Feed:          feed,
		IDGenerator:   idgen.NewUUID("chab"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ability orchestrator: %w", err)
	}

	encounterSvc, err := encounter.NewOrchestrator(&encounter.Config{
		EncounterRepo: encounterRepo,
		CharacterRepo: characterRepo,
		NPCRepo:       npcRepo,
		Feed:          feed,
		IDGenerator:   idgen.NewUUID("enc"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create encounter orchestrator: %w", err)
	}

	return &services{
		Equipment: equipmentSvc,
		Ability:   abilitySvc,
		Encounter: encounterSvc,
		Feed:      feed,
	}, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := serverConfig{}
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("received shutdown signal, gracefully stopping")
		cancel()
	}()

	client, err := redisclient.NewClient(cfg.RedisAddr, &redisclient.Options{UseTLS: cfg.RedisTLS})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer func() { _ = client.Close() }()

	svcs, err := buildServices(client)
	if err != nil {
		return err
	}

	// Backlog poller: logs a digest of encounter events for consumers that
	// don't hold a subscription (ops visibility, audit tail).
	poller, err := notify.NewPoller(&notify.PollerConfig{
		Client: client,
		Topic:  notify.TopicEncounters,
		Handler: func(_ context.Context, event notify.Event) {
			slog.Info("encounter event",
				"type", event.Type,
				"entity_id", event.EntityID,
			)
		},
		Schedule: cfg.FeedSchedule,
	})
	if err != nil {
		return fmt.Errorf("failed to create feed poller: %w", err)
	}
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed poller: %w", err)
	}
	defer poller.Stop()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc_logging.UnaryServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.UnaryServerInterceptor(),
			timeoutUnaryInterceptor(cfg.RequestTimeout),
			errorUnaryInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_logging.StreamServerInterceptor(grpc_logging.LoggerFunc(logFunc)),
			grpc_recovery.StreamServerInterceptor(),
			errorStreamInterceptor,
		),
	)

	// Orchestrators are wired and held by svcs; proto service handlers
	// register here as their schemas land.
	slog.Info("services wired",
		"equipment", svcs.Equipment != nil,
		"ability", svcs.Ability != nil,
		"encounter", svcs.Encounter != nil,
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(srv)

	errChan := make(chan error, 1)
	go func() {
		slog.Info("gRPC server starting", "port", cfg.Port)
		if err := srv.Serve(lis); err != nil {
			errChan <- fmt.Errorf("failed to serve: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down gRPC server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer shutdownCancel()

		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()

		select {
		case <-shutdownCtx.Done():
			slog.Warn("graceful shutdown timeout exceeded, forcing stop")
			srv.Stop()
		case <-stopped:
			slog.Info("server stopped gracefully")
		}

		return nil
	case err := <-errChan:
		return err
	}
}

// errorUnaryInterceptor translates domain errors into gRPC status errors at
// the edge, so handlers return coded domain errors and clients see the
// matching gRPC code.
func errorUnaryInterceptor(
	ctx context.Context,
	req any,
	_ *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	return resp, errors.ToGRPCError(err)
}

func errorStreamInterceptor(
	srv any,
	ss grpc.ServerStream,
	_ *grpc.StreamServerInfo,
	handler grpc.StreamHandler,
) error {
	return errors.ToGRPCError(handler(srv, ss))
}

// timeoutUnaryInterceptor caps each request; the deadline propagates into
// every repository call through the context.
func timeoutUnaryInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

func logFunc(_ context.Context, level grpc_logging.Level, msg string, fields ...any) {
	switch level {
	case grpc_logging.LevelDebug:
		slog.Debug(msg, fields...)
	case grpc_logging.LevelWarn:
		slog.Warn(msg, fields...)
	case grpc_logging.LevelError:
		slog.Error(msg, fields...)
	default:
		slog.Info(msg, fields...)
	}
}

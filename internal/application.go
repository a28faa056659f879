package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/transport/rest"
	"github.com/rocketscienceinc/tictactoe-engine/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	mode, err := entity.ParseGameMode(conf.Game.DefaultMode)
	if err != nil {
		return fmt.Errorf("invalid default mode: %w", err)
	}

	difficulty, err := entity.ParseDifficulty(conf.Game.DefaultDifficulty)
	if err != nil {
		return fmt.Errorf("invalid default difficulty: %w", err)
	}

	scoreRepo, closeStorage, err := openScoreRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	botService := service.NewBotService(service.NewSeededRandom(conf.AI.Seed))

	restServer := rest.New(logger, botService, scoreRepo)
	wsServer := websocket.New(logger, botService, scoreRepo, websocket.Settings{
		Mode:         mode,
		Difficulty:   difficulty,
		SoundEnabled: conf.Sound.Enabled,
		ThinkDelay:   conf.AI.ThinkDelay,
	})

	// storage is closed by the deferred call only after both servers are down
	return runServers(ctx, log, map[string]serveFunc{
		"HTTP": func(ctx context.Context) error {
			log.Info("Starting HTTP server", "port", conf.HTTPPort)
			return restServer.Start(ctx, conf.HTTPPort)
		},
		"WebSocket": func(ctx context.Context) error {
			log.Info("Starting WebSocket server", "port", conf.SocketPort)
			return wsServer.Start(ctx, conf.SocketPort)
		},
	})
}

type serveFunc func(ctx context.Context) error

// runServers - blocks until every server has stopped. The first failure stops the rest.
func runServers(ctx context.Context, log *slog.Logger, servers map[string]serveFunc) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for name, serve := range servers {
		group.Go(func() error {
			if err := serve(groupCtx); err != nil {
				log.Error("server error", "server", name, "error", err)
				return fmt.Errorf("%s server error: %w", name, err)
			}

			return nil
		})
	}

	err := group.Wait()
	if err == nil {
		log.Info("Application context canceled, servers are down")
	}

	return err
}

// openScoreRepository - connects the configured backend. The returned func releases it.
func openScoreRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.ScoreRepository, func(), error) {
	log = log.With("storage", conf.Storage)

	switch conf.Storage {
	case config.StorageMemory:
		return repository.NewMemoryScoreRepository(), func() {}, nil

	case config.StorageRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewScoreRepository(redisStorage.Connection), func() {
			if closeErr := redisStorage.Close(); closeErr != nil {
				log.Error("could not close redis storage", "error", closeErr)
			}
		}, nil

	case config.StorageSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteScoreRepository(sqliteStorage.Connection), func() {
			if closeErr := sqliteStorage.Close(); closeErr != nil {
				log.Error("could not close sqlite storage", "error", closeErr)
			}
		}, nil

	case config.StorageMongo:
		mongoStorage, err := storage.NewMongoStorage(ctx, conf.Mongo.URI, conf.Mongo.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to mongo storage: %w", err)
		}

		return repository.NewMongoScoreRepository(mongoStorage.Database), func() {
			if closeErr := mongoStorage.Close(context.Background()); closeErr != nil {
				log.Error("could not close mongo storage", "error", closeErr)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", apperror.ErrUnknownStorage, conf.Storage)
	}
}

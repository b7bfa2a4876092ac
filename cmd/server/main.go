package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KirkDiggler/megapoly/internal/auth"
	"github.com/KirkDiggler/megapoly/internal/catalog"
	"github.com/KirkDiggler/megapoly/internal/common/clock"
	"github.com/KirkDiggler/megapoly/internal/common/uuid"
	"github.com/KirkDiggler/megapoly/internal/config"
	"github.com/KirkDiggler/megapoly/internal/dice"
	"github.com/KirkDiggler/megapoly/internal/engine"
	"github.com/KirkDiggler/megapoly/internal/handlers/discord"
	"github.com/KirkDiggler/megapoly/internal/handlers/rest"
	"github.com/KirkDiggler/megapoly/internal/handlers/ws"
	"github.com/KirkDiggler/megapoly/internal/repositories/actionlog"
	"github.com/KirkDiggler/megapoly/internal/repositories/archive"
	gameRepo "github.com/KirkDiggler/megapoly/internal/repositories/game"
	"github.com/KirkDiggler/megapoly/internal/repositories/ledger"
	"github.com/KirkDiggler/megapoly/internal/repositories/player"
	"github.com/KirkDiggler/megapoly/internal/services/commentary"
	gameService "github.com/KirkDiggler/megapoly/internal/services/game"
	"github.com/KirkDiggler/megapoly/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger.Sugar()); err != nil {
		logger.Sugar().Fatalw("Server stopped", "error", err)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, closeRedis, err := openRedis(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	games, err := gameRepo.NewRedis(&gameRepo.Config{RedisClient: redisClient})
	if err != nil {
		return fmt.Errorf("game repository: %w", err)
	}
	seats, err := player.NewRedis(&player.Config{RedisClient: redisClient})
	if err != nil {
		return fmt.Errorf("seat repository: %w", err)
	}
	transfers, err := ledger.NewRedis(&ledger.Config{RedisClient: redisClient})
	if err != nil {
		return fmt.Errorf("ledger repository: %w", err)
	}

	actions, err := actionlog.Open(&actionlog.Config{Path: cfg.SQLitePath, Logger: log})
	if err != nil {
		return fmt.Errorf("action log: %w", err)
	}
	defer func() {
		if err := actions.Close(); err != nil {
			log.Warnw("Failed to close action log", "error", err)
		}
	}()

	archiveStore, err := archive.New(&archive.Config{Dir: cfg.ArchiveDir})
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	board, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	rules := engine.DefaultRules()
	if cfg.RulesPath != "" {
		if rules, err = engine.LoadRules(cfg.RulesPath); err != nil {
			return fmt.Errorf("rules: %w", err)
		}
	}

	clk := clock.New()
	ids := uuid.New()
	roller, chatter := newRollers(cfg.DiceSeed)

	eng, err := engine.New(&engine.Config{
		Rules:         &rules,
		Catalog:       board,
		Roller:        roller,
		Clock:         clk,
		UUIDGenerator: ids,
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	registry, err := session.NewRegistry(&session.Config{
		Engine:        eng,
		Clock:         clk,
		UUIDGenerator: ids,
		Logger:        log,
	})
	if err != nil {
		return fmt.Errorf("session registry: %w", err)
	}
	defer registry.Close()

	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate token secret: %w", err)
		}
		log.Warnw("TOKEN_SECRET not set; seat tokens will not survive a restart")
	}
	tokens, err := auth.New(&auth.Config{Secret: secret, TTL: cfg.TokenTTL, Clock: clk})
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	commentaryCfg := &commentary.Config{
		Timeout: cfg.CommentaryTimeout,
		Roller:  chatter,
		Logger:  log,
	}
	if cfg.OpenAIKey != "" {
		completer, err := commentary.NewOpenAI(&commentary.OpenAIConfig{
			APIKey: cfg.OpenAIKey,
			Model:  cfg.OpenAIModel,
		})
		if err != nil {
			return fmt.Errorf("openai completer: %w", err)
		}
		commentaryCfg.Completer = completer
	}
	commentarySvc, err := commentary.NewService(commentaryCfg)
	if err != nil {
		return fmt.Errorf("commentary service: %w", err)
	}

	gameSvc, err := gameService.NewService(&gameService.Config{
		Registry:   registry,
		GameRepo:   games,
		SeatRepo:   seats,
		LedgerRepo: transfers,
		ActionLog:  actions,
		Archive:    archiveStore,
		Commentary: commentarySvc,
		Tokens:     tokens,
		Clock:      clk,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("game service: %w", err)
	}

	restored, err := gameSvc.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore games: %w", err)
	}
	log.Infow("Restored games", "restored", restored.Restored, "failed", restored.Failed)

	api, err := rest.New(&rest.Config{
		GameService: gameSvc,
		Tokens:      tokens,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("rest handler: %w", err)
	}

	wsServer, err := ws.NewServer(&ws.Config{
		GameService:    gameSvc,
		Tokens:         tokens,
		AllowedOrigins: cfg.CORSOrigins,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("websocket server: %w", err)
	}
	wsHTTP := &http.Server{
		Addr:              cfg.WSAddr,
		Handler:           wsServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var bot *discord.Bot
	if cfg.DiscordToken != "" {
		bot, err = discord.New(&discord.Config{
			Token:         cfg.DiscordToken,
			ApplicationID: cfg.DiscordAppID,
			GuildID:       cfg.DiscordGuild,
			GameService:   gameSvc,
			Commentary:    commentarySvc,
			Logger:        log,
		})
		if err != nil {
			return fmt.Errorf("discord bot: %w", err)
		}
		if err := bot.Start(); err != nil {
			return err
		}
	}

	errs := make(chan error, 2)
	go func() {
		log.Infow("REST API listening", "addr", cfg.HTTPAddr)
		errs <- api.Listen(cfg.HTTPAddr)
	}()
	go func() {
		log.Infow("WebSocket server listening", "addr", cfg.WSAddr)
		if err := wsHTTP.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errs <- err
			return
		}
		errs <- nil
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Infow("Shutting down")
	case serveErr = <-errs:
		log.Errorw("Listener failed", "error", serveErr)
	}

	if bot != nil {
		if err := bot.Stop(); err != nil {
			log.Warnw("Failed to stop Discord bot", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := wsHTTP.Shutdown(shutdownCtx); err != nil {
		log.Warnw("WebSocket shutdown failed", "error", err)
	}
	if err := api.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warnw("REST shutdown failed", "error", err)
	}
	return serveErr
}

// newRollers returns the engine's roller, seeded from DICE_SEED, and an
// unseeded one for commentary so flavour text never consumes game rolls
func newRollers(seed int64) (*dice.SeededRoller, *dice.SeededRoller) {
	return dice.New(&dice.Config{Seed: seed}), dice.New(&dice.Config{})
}

// openRedis connects to REDIS_ADDR, or to an embedded server when it is empty
func openRedis(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*redis.Client, func(), error) {
	addr := cfg.RedisAddr
	var embedded *miniredis.Miniredis
	if addr == "" {
		var err error
		embedded, err = miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start embedded redis: %w", err)
		}
		addr = embedded.Addr()
		log.Warnw("REDIS_ADDR not set; using embedded in-memory redis", "addr", addr)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if embedded != nil {
			embedded.Close()
		}
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	return client, func() {
		_ = client.Close()
		if embedded != nil {
			embedded.Close()
		}
	}, nil
}

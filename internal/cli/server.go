package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/config"
	"quiz-battle-service/internal/infra/memory"
	pgloader "quiz-battle-service/internal/infra/postgres"
	redisstore "quiz-battle-service/internal/infra/redis"
	"quiz-battle-service/internal/logging"
	transport "quiz-battle-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	loader := quizLoader(cfg, pool)
	if redisClient != nil {
		loader = redisstore.NewQuizCache(redisClient, loader, config.Duration(cfg.Quiz.CacheTTL, 10*time.Minute))
	}
	quizzes := memory.NewQuizRepository(loader)
	count, err := quizzes.Load(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("quizzes", count).Msg("quiz pool loaded")

	var rooms app.RoomStore = memory.NewRoomStore()
	if redisClient != nil {
		mirrored := redisstore.NewRoomStore(redisClient, redisTTL)
		// Runs after service.Shutdown so the final deletes reach Redis.
		defer mirrored.Close()
		rooms = mirrored
	}

	hub := transport.NewHub()
	service := app.NewMatchService(rooms, quizzes, hub, app.WithTimings(matchTimings(cfg)))
	defer service.Shutdown()

	wsHandler := transport.NewWSHandler(service, hub, transport.WSOptions{
		ReadLimit:         cfg.WS.ReadLimit,
		PingInterval:      config.Duration(cfg.WS.PingInterval, 0),
		MessagesPerSecond: cfg.WS.MessagesPerSecond,
		Burst:             cfg.WS.Burst,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
	})
	admin := transport.NewAdminHandler(quizzes, service)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(wsHandler, admin, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting quiz battle server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// quizLoader picks the quiz source: Postgres, then a seed file, then the built-in defaults.
func quizLoader(cfg config.Config, pool *pgxpool.Pool) memory.QuizLoader {
	switch {
	case pool != nil:
		return pgloader.NewQuizLoader(pool)
	case cfg.Quiz.SeedFile != "":
		return memory.NewFileQuizLoader(cfg.Quiz.SeedFile)
	default:
		return memory.NewStaticQuizLoader(defaultQuizzes())
	}
}

func matchTimings(cfg config.Config) app.Timings {
	d := app.DefaultTimings()
	m := cfg.Match
	return app.Timings{
		LeadIn:       config.Duration(m.LeadIn, d.LeadIn),
		Tick:         config.Duration(m.Tick, d.Tick),
		RoundSeconds: config.Int(m.RoundSeconds, d.RoundSeconds),
		AnswerGrace:  config.Duration(m.AnswerGrace, d.AnswerGrace),
		ResultPause:  config.Duration(m.ResultPause, d.ResultPause),
		Rounds:       config.Int(m.Rounds, d.Rounds),
	}
}

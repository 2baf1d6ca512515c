package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"olympiad-quiz-service/internal/ai"
	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/config"
	"olympiad-quiz-service/internal/infra/memory"
	pgstore "olympiad-quiz-service/internal/infra/postgres"
	redisstore "olympiad-quiz-service/internal/infra/redis"
	"olympiad-quiz-service/internal/seed"
	transport "olympiad-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var store app.KeyValueStore = memory.NewKeyValueStore()
	if redisClient != nil {
		store = redisstore.NewKeyValueStore(redisClient)
	}

	var seedSource app.SeedSource = seed.NewSource()
	if pool != nil {
		seedSource = pgstore.NewSeedLoader(pool)
	}

	bank := app.NewQuestionBank(store, seedSource)
	if err := bank.EnsureSeeded(ctx); err != nil {
		log.Printf("seeding question bank failed, continuing without starter content: %v", err)
	}

	var sessions app.SessionRepository = memory.NewSessionStore()
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	}

	gateway, closeProviders, err := buildGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProviders()

	history := app.NewHistoryRepository(store)
	service := app.NewQuizService(
		sessions,
		app.NewQuestionSource(bank, history, gateway),
		history,
		app.NewProfileStore(store),
		app.NewRevalidationCoordinator(gateway),
		gateway,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewRestHandler(service).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(service).ServeWS)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildGateway wires the primary and fallback AI providers from environment
// keys. Gemini is required; OpenAI is an optional fallback.
func buildGateway(ctx context.Context, cfg config.Config) (*ai.Gateway, func(), error) {
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	primary, err := ai.NewGeminiProvider(ctx, geminiKey, cfg.AI.GeminiModel)
	if err != nil {
		return nil, nil, err
	}

	var fallback ai.Provider
	if openaiKey := os.Getenv("OPENAI_API_KEY"); openaiKey != "" {
		fallback = ai.NewOpenAIProvider(openaiKey, cfg.AI.OpenAIModel)
	} else {
		log.Println("OPENAI_API_KEY not set, running without a fallback provider")
	}

	return ai.NewGateway(primary, fallback), primary.Close, nil
}

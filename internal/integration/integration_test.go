package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"olympiad-quiz-service/internal/ai"
	"olympiad-quiz-service/internal/app"
	"olympiad-quiz-service/internal/domain"
	pgstore "olympiad-quiz-service/internal/infra/postgres"
	pgmigrations "olympiad-quiz-service/internal/infra/postgres/migrations"
	infraredis "olympiad-quiz-service/internal/infra/redis"
	"olympiad-quiz-service/internal/seed"
)

// stubGateway keeps the end-to-end flow deterministic and offline.
type stubGateway struct{}

func (stubGateway) Generate(_ context.Context, req ai.GenerationRequest) ([]domain.Question, error) {
	batch := make([]domain.Question, req.Count)
	for i := range batch {
		batch[i] = domain.Question{
			ID:                 fmt.Sprintf("int-%d", i),
			QuestionText:       "Pick the first option",
			Options:            []string{"A", "B", "C", "D"},
			CorrectAnswerIndex: 0,
			Explanation:        "A is first.",
			Topic:              req.Topics[0],
			Subject:            req.Subject,
			Difficulty:         req.Difficulty,
			Grade:              req.Grade,
		}
	}
	return batch, nil
}

func (stubGateway) Revalidate(_ context.Context, q domain.Question) (domain.Question, error) {
	return q, nil
}

func (stubGateway) Suggest(context.Context, domain.Grade, []string) (string, error) {
	return "## Areas for Improvement", nil
}

func TestQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionBank(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	gateway := stubGateway{}
	store := infraredis.NewKeyValueStore(redisClient)
	bank := app.NewQuestionBank(store, pgstore.NewSeedLoader(pool))
	if err := bank.EnsureSeeded(ctx); err != nil {
		t.Fatalf("seed bank: %v", err)
	}

	banked, err := bank.All(ctx)
	if err != nil {
		t.Fatalf("read bank: %v", err)
	}
	if len(banked) == 0 {
		t.Fatal("expected the postgres starter bank in redis")
	}

	history := app.NewHistoryRepository(store)
	service := app.NewQuizService(
		infraredis.NewSessionStore(redisClient, 5*time.Minute),
		app.NewQuestionSource(bank, history, gateway),
		history,
		app.NewProfileStore(store),
		app.NewRevalidationCoordinator(gateway),
		gateway,
	)

	session, err := service.Start(ctx, domain.QuizRequest{
		Subject:    domain.SubjectIMO,
		Topics:     []string{"Algebra"},
		Count:      2,
		Difficulty: domain.DifficultyMedium,
		Grade:      domain.Grade6,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	for range session.Questions() {
		if err := session.SelectAnswer(0); err != nil {
			t.Fatalf("select: %v", err)
		}
		if err := session.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	result, unlocked, err := service.Submit(ctx, session.ID())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(unlocked) == 0 {
		t.Fatal("first quiz should unlock at least one badge")
	}

	results, err := service.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(results) != 1 || results[0].ID != result.ID {
		t.Fatalf("expected result persisted in redis, got %+v", results)
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.QuizzesCompleted != 1 {
		t.Fatalf("expected one completed quiz, got %d", stats.QuizzesCompleted)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedQuestionBank migrates the schema and loads the embedded starter
// questions into the container database.
func seedQuestionBank(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	questions, err := seed.Questions()
	if err != nil {
		t.Fatalf("embedded questions: %v", err)
	}
	if err := pgstore.NewSeedLoader(pool).Store(ctx, questions); err != nil {
		t.Fatalf("store questions: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

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

	"wumpus-maze-service/internal/app"
	"wumpus-maze-service/internal/domain"
	"wumpus-maze-service/internal/game"
	"wumpus-maze-service/internal/infra/memory"
	infrapg "wumpus-maze-service/internal/infra/postgres"
	pgmigrations "wumpus-maze-service/internal/infra/postgres/migrations"
	infraredis "wumpus-maze-service/internal/infra/redis"
)

func TestAnswerQuestionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	store := infrapg.NewStore(pool)

	seeded, err := store.ReplaceQuestions(ctx, sampleQuestions())
	if err != nil {
		t.Fatalf("seed questions: %v", err)
	}
	if len(seeded) != len(sampleQuestions()) {
		t.Fatalf("expected %d questions seeded, got %d", len(sampleQuestions()), len(seeded))
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	cache := infraredis.NewQuestionCache(redisClient, store, 5*time.Minute)
	questions, err := cache.LoadQuestions(ctx)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(questions) != len(seeded) {
		t.Fatalf("expected %d questions via cache, got %d", len(seeded), len(questions))
	}

	provider := memory.NewQuestionProvider(questions)
	mirror := infraredis.NewLeaderboardMirror(redisClient, 5*time.Minute)
	service := app.NewGameService(game.NewGrid(game.DefaultGridSize), provider, memory.NewPlayerStore(), store,
		app.WithLeaderboardSink(mirror))

	g := service.CreateGame(ctx, "admin-1", 10)
	if _, err := service.StartGame(ctx, g.ID); err != nil {
		t.Fatalf("start game: %v", err)
	}

	player, first, err := service.Join(ctx, g.ID, "Alice")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if player.CurrentPosition != (domain.Position{X: 0, Y: 0}) {
		t.Fatalf("expected player at start cell, got %+v", player.CurrentPosition)
	}

	// The dealt copy carries the post-shuffle correct index.
	result, err := service.AnswerQuestion(ctx, player.ID, first.ID, first.CorrectAnswer)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !result.Correct {
		t.Fatalf("expected correct answer to be recognised")
	}
	if result.Player.Steps != 1 || result.Player.QuestionsAnswered != 1 {
		t.Fatalf("expected one step and one answer, got %+v", result.Player)
	}
	if game.Distance(result.Player.CurrentPosition, domain.Position{X: 9, Y: 9}) != 17 {
		t.Fatalf("expected player one step closer to goal, got %+v", result.Player.CurrentPosition)
	}

	// The gateway saves are asynchronous with retries; poll until the
	// player row lands.
	deadline := time.Now().Add(10 * time.Second)
	for {
		var count int
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM players WHERE id=$1`, player.ID).Scan(&count); err != nil {
			t.Fatalf("count players: %v", err)
		}
		if count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("player row never persisted")
		}
		time.Sleep(100 * time.Millisecond)
	}

	lb, ok, err := mirror.Snapshot(ctx, g.ID)
	if err != nil {
		t.Fatalf("leaderboard snapshot: %v", err)
	}
	if !ok {
		t.Fatalf("expected leaderboard mirrored to redis")
	}
	if len(lb.Entries) != 1 || lb.Entries[0].Name != "Alice" {
		t.Fatalf("unexpected leaderboard: %+v", lb.Entries)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "maze", "POSTGRES_PASSWORD": "mazepass", "POSTGRES_DB": "mazedb"},
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
	dsn := fmt.Sprintf("postgres://maze:mazepass@%s:%s/mazedb?sslmode=disable", host, port.Port())
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

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
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
}

func sampleQuestions() []domain.Question {
	questions := make([]domain.Question, 0, 20)
	for i := 0; i < 20; i++ {
		questions = append(questions, domain.Question{
			Question:      fmt.Sprintf("What is %d + %d?", i, i),
			Options:       []string{fmt.Sprintf("%d", 2*i), fmt.Sprintf("%d", 2*i+1), fmt.Sprintf("%d", 2*i+2), fmt.Sprintf("%d", 2*i+3)},
			CorrectAnswer: 0,
			Category:      "general-tech",
			Difficulty:    domain.DifficultyMedium,
		})
	}
	return questions
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

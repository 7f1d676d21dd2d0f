package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"wumpus-maze-service/internal/app"
	"wumpus-maze-service/internal/auth"
	"wumpus-maze-service/internal/config"
	"wumpus-maze-service/internal/domain"
	"wumpus-maze-service/internal/game"
	"wumpus-maze-service/internal/infra/memory"
	infrapg "wumpus-maze-service/internal/infra/postgres"
	infraredis "wumpus-maze-service/internal/infra/redis"
	transport "wumpus-maze-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the maze game server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var store *infrapg.Store
	var gateway app.SessionGateway
	var admins transport.AdminDirectory
	var questionStore transport.QuestionStore
	if pool != nil {
		store = infrapg.NewStore(pool)
		gateway = store
		admins = store
		questionStore = store
		seedAdmins(ctx, store, cfg.Admins)
	} else {
		log.Printf("postgres not configured; running without durable storage")
		admins = seedAdminDirectory(cfg.Admins)
	}

	provider := memory.NewQuestionProvider(nil)
	var cache *infraredis.QuestionCache
	if store != nil && redisClient != nil {
		cache = infraredis.NewQuestionCache(redisClient, store, config.TTLDuration(cfg.Game.QuestionTTL, 10*time.Minute))
	}
	if err := loadQuestionPool(ctx, store, cache, provider); err != nil {
		return err
	}
	if store != nil && cache != nil {
		// Uploads must drop the cached pool or a restart re-reads stale questions.
		questionStore = invalidatingQuestionStore{store: store, cache: cache}
	}
	if provider.Len() == 0 {
		log.Printf("question pool empty; upload questions before starting a game")
	}

	gridSize := cfg.Game.GridSize
	if gridSize == 0 {
		gridSize = game.DefaultGridSize
	}

	opts := []app.Option{}
	if redisClient != nil {
		opts = append(opts, app.WithLeaderboardSink(infraredis.NewLeaderboardMirror(redisClient, redisTTL)))
	}
	service := app.NewGameService(game.NewGrid(gridSize), provider, memory.NewPlayerStore(), gateway, opts...)

	tokens := auth.NewTokenManager(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	handler := transport.NewHandler(service, tokens, admins, provider, questionStore)
	wsHandler := transport.NewWSHandler(service)

	router := mux.NewRouter()
	handler.Register(router)
	router.HandleFunc("/ws/dashboard", wsHandler.ServeDashboard)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting maze game service on :%s", finalPort)
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

// loadQuestionPool fills the live provider from postgres, through the
// redis cache when available.
func loadQuestionPool(ctx context.Context, store *infrapg.Store, cache *infraredis.QuestionCache, provider *memory.QuestionProvider) error {
	if store == nil {
		return nil
	}
	var loader infraredis.QuestionLoader = store
	if cache != nil {
		loader = cache
	}
	questions, err := loader.LoadQuestions(ctx)
	if err != nil {
		return err
	}
	provider.Replace(questions)
	return nil
}

// invalidatingQuestionStore drops the redis-cached pool after each upload.
type invalidatingQuestionStore struct {
	store *infrapg.Store
	cache *infraredis.QuestionCache
}

func (s invalidatingQuestionStore) ReplaceQuestions(ctx context.Context, questions []domain.Question) ([]domain.Question, error) {
	stored, err := s.store.ReplaceQuestions(ctx, questions)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return stored, nil
}

func seedAdmins(ctx context.Context, store *infrapg.Store, seeds []config.SeedAdmin) {
	for _, seed := range seeds {
		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			log.Printf("hash admin password for %s: %v", seed.Username, err)
			continue
		}
		err = store.SeedAdmin(ctx, domain.Admin{
			ID:           uuid.NewString(),
			Username:     seed.Username,
			Email:        seed.Email,
			PasswordHash: hash,
		})
		if err != nil {
			log.Printf("seed admin %s: %v", seed.Username, err)
		}
	}
}

// seedAdminDirectory serves configured admins from memory when the
// service runs without postgres.
func seedAdminDirectory(seeds []config.SeedAdmin) transport.AdminDirectory {
	admins := make(memoryAdmins, len(seeds))
	for _, seed := range seeds {
		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			log.Printf("hash admin password for %s: %v", seed.Username, err)
			continue
		}
		admins[seed.Username] = domain.Admin{
			ID:           uuid.NewString(),
			Username:     seed.Username,
			Email:        seed.Email,
			PasswordHash: hash,
		}
	}
	return admins
}

type memoryAdmins map[string]domain.Admin

func (m memoryAdmins) AdminByUsername(_ context.Context, username string) (domain.Admin, error) {
	admin, ok := m[username]
	if !ok {
		return domain.Admin{}, domain.ErrInvalidCredentials
	}
	return admin, nil
}

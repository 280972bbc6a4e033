package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/participa/internal/budget"
	"github.com/gestaozabele/participa/internal/config"
	httpmiddleware "github.com/gestaozabele/participa/internal/http/middleware"
	"github.com/gestaozabele/participa/internal/identity"
	"github.com/gestaozabele/participa/internal/initiative"
	"github.com/gestaozabele/participa/internal/notification"
	"github.com/gestaozabele/participa/internal/reference"
	"github.com/gestaozabele/participa/internal/storage"
	"github.com/gestaozabele/participa/internal/sweep"
	"github.com/gestaozabele/participa/internal/user"
)

// Handler concentra os serviços atendidos pela API.
type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	initiatives   *initiative.Service
	budgets       *budget.Service
	notifications *notification.Service
	users         *user.Service
	reference     *reference.Repository
	storage       storage.Storage
	sweeper       *sweep.Service
	maxUpload     int64
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter monta repositórios, serviços e rotas. A varredura de
// expiração começa aqui e roda até o contexto do processo encerrar.
func NewRouter(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, resolver identity.Resolver) (http.Handler, error) {
	var store storage.Storage
	if cfg.S3.Enabled() {
		s3Store, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			PublicDomain: cfg.S3.PublicDomain,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		store = s3Store
	} else {
		localStore, err := storage.NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
		store = localStore
	}

	var mailer notification.Mailer
	if wm := notification.NewWebhookMailer(cfg.MailWebhookURL, cfg.MailFrom); wm != nil {
		mailer = wm
	}

	initiativeRepo := initiative.NewRepository(pool)
	initiativeLogger := log.With().Str("component", "initiative").Logger()
	initiativeService := initiative.NewService(initiativeRepo, mailer, initiativeLogger)

	budgetRepo := budget.NewRepository(pool)
	budgetService := budget.NewService(budgetRepo, redisClient)

	notificationRepo := notification.NewRepository(pool)
	notificationService := notification.NewService(notificationRepo)

	userRepo := user.NewRepository(pool)
	userService := user.NewService(userRepo)

	referenceRepo := reference.NewRepository(pool)

	sweepLogger := log.With().Str("component", "sweep").Logger()
	sweeper := sweep.NewService(initiativeRepo, cfg.SweepInterval, sweepLogger)
	sweeper.Start(ctx)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		initiatives:   initiativeService,
		budgets:       budgetService,
		notifications: notificationService,
		users:         userService,
		reference:     referenceRepo,
		storage:       store,
		sweeper:       sweeper,
		maxUpload:     cfg.MaxUploadBytes,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/healthz", h.Health)
		public.Get("/categories", h.ListCategories)
		public.Get("/platforms", h.ListPlatforms)

		public.Get("/initiatives", h.ListInitiatives)
		public.Get("/initiatives/{id}", h.GetInitiative)

		public.Group(func(optional chi.Router) {
			optional.Use(httpmiddleware.OptionalAuth(resolver))
			optional.Get("/budgets/active", h.GetActiveBudget)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(resolver))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/me", h.Me)
		private.Put("/users/{id}/roles", h.UpdateUserRoles)

		private.Route("/initiatives", func(in chi.Router) {
			in.Post("/", h.CreateInitiative)
			in.Put("/{id}/expiration", h.ChangeInitiativeExpiration)
			in.Post("/{id}/signatures", h.SignInitiative)
			in.Put("/{id}/follow", h.FollowInitiative)
			in.Delete("/{id}/follow", h.UnfollowInitiative)
			in.Post("/{id}/reply", h.ReplyInitiative)
		})

		private.Route("/notifications", func(n chi.Router) {
			n.Get("/", h.ListNotifications)
			n.Get("/unread", h.CountUnreadNotifications)
			n.Put("/{id}/read", h.MarkNotificationRead)
		})

		private.Route("/budgets", func(b chi.Router) {
			b.Post("/", h.CreateBudget)
			b.Get("/", h.ListBudgetArchive)
			b.Post("/{id}/votes", h.VoteBudget)
		})
	})

	if !cfg.S3.Enabled() {
		fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.UploadDir)))
		r.Get("/files/*", fileServer.ServeHTTP)
	}

	return r, nil
}

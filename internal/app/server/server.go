package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hradmin/internal/domain/access"
	"hradmin/internal/domain/assets"
	"hradmin/internal/domain/audit"
	"hradmin/internal/domain/auth"
	"hradmin/internal/domain/evaluation"
	"hradmin/internal/domain/files"
	"hradmin/internal/domain/payroll"
	"hradmin/internal/domain/roles"
	"hradmin/internal/domain/users"
	"hradmin/internal/platform/config"
	"hradmin/internal/platform/db"
	"hradmin/internal/platform/email"
	"hradmin/internal/platform/jobs"
	"hradmin/internal/platform/logger"
	"hradmin/internal/platform/metrics"
	"hradmin/internal/platform/seed"
	"hradmin/internal/platform/storage"
	"hradmin/internal/transport/http/api"
	"hradmin/internal/transport/http/docs"
	accesshandler "hradmin/internal/transport/http/handlers/access"
	assetshandler "hradmin/internal/transport/http/handlers/assets"
	audithandler "hradmin/internal/transport/http/handlers/audit"
	authhandler "hradmin/internal/transport/http/handlers/auth"
	evaluationhandler "hradmin/internal/transport/http/handlers/evaluation"
	fileshandler "hradmin/internal/transport/http/handlers/files"
	payrollhandler "hradmin/internal/transport/http/handlers/payroll"
	roleshandler "hradmin/internal/transport/http/handlers/roles"
	usershandler "hradmin/internal/transport/http/handlers/users"
	"hradmin/internal/transport/http/middleware"
)

// generalRateFactor scales RATE_LIMIT_PER_MINUTE for ordinary API calls;
// the unscaled value applies to credential endpoints.
const generalRateFactor = 10

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
	Jobs    *jobs.Service
	Router  http.Handler
}

// New connects to the database, applies migrations and the seed when
// configured, and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := docs.Load(ctx); err != nil {
		logger.From(ctx).Warn("openapi document is invalid", "err", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, cfg.DatabaseURL, "up"); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RunSeed {
		if err := seed.Run(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	backend, err := storage.New(cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}

	collector := metrics.New()
	return &App{
		Config:  cfg,
		DB:      pool,
		Metrics: collector,
		Jobs:    jobs.New(jobs.NewStore(pool), 0),
		Router:  NewRouter(cfg, pool, backend, collector),
	}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	a.startJobs(ctx)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.From(ctx).Info("http server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.From(ctx).Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// startJobs runs the background maintenance tasks for the lifetime of ctx.
func (a *App) startJobs(ctx context.Context) {
	if a.Jobs == nil {
		return
	}
	a.Jobs.Start(ctx)
	a.Jobs.Schedule(ctx, jobs.JobResetPurge, a.Config.ResetPurgeInterval, ResetPurgeTask(a.DB))
}

// ResetPurgeTask deletes password reset tokens that are used or expired.
func ResetPurgeTask(pool *pgxpool.Pool) jobs.Task {
	store := auth.NewStore(pool)
	return func(ctx context.Context) (any, error) {
		deleted, err := store.PurgePasswordResets(ctx, time.Now())
		if err != nil {
			return nil, err
		}
		return map[string]int64{"deleted": deleted}, nil
	}
}

func NewRouter(cfg config.Config, pool *pgxpool.Pool, backend storage.Storage, collector *metrics.Collector) http.Handler {
	accessSvc := access.NewService(access.NewStore(pool))
	auditSvc := audit.New(pool)
	filesSvc := files.NewService(files.NewStore(pool), backend)
	mailer := email.NewResetNotifier(email.New(cfg), cfg.EmailFrom, cfg.ResetTokenTTL)
	authSvc := auth.NewService(auth.NewStore(pool), accessSvc, mailer, auth.Options{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL,
		ResetTTL: cfg.ResetTokenTTL,
		BaseURL:  cfg.AppBaseURL,
	})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}
	router.Get(docs.SpecPath, docs.SpecHandler)
	router.Handle("/swagger/*", docs.SwaggerHandler())
	if cfg.StorageDriver == config.StorageLocal {
		prefix := "/" + strings.Trim(cfg.UploadPublicPrefix, "/")
		if prefix == "/" {
			prefix = "/uploads"
		}
		router.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.UploadDir))))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SecureHeaders(cfg.Environment == "production"))
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute*generalRateFactor, time.Minute))

		authhandler.NewHandler(authSvc, auditSvc).RegisterRoutes(r)
		usershandler.NewHandler(users.NewService(users.NewStore(pool)), filesSvc, accessSvc, auditSvc, cfg.MaxUploadBytes).RegisterRoutes(r)
		roleshandler.NewHandler(roles.NewService(roles.NewStore(pool)), accessSvc, auditSvc).RegisterRoutes(r)
		accesshandler.NewHandler(accessSvc, auditSvc).RegisterRoutes(r)
		evaluationhandler.NewHandler(evaluation.NewService(evaluation.NewStore(pool)), accessSvc, auditSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(payroll.NewService(payroll.NewStore(pool)), accessSvc, auditSvc).RegisterRoutes(r)
		fileshandler.NewHandler(filesSvc, accessSvc, auditSvc, cfg.MaxUploadBytes).RegisterRoutes(r)
		assetshandler.NewHandler(assets.NewService(assets.NewStore(pool)), accessSvc, auditSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, accessSvc).RegisterRoutes(r)
	})

	return router
}

package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskdeck/api/internal/config"
	"github.com/taskdeck/api/internal/http/handlers"
	"github.com/taskdeck/api/internal/http/middlewares"
	"github.com/taskdeck/api/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, verifier middlewares.SessionVerifier, tasks handlers.TaskStore, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("taskdeck"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(prom.Handler()))
	}

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		err := pool.Ping(ctx)

		if err != nil {
			log.Warn("datastore ping failed", "err", err)
		}

		return err
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up handlers; the store is injected so tests can swap backends
	sessionHandler := handlers.NewSessionHandler()
	tasksHandler := handlers.NewTasksHandler(tasks)

	authMw := middlewares.NewAuthMiddleware(verifier)
	limiter := middlewares.NewRateLimiter(cfg.RateLimit, time.Duration(cfg.RateWindowSeconds)*time.Second)

	api := r.Group("/api/v1")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())
	api.Use(authMw.RequireAuth())
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	api.GET("/auth/session", sessionHandler.GetSession)

	// every task route re-validates the path owner against the identity
	taskRoutes := api.Group("/users/:user_id/tasks")
	taskRoutes.Use(middlewares.RequireOwnership("user_id"))

	taskRoutes.GET("", tasksHandler.ListTasks)
	taskRoutes.POST("", tasksHandler.CreateTask)
	taskRoutes.GET("/:task_id", tasksHandler.GetTask)
	taskRoutes.PATCH("/:task_id", tasksHandler.UpdateTask)
	taskRoutes.DELETE("/:task_id", tasksHandler.DeleteTask)

	return r
}

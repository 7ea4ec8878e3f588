package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"scholarcrm/internal/cache"
	"scholarcrm/internal/config"
	"scholarcrm/internal/database"
	"scholarcrm/internal/database/migrations"
	"scholarcrm/internal/domain/assignment"
	"scholarcrm/internal/domain/commission"
	"scholarcrm/internal/domain/lead"
	"scholarcrm/internal/domain/notification"
	"scholarcrm/internal/domain/payout"
	"scholarcrm/internal/domain/project"
	"scholarcrm/internal/domain/task"
	"scholarcrm/internal/domain/user"
	"scholarcrm/internal/metrics"
	"scholarcrm/internal/middleware"
	jwtsvc "scholarcrm/internal/pkg/jwt"
	"scholarcrm/internal/realtime"
)

// App holds the wired services shared by the API server and the CLI tools.
type App struct {
	Config   *config.AppConfig
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	JWT      *jwtsvc.Service
	Outbox   *notification.Outbox
	Hub      *realtime.Hub

	Users       *user.Service
	Leads       *lead.Service
	Projects    *project.Service
	Tasks       *task.Service
	Commissions *commission.Service
	Payouts     *payout.Service
	Assignments *assignment.Service
}

// Open connects the store and redis named in cfg, migrates the schema and wires the services.
func Open(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		if cfg.IsProdLike() {
			return nil, err
		}
		slog.Warn("redis unavailable, using in-process actor cache", "error", err)
		rdb = nil
	}

	return New(cfg, db, rdb), nil
}

// New wires every service over db. rdb may be nil.
func New(cfg *config.AppConfig, db *gorm.DB, rdb *redis.Client) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	hub := realtime.NewHub()
	hub.Follow(m)

	var actors user.ActorCache
	if rdb != nil {
		actors = cache.NewRedisActorCache(rdb, cfg.ProfileCacheTTL)
	} else {
		actors = cache.NewMemoryActorCache(cfg.ProfileCacheTTL)
	}

	userRepo := user.NewRepository(db)
	projectRepo := project.NewRepository(db)
	outbox := notification.NewOutbox(db, m)
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	projects := project.NewService(db, projectRepo, userRepo, outbox, m)
	commissions := commission.NewService(userRepo, projectRepo)

	return &App{
		Config:   cfg,
		DB:       db,
		Redis:    rdb,
		Registry: reg,
		Metrics:  m,
		JWT:      j,
		Outbox:   outbox,
		Hub:      hub,

		Users:       user.NewService(db, userRepo, j, actors, projects),
		Leads:       lead.NewService(db, lead.NewRepository(db), projectRepo, m),
		Projects:    projects,
		Tasks:       task.NewService(db, task.NewRepository(db), projectRepo, userRepo, m),
		Commissions: commissions,
		Payouts:     payout.NewService(db, payout.NewRepository(db), userRepo, commissions, outbox, m, cfg.MinPayoutAmount),
		Assignments: assignment.NewService(db, userRepo, m),
	}
}

// Router builds the HTTP API.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorLogger(slog.Default()))
	r.Use(middleware.CORS(a.Config.CORSAllowedOrigins))
	r.Use(a.Metrics.GinMiddleware())

	r.GET("/healthz", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
	r.GET("/ws/events", realtime.NewHandler(a.Hub, a.JWT, a.Users, a.Config.CORSAllowedOrigins).Stream)

	userHandler := user.NewHandler(a.Users)
	leadHandler := lead.NewHandler(a.Leads)

	v1 := r.Group("/api/v1")
	{
		user.RegisterPublicRoutes(v1, userHandler)
		lead.RegisterPublicRoutes(v1, leadHandler)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(a.JWT, a.Users))
		{
			user.RegisterRoutes(protected, userHandler)
			lead.RegisterRoutes(protected, leadHandler)
			project.RegisterRoutes(protected, project.NewHandler(a.Projects))
			task.RegisterRoutes(protected, task.NewHandler(a.Tasks))
			commission.RegisterRoutes(protected, commission.NewHandler(a.Commissions))
			payout.RegisterRoutes(protected, payout.NewHandler(a.Payouts))
			assignment.RegisterRoutes(protected, assignment.NewHandler(a.Assignments))

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			notification.RegisterRoutes(admin, notification.NewHandler(a.Outbox, notification.LogSender{}))
		}
	}

	return r
}

func (a *App) health(c *gin.Context) {
	status := gin.H{"database": "ok"}
	code := http.StatusOK

	if sqlDB, err := a.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}
	if a.Redis != nil {
		status["redis"] = "ok"
		if err := a.Redis.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "unavailable"
		}
	}

	c.JSON(code, status)
}

// Close releases the store and redis connections.
func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

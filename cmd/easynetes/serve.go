package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"easynetes/internal/config"
	"easynetes/internal/handlers"
	"easynetes/internal/manager"
	"easynetes/internal/menu"
	"easynetes/internal/middleware"
	"easynetes/internal/mock"
	"easynetes/internal/models"
)

type App struct {
	manager     *manager.Manager
	authService *middleware.AuthService
	wsHub       *middleware.Hub
	rateLimiter *middleware.RateLimiter
	metrics     *middleware.Metrics
	mock        *mock.Server
}

func newApp(m *manager.Manager) *App {
	cfg := m.Config
	hub := middleware.NewHub(m.Log)
	a := &App{
		manager: m,
		authService: middleware.NewAuthService(middleware.AuthOptions{
			Secret:        cfg.Security.SecretKey,
			TokenExpiry:   cfg.Security.TokenExpireTime,
			SecureCookies: cfg.Server.SecureCookies,
		}),
		wsHub:       hub,
		rateLimiter: middleware.NewRateLimiter(rate.Limit(cfg.Security.RateLimit), cfg.Security.RateBurst),
		metrics:     middleware.NewMetrics(func() float64 { return float64(hub.GetClientCount()) }),
	}
	if cfg.Mock.Enabled {
		a.mock = mock.New(cfg.Mock, m.Log)
		m.Log.Writef("Mock API enabled (latency %s-%s)", cfg.Mock.MinDelay, cfg.Mock.MaxDelay)
	}
	return a
}

func (a *App) setupRouter() *gin.Engine {
	m := a.manager
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(m.Log))
	r.Use(a.metrics.Middleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if a.mock != nil {
		r.Use(a.mock.Middleware())
	}

	authHandlers := handlers.NewAuthHandlers(a.authService, m.Users, m.Log, menu.AppRoutes())
	profileHandlers := handlers.NewProfileHandlers(m.Users, a.authService)
	userHandlers := handlers.NewUserHandlers(m.Users, a.authService, m.Log)
	hostHandlers := handlers.NewHostHandlers(m.Hosts, a.wsHub, a.metrics, m.Log)
	kubeHandlers := handlers.NewKubeHandlers(m.Kube, a.metrics)
	settingsHandlers := handlers.NewSettingsHandlers(m.Settings, m.Log)
	systemHandlers := handlers.NewSystemHandlers(m.Telemetry, m.DB.Ping, m.Log, m.StartedAt)

	r.GET("/healthz", systemHandlers.Healthz)
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	r.GET("/logout", a.authService.PageLogout())

	api := r.Group("/api")
	api.Use(a.rateLimiter.Middleware())
	{
		api.GET("/version", systemHandlers.Version)
		api.POST("/user/login", authHandlers.APILogin)
	}

	authed := api.Group("")
	authed.Use(a.authService.RequireAPIAuth(), middleware.EnsureRoleContext(m.Users, m.Log, "api"))
	{
		authed.POST("/user/logout", authHandlers.APILogout)
		authed.POST("/user/info", authHandlers.APIInfo)
		authed.POST("/user/menu", authHandlers.APIMenu)
		authed.GET("/user/settings", profileHandlers.APISettingsGET)
		authed.PUT("/user/settings", profileHandlers.APISettingsPUT)
		authed.POST("/user/password", profileHandlers.APIChangePassword)

		authed.GET("/cmdb", hostHandlers.List)
		authed.GET("/v1/host", hostHandlers.List)
		authed.POST("/v1/host", hostHandlers.Create)
		authed.GET("/v1/host/:id", hostHandlers.Get)
		authed.PUT("/v1/host/:id", hostHandlers.Update)
		authed.DELETE("/v1/host/:id", hostHandlers.Delete)

		authed.GET("/v1/kubernetes/clusters", kubeHandlers.Clusters)
		authed.GET("/v1/kubernetes/clusters/:cluster/namespaces", kubeHandlers.Namespaces)
		authed.GET("/v1/kubernetes/clusters/:cluster/namespaces/:ns/workloads", kubeHandlers.Workloads)

		authed.GET("/v1/settings/:kind", settingsHandlers.Get)
		authed.GET("/v1/system/telemetry", systemHandlers.Telemetry)
	}

	admin := authed.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.PUT("/v1/settings/:kind", settingsHandlers.Put)
		admin.GET("/users", userHandlers.APIUsersList)
		admin.POST("/users", userHandlers.APIUsersCreate)
		admin.PUT("/users/:username/role", userHandlers.APIUsersSetRole)
		admin.PUT("/users/:username/password", userHandlers.APIUsersResetPassword)
		admin.DELETE("/users/:username", userHandlers.APIUsersDelete)
		admin.GET("/v1/system/logs", systemHandlers.Logs)
	}

	r.GET("/ws", a.authService.RequireAPIAuth(), a.wsHub.HandleWebSocket())

	r.NoRoute(a.authService.RequirePage(m.Users, menu.AllRoutes()), handlers.ServeSPA(m.Config.Server.StaticDir))
	return r
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().Int("server.port", 8080, "listen port")
	cmd.Flags().String("server.bind_address", "0.0.0.0", "listen address")
	cmd.Flags().String("server.static_dir", "", "directory holding the built console")
	cmd.Flags().Bool("mock.enabled", false, "answer console API calls with canned data")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if os.Getenv("GIN_MODE") == "" {
		if cfg.Logging.Level == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := manager.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	app := newApp(m)
	defer app.rateLimiter.Stop()
	if _, err := m.BootstrapAdmin(app.authService.HashPassword); err != nil {
		return err
	}
	m.Start()
	if n, err := m.Hosts.Count(ctx); err == nil {
		app.metrics.SetHostCount(n)
	}

	srv := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        app.setupRouter(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.wsHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		if cfg.Server.TLSCert != "" {
			m.Log.Writef("Starting HTTPS server on %s", srv.Addr)
			err = srv.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			m.Log.Writef("Starting server on %s", srv.Addr)
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		m.Log.Write("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.TerminationTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	m.Log.Write("Server exited")
	return err
}

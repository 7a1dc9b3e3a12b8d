package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avoronov/identity-service/internal/config"
	"github.com/avoronov/identity-service/internal/handler"
	"github.com/avoronov/identity-service/internal/repository"
	"github.com/avoronov/identity-service/internal/service"
	"github.com/avoronov/identity-service/internal/utils"
	"github.com/avoronov/identity-service/pkg/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.TokenExpiry.Duration,
	)

	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.User,
		repos.AuthProvider,
		jwtManager,
		cfg.Security.BCryptCost,
	)

	authHandler := handler.NewAuthHandler(authService, infra.AuthMetrics())

	var oauthHandler *handler.OAuthHandler
	if cfg.Google.Enabled() {
		provider := service.NewGoogleOAuthProvider(
			cfg.Google.ClientID,
			cfg.Google.ClientSecret,
			cfg.Google.CallbackURL,
		)
		oauthService := service.NewOAuthService(provider, repos.User, repos.AuthProvider, repos, jwtManager)
		oauthHandler = handler.NewOAuthHandler(oauthService, infra.AuthMetrics())
	} else {
		infra.Logger().Warn("Google OAuth client not configured, /auth/google routes disabled")
	}

	router := gin.Default()
	router.Use(otelgin.Middleware("identity-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, oauthHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	oauthHandler *handler.OAuthHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.ScopedKey("register", handler.IPBasedKey)),
				authHandler.Register,
			)
			auth.POST("/login",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.ScopedKey("login", handler.IPBasedKey)),
				authHandler.Login,
			)
			auth.POST("/change-password", handler.AuthMiddleware(authService), authHandler.ChangePassword)
			auth.GET("/protected", handler.AuthMiddleware(authService), authHandler.Protected)

			if oauthHandler != nil {
				auth.GET("/google", oauthHandler.GoogleLogin)
				auth.GET("/google/callback", oauthHandler.GoogleCallback)
			}
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}

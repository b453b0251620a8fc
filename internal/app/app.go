// Package app wires the service together and owns its lifecycle.
package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/d-kovalchuk/weather-notify-api/docs"
	"github.com/d-kovalchuk/weather-notify-api/internal/cache"
	"github.com/d-kovalchuk/weather-notify-api/internal/config"
	"github.com/d-kovalchuk/weather-notify-api/internal/emailer"
	subHandlers "github.com/d-kovalchuk/weather-notify-api/internal/handlers/subscription"
	weatherHandlers "github.com/d-kovalchuk/weather-notify-api/internal/handlers/weather"
	"github.com/d-kovalchuk/weather-notify-api/internal/metrics"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
	"github.com/d-kovalchuk/weather-notify-api/internal/notifier"
	"github.com/d-kovalchuk/weather-notify-api/internal/repository/sqlite"
	"github.com/d-kovalchuk/weather-notify-api/internal/services/email"
	httplogger "github.com/d-kovalchuk/weather-notify-api/internal/services/logger"
	"github.com/d-kovalchuk/weather-notify-api/internal/services/subscription"
	serviceWeather "github.com/d-kovalchuk/weather-notify-api/internal/services/weather"
	"github.com/d-kovalchuk/weather-notify-api/internal/services/weather/decorators"
	"github.com/d-kovalchuk/weather-notify-api/internal/weathercache"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg config.Config
	log *zap.Logger
}

type ServiceContainer struct {
	WeatherService      *weathercache.Cache
	SubscriptionService *subscription.Service
	Notificator         *notifier.Notifier
	SubRepository       *sqlite.SubscriptionRepository
	Metrics             *metrics.Metrics

	Router *gin.Engine
	Srv    *http.Server
	Db     *sql.DB
}

func New(cfg config.Config, log *zap.Logger) *App {
	return &App{cfg: cfg, log: log}
}

func (a *App) Init() (*ServiceContainer, error) {
	db, err := CreateSqliteDb(a.cfg.DB.Dialect, a.cfg.DB.Source)
	if err != nil {
		return nil, err
	}
	if err := InitSqliteDb(db, a.cfg.DB.Dialect, a.cfg.DB.MigrationsPath); err != nil {
		return nil, err
	}

	m := metrics.NewMetrics("weather_notify")

	router := gin.New()
	router.Use(gin.Recovery(), m.Middleware())

	apiServer := &http.Server{
		Addr:        a.cfg.Server.Address,
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	httpClient := &http.Client{Transport: httplogger.NewRoundTripper(a.log)}
	weatherAPIClient := serviceWeather.NewClientWeatherAPI(
		a.cfg.Weather.APIKey,
		a.cfg.Weather.APIURL,
		httpClient,
		a.log,
	)
	breakerClient := serviceWeather.NewBreakerClient("weatherapi", serviceWeather.BreakerConfig{
		Interval: a.cfg.Breaker.Interval,
		Timeout:  a.cfg.Breaker.Timeout,
		Failures: a.cfg.Breaker.Failures,
	}, weatherAPIClient)
	provider := serviceWeather.NewService(a.log, breakerClient)

	var weatherService *weathercache.Cache
	if a.cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: a.cfg.Redis.Addr})
		redisCache := cache.NewRedisClient[models.WeatherData](redisClient, a.cfg.Redis.TTL)
		cached := decorators.NewCachedService(provider, redisCache, a.log)
		weatherService = weathercache.New(cached, a.cfg.Cache.TTL, a.cfg.Cache.FetchTimeout, a.log, m)
	} else {
		weatherService = weathercache.New(provider, a.cfg.Cache.TTL, a.cfg.Cache.FetchTimeout, a.log, m)
	}

	subRepository := sqlite.NewSubscriptionRepository(db, a.log)

	smtpService, err := emailer.NewSMTPService(a.cfg.Email, a.log)
	if err != nil {
		return nil, err
	}
	emailService := email.NewService(smtpService, a.cfg.TemplatesDir, a.cfg.AppBaseURL)

	subscriptionService := subscription.NewService(subRepository, weatherService, emailService, a.log, m)

	notificator := notifier.New(
		subRepository,
		weatherService,
		emailService,
		a.log,
		a.cfg.NotifierFreq.HourlySpec,
		a.cfg.NotifierFreq.DailySpec,
		a.cfg.NotifierFreq.CycleTimeout,
		m,
	)

	return &ServiceContainer{
		WeatherService:      weatherService,
		SubscriptionService: subscriptionService,
		Notificator:         notificator,
		SubRepository:       subRepository,
		Metrics:             m,
		Router:              router,
		Srv:                 apiServer,
		Db:                  db,
	}, nil
}

func (a *App) Start(ctx context.Context, c *ServiceContainer) error {
	a.log.Info("starting server", zap.String("address", a.cfg.Server.Address))

	subHandler := subHandlers.NewHandler(c.SubscriptionService, a.log)
	weatherHandler := weatherHandlers.NewHandler(c.WeatherService, a.log)

	api := c.Router.Group("/api")
	{
		api.GET("/weather", weatherHandler.GetWeather)
		api.POST("/subscribe", subHandler.Subscribe)
		api.GET("/confirm/:token", subHandler.Confirm)
		api.GET("/unsubscribe/:token", subHandler.Unsubscribe)
	}
	c.Router.GET("/metrics", c.Metrics.Handler())
	c.Router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))

	if err := c.Notificator.Start(ctx); err != nil {
		return err
	}

	if err := c.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Stop(c *ServiceContainer) error {
	a.log.Info("stopping application")

	c.Notificator.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.Srv.Shutdown(ctx); err != nil {
		a.log.Error("HTTP shutdown error", zap.Error(err))
	}
	if err := c.Db.Close(); err != nil {
		a.log.Error("DB close error", zap.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}

func CreateSqliteDb(dialect, name string) (*sql.DB, error) {
	if name == "" {
		return nil, errors.New("database name cannot be empty")
	}
	db, err := sql.Open(dialect, "file:"+name+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func InitSqliteDb(db *sql.DB, dialect, migrationsPath string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.Up(db, migrationsPath)
}

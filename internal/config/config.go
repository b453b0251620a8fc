package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Address     string `envconfig:"SERVER_ADDRESS" default:":8080"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type Db struct {
	Dialect        string `envconfig:"DB_DIALECT" default:"sqlite"`
	Source         string `envconfig:"DB_NAME" default:"weather.db"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_DIR" default:"./migrations"`
}

type Email struct {
	Host     string `envconfig:"EMAIL_HOST" default:"localhost"`
	Port     int    `envconfig:"EMAIL_PORT" default:"587"`
	User     string `envconfig:"EMAIL_USER"`
	Password string `envconfig:"EMAIL_PASSWORD"`
	From     string `envconfig:"EMAIL_FROM" default:"weather@localhost"`
	FromName string `envconfig:"EMAIL_FROM_NAME" default:"Weather App"`
	UseTLS   bool   `envconfig:"EMAIL_TLS" default:"false"`
}

type Weather struct {
	APIKey string `envconfig:"WEATHER_API_KEY" required:"true"`
	APIURL string `envconfig:"WEATHER_API_URL" default:"https://api.weatherapi.com/v1/current.json"`
}

type Cache struct {
	// TTL defaults to the shortest dispatch interval so hourly
	// subscribers never receive a snapshot older than one cycle.
	TTL          time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	FetchTimeout time.Duration `envconfig:"CACHE_FETCH_TIMEOUT" default:"10s"`
}

type Redis struct {
	Addr string        `envconfig:"REDIS_ADDR"`
	TTL  time.Duration `envconfig:"REDIS_TTL" default:"10m"`
}

type NotifierFrequency struct {
	HourlySpec   string        `envconfig:"NOTIFIER_HOURLY_SPEC" default:"0 * * * *"`
	DailySpec    string        `envconfig:"NOTIFIER_DAILY_SPEC" default:"0 8 * * *"`
	CycleTimeout time.Duration `envconfig:"NOTIFIER_CYCLE_TIMEOUT" default:"5m"`
}

type Breaker struct {
	Interval time.Duration `envconfig:"BREAKER_INTERVAL" default:"1m"`
	Timeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
	Failures uint32        `envconfig:"BREAKER_FAILURES" default:"3"`
}

type Config struct {
	AppBaseURL   string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	TemplatesDir string `envconfig:"TEMPLATES_DIR" default:"./templates"`
	LogsPath     string `envconfig:"LOGS_PATH" default:"./logs/app.log"`

	Server       Server
	DB           Db
	Email        Email
	Weather      Weather
	Cache        Cache
	Redis        Redis
	NotifierFreq NotifierFrequency
	Breaker      Breaker
}

func NewConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

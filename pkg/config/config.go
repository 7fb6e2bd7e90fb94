package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
)

type Config struct {
	Port          string
	AppEnv        string
	LogLevel      string
	BaseURL       string // Origin the browser uses to reach this dashboard
	APIServerURL  string
	AuthServerURL string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthScopes       []string

	SessionURL string // sqlite file, libsql://, redis:// or memory://
	SessionKey string

	PageSize            int
	MetricConcurrency   int
	PrimaryFetchRetries int
	RequestTimeout      time.Duration
	MetricsEnabled      bool
}

// RedirectURL is the callback registered verbatim with the authorization server.
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.BaseURL, "/") + domain.RouteCallback
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	v.AutomaticEnv()

	return &Config{
		Port:                v.GetString("PORT"),
		AppEnv:              v.GetString("APP_ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		BaseURL:             v.GetString("BASE_URL"),
		APIServerURL:        v.GetString("API_SERVER_URL"),
		AuthServerURL:       v.GetString("AUTH_SERVER_URL"),
		OAuthClientID:       v.GetString("OAUTH2_CLIENT_ID"),
		OAuthClientSecret:   v.GetString("OAUTH2_CLIENT_SECRET"),
		OAuthScopes:         strings.Fields(v.GetString("OAUTH2_SCOPES")),
		SessionURL:          v.GetString("SESSION_URL"),
		SessionKey:          v.GetString("SESSION_KEY"),
		PageSize:            v.GetInt("PAGE_SIZE"),
		MetricConcurrency:   v.GetInt("METRIC_CONCURRENCY"),
		PrimaryFetchRetries: v.GetInt("PRIMARY_FETCH_RETRIES"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		MetricsEnabled:      v.GetBool("METRICS_ENABLED"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("API_SERVER_URL", "http://localhost:8080")
	v.SetDefault("AUTH_SERVER_URL", "http://localhost:9000")
	v.SetDefault("OAUTH2_CLIENT_ID", "sankshipt-client")
	v.SetDefault("OAUTH2_CLIENT_SECRET", "sankshipt-client-secret")
	v.SetDefault("OAUTH2_SCOPES", "api.read api.write api.delete")
	v.SetDefault("SESSION_URL", "file:session.sqlite")
	v.SetDefault("SESSION_KEY", "accessToken")
	v.SetDefault("PAGE_SIZE", 20)
	v.SetDefault("METRIC_CONCURRENCY", 8)
	v.SetDefault("PRIMARY_FETCH_RETRIES", 2)
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("METRICS_ENABLED", true)
}

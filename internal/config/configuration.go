package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"thirdcoast.systems/leadwatch/internal/leads"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int `mapstructure:"WEBSERVER_PORT"`

	// Storage Configuration
	StoreDriver     string `mapstructure:"STORE_DRIVER" validate:"oneof=postgres memory"`
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required_if=StoreDriver postgres"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Scrape provider
	ScrapeStrategy        string        `mapstructure:"SCRAPE_STRATEGY" validate:"oneof=poll webhook"`
	ApifyToken            string        `mapstructure:"APIFY_TOKEN" validate:"required"`
	ApifyBaseURL          string        `mapstructure:"APIFY_BASE_URL" validate:"required,url"`
	ApifyActorID          string        `mapstructure:"APIFY_ACTOR_ID" validate:"required"`
	ScrapeResultsPerVideo int           `mapstructure:"SCRAPE_RESULTS_PER_VIDEO" validate:"min=1,max=1000"`
	ScrapePollInterval    time.Duration `mapstructure:"SCRAPE_POLL_INTERVAL" validate:"gt=0s"`
	ScrapePollBudget      time.Duration `mapstructure:"SCRAPE_POLL_BUDGET" validate:"gt=0s,lt=10s"`
	ScrapeRecordSchema    string        `mapstructure:"SCRAPE_RECORD_SCHEMA" validate:"oneof=auto apidojo-v1 clockworks-v2"`

	// Webhook callback
	WebhookPublicURL string `mapstructure:"WEBHOOK_PUBLIC_URL" validate:"required_if=ScrapeStrategy webhook,omitempty,url"`
	WebhookSecret    string `mapstructure:"WEBHOOK_SECRET"`

	// Helpdesk
	HelpdeskBaseURL          string   `mapstructure:"HELPDESK_BASE_URL" validate:"required_without=HelpdeskSubdomain,omitempty,url"`
	HelpdeskSubdomain        string   `mapstructure:"HELPDESK_SUBDOMAIN" validate:"omitempty,hostname_rfc1123"`
	HelpdeskAuth             string   `mapstructure:"HELPDESK_AUTH" validate:"oneof=basic bearer"`
	HelpdeskEmail            string   `mapstructure:"HELPDESK_EMAIL" validate:"required_if=HelpdeskAuth basic,omitempty,email"`
	HelpdeskAPIToken         string   `mapstructure:"HELPDESK_API_TOKEN" validate:"required"`
	HelpdeskExternalIDPrefix string   `mapstructure:"HELPDESK_EXTERNAL_ID_PREFIX" validate:"required"`
	HelpdeskTags             []string `mapstructure:"HELPDESK_TAGS"`
	HelpdeskTicketType       string   `mapstructure:"HELPDESK_TICKET_TYPE" validate:"omitempty,oneof=problem incident question task"`
	HelpdeskPriority         string   `mapstructure:"HELPDESK_PRIORITY" validate:"omitempty,oneof=low normal high urgent"`
	HelpdeskVideoFieldID     int64    `mapstructure:"HELPDESK_VIDEO_FIELD_ID" validate:"gte=0"`

	// Pipeline
	KeywordPolicy    string        `mapstructure:"KEYWORD_POLICY" validate:"oneof=substring question"`
	CycleBudget      time.Duration `mapstructure:"CYCLE_BUDGET" validate:"gte=0s"`
	CycleConcurrency int           `mapstructure:"CYCLE_CONCURRENCY" validate:"min=1,max=16"`
	CycleInterval    time.Duration `mapstructure:"CYCLE_INTERVAL" validate:"gte=1m"`
	ClaimTTL         time.Duration `mapstructure:"CLAIM_TTL" validate:"gte=1s"`

	// Optional infrastructure
	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB" validate:"gte=0"`
	NatsURL       string `mapstructure:"NATS_URL" validate:"omitempty,url"`
	NatsSubject   string `mapstructure:"NATS_SUBJECT" validate:"required"`
}

// HelpdeskURL returns the helpdesk API root, preferring an explicit base URL.
func (c Config) HelpdeskURL() string {
	if u := strings.TrimRight(strings.TrimSpace(c.HelpdeskBaseURL), "/"); u != "" {
		return u
	}
	return "https://" + strings.TrimSpace(c.HelpdeskSubdomain) + ".zendesk.com"
}

// LogValue keeps credentials out of the logs.
func (c Config) LogValue() slog.Value {
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return "[redacted]"
	}
	return slog.GroupValue(
		slog.Int("webserver_port", c.WebServerPort),
		slog.String("store_driver", c.StoreDriver),
		slog.String("database_dsn", redact(c.DatabaseDSN)),
		slog.String("scrape_strategy", c.ScrapeStrategy),
		slog.String("apify_base_url", c.ApifyBaseURL),
		slog.String("apify_actor_id", c.ApifyActorID),
		slog.String("apify_token", redact(c.ApifyToken)),
		slog.Int("scrape_results_per_video", c.ScrapeResultsPerVideo),
		slog.Duration("scrape_poll_interval", c.ScrapePollInterval),
		slog.Duration("scrape_poll_budget", c.ScrapePollBudget),
		slog.String("scrape_record_schema", c.ScrapeRecordSchema),
		slog.String("webhook_public_url", c.WebhookPublicURL),
		slog.String("webhook_secret", redact(c.WebhookSecret)),
		slog.String("helpdesk_url", c.HelpdeskURL()),
		slog.String("helpdesk_auth", c.HelpdeskAuth),
		slog.String("helpdesk_api_token", redact(c.HelpdeskAPIToken)),
		slog.String("keyword_policy", c.KeywordPolicy),
		slog.Duration("cycle_budget", c.CycleBudget),
		slog.Int("cycle_concurrency", c.CycleConcurrency),
		slog.Duration("cycle_interval", c.CycleInterval),
		slog.String("redis_addr", c.RedisAddr),
		slog.String("nats_url", c.NatsURL),
	)
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			_ = viper.BindEnv(tag)
		}
	}
}

func setDefaults() {
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("STORE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_RETRIES", 10)

	viper.SetDefault("SCRAPE_STRATEGY", "poll")
	viper.SetDefault("APIFY_BASE_URL", "https://api.apify.com")
	viper.SetDefault("APIFY_ACTOR_ID", "apidojo~tiktok-comments-scraper")
	viper.SetDefault("SCRAPE_RESULTS_PER_VIDEO", 50)
	viper.SetDefault("SCRAPE_POLL_INTERVAL", 1500*time.Millisecond)
	viper.SetDefault("SCRAPE_POLL_BUDGET", 8*time.Second)
	viper.SetDefault("SCRAPE_RECORD_SCHEMA", "auto")

	viper.SetDefault("HELPDESK_AUTH", "basic")
	viper.SetDefault("HELPDESK_EXTERNAL_ID_PREFIX", "tiktok")
	viper.SetDefault("HELPDESK_TAGS", []string{"tiktok_campaign", "filtered_lead"})
	viper.SetDefault("HELPDESK_TICKET_TYPE", "incident")

	viper.SetDefault("KEYWORD_POLICY", "substring")
	viper.SetDefault("CYCLE_CONCURRENCY", 1)
	viper.SetDefault("CYCLE_INTERVAL", 15*time.Minute)
	viper.SetDefault("CLAIM_TTL", 2*time.Minute)
	viper.SetDefault("NATS_SUBJECT", "leads.created")
}

// LoadConfig reads the environment. Any failure wraps leads.ErrConfiguration.
func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()
	setDefaults()

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %w", leads.ErrConfiguration, err)
	}
	cfg.HelpdeskTags = cleanList(cfg.HelpdeskTags)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: validate config: %w", leads.ErrConfiguration, err)
	}
	if cfg.ScrapePollInterval >= cfg.ScrapePollBudget {
		return nil, leads.Configurationf("SCRAPE_POLL_INTERVAL (%s) must be shorter than SCRAPE_POLL_BUDGET (%s)", cfg.ScrapePollInterval, cfg.ScrapePollBudget)
	}

	slog.Info("Loaded configuration", "config", cfg)
	return &cfg, nil
}

// LoadDatabaseConfig only validates the storage settings. Used by tools
// that never talk to the scrape provider or the helpdesk.
func LoadDatabaseConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()
	setDefaults()

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %w", leads.ErrConfiguration, err)
	}
	if err := validator.New().StructPartial(cfg, "StoreDriver", "DatabaseDSN"); err != nil {
		return nil, fmt.Errorf("%w: validate config: %w", leads.ErrConfiguration, err)
	}
	if cfg.DatabaseDSN == "" {
		return nil, leads.Configurationf("DATABASE_DSN is required")
	}
	return &cfg, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	UpstreamRPM     int
	PollInterval    time.Duration
	TeamsRegion     string

	TeamsCacheTTL time.Duration
	NewsCacheTTL  time.Duration

	RabbitMQURL         string
	RabbitExchange      string
	RabbitQueue         string
	RabbitRoutingKey    string
	RabbitConsumerTag   string
	RabbitPublishPrefix string

	SSEHeartbeat    time.Duration
	SSEClientBuffer int
	HistoryLimit    int
	HistoryCap      int

	OTELServiceName string
	OTLPEndpoint    string
	OTLPInsecure    bool
	OTELSampleRatio float64
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:            ":8080",
		UpstreamBaseURL:     "https://vlrggapi.vercel.app",
		UpstreamTimeout:     10 * time.Second,
		UpstreamRPM:         60,
		PollInterval:        15 * time.Second,
		TeamsRegion:         "eu",
		TeamsCacheTTL:       5 * time.Minute,
		NewsCacheTTL:        30 * time.Minute,
		RabbitExchange:      "notifications",
		RabbitQueue:         "notifications.matchpulse",
		RabbitRoutingKey:    "notification.*",
		RabbitConsumerTag:   "matchpulse-consumer",
		RabbitPublishPrefix: "notification",
		SSEHeartbeat:        15 * time.Second,
		SSEClientBuffer:     16,
		HistoryLimit:        20,
		HistoryCap:          100,
		OTELServiceName:     "matchpulse",
		OTLPInsecure:        true,
		OTELSampleRatio:     1,
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	} else if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}

	if v := os.Getenv("UPSTREAM_BASE_URL"); v != "" {
		cfg.UpstreamBaseURL = v
	}
	if v := os.Getenv("TEAMS_REGION"); v != "" {
		cfg.TeamsRegion = v
	}
	cfg.UpstreamTimeout = seconds("UPSTREAM_TIMEOUT_SECONDS", cfg.UpstreamTimeout)
	cfg.PollInterval = seconds("POLL_INTERVAL_SECONDS", cfg.PollInterval)
	cfg.TeamsCacheTTL = seconds("TEAMS_CACHE_TTL_SECONDS", cfg.TeamsCacheTTL)
	cfg.NewsCacheTTL = seconds("NEWS_CACHE_TTL_SECONDS", cfg.NewsCacheTTL)
	cfg.UpstreamRPM = positiveInt("UPSTREAM_RPM", cfg.UpstreamRPM)

	cfg.RabbitMQURL = os.Getenv("RABBITMQ_URL")

	if v := os.Getenv("RABBITMQ_EXCHANGE"); v != "" {
		cfg.RabbitExchange = v
	}
	if v := os.Getenv("RABBITMQ_QUEUE"); v != "" {
		cfg.RabbitQueue = v
	}
	if v := os.Getenv("RABBITMQ_ROUTING_KEY"); v != "" {
		cfg.RabbitRoutingKey = v
	}
	if v := os.Getenv("RABBITMQ_CONSUMER_TAG"); v != "" {
		cfg.RabbitConsumerTag = v
	}
	if v := os.Getenv("RABBITMQ_PUBLISH_PREFIX"); v != "" {
		cfg.RabbitPublishPrefix = v
	}

	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.OTELServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTLPEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OTLPInsecure = b
		}
	}
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r >= 0 && r <= 1 {
			cfg.OTELSampleRatio = r
		}
	}

	cfg.SSEHeartbeat = seconds("SSE_HEARTBEAT_SECONDS", cfg.SSEHeartbeat)
	cfg.SSEClientBuffer = positiveInt("SSE_CLIENT_BUFFER", cfg.SSEClientBuffer)
	cfg.HistoryLimit = positiveInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.HistoryCap = positiveInt("HISTORY_CAP", cfg.HistoryCap)

	return cfg
}

func seconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

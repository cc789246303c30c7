package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ScoreWeights are the relevance bonuses used by every search tier.
type ScoreWeights struct {
	Window    int
	Breakfast int
	Children  int
	Name      int // upper bound of the keyword-to-name similarity score
}

func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{Window: 20, Breakfast: 15, Children: 10, Name: 30}
}

type Config struct {
	AppEnv      string
	ServiceName string
	// InstanceID names this process to Kafka; it must survive restarts.
	InstanceID  string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	RequestTimeout      time.Duration
	SearchCacheTTL      time.Duration
	SearchMaxCandidates int
	Weights             ScoreWeights

	HeartbeatInterval time.Duration
	SubscriberBuffer  int
	NotifyTimeout     time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	MaterializeDays    int
	MaterializeWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	secs := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	w := DefaultScoreWeights()
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		ServiceName: env("SERVICE_NAME", "roomfinder-api"),
		InstanceID:  env("INSTANCE_ID", hostname()),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/roomfinder?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		KafkaBrokers: splitCSV(env("KAFKA_BROKERS", "")),
		KafkaTopic:   env("KAFKA_TOPIC", "inventory.changed"),
		KafkaGroup:   env("KAFKA_GROUP", "roomfinder-realtime"),

		RequestTimeout:      secs("REQUEST_TIMEOUT_SECONDS", 15),
		SearchCacheTTL:      secs("SEARCH_CACHE_TTL_SECONDS", 30),
		SearchMaxCandidates: atoi("SEARCH_MAX_CANDIDATES", 500),
		Weights: ScoreWeights{
			Window:    atoi("SCORE_WEIGHT_WINDOW", w.Window),
			Breakfast: atoi("SCORE_WEIGHT_BREAKFAST", w.Breakfast),
			Children:  atoi("SCORE_WEIGHT_CHILDREN", w.Children),
			Name:      atoi("SCORE_WEIGHT_NAME", w.Name),
		},

		HeartbeatInterval: secs("HEARTBEAT_INTERVAL_SECONDS", 25),
		SubscriberBuffer:  atoi("SUBSCRIBER_BUFFER", 16),
		NotifyTimeout:     secs("NOTIFY_TIMEOUT_SECONDS", 5),

		RateLimitRPS:   atoi("RATE_LIMIT_RPS", 50),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 100),

		MaterializeDays:    atoi("MATERIALIZE_DAYS", 365),
		MaterializeWorkers: atoi("MATERIALIZE_WORKERS", 8),
	}
	if c.HeartbeatInterval <= 0 {
		log.Warn().Msg("HEARTBEAT_INTERVAL_SECONDS must be positive; using 25s")
		c.HeartbeatInterval = 25 * time.Second
	}
	if len(c.KafkaBrokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS is empty; inventory events stay in-process")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// hostname is the pod name under Kubernetes.
func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "local"
	}
	return h
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

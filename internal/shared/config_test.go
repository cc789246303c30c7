package shared_test

import (
	"os"
	"testing"
	"time"

	"roomfinder/internal/shared"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("SCORE_WEIGHT_WINDOW", "25")
	t.Setenv("SEARCH_CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("HEARTBEAT_INTERVAL_SECONDS", "0")

	c := shared.Load()
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers: %v", c.KafkaBrokers)
	}
	if c.Weights.Window != 25 || c.Weights.Breakfast != 15 || c.Weights.Children != 10 || c.Weights.Name != 30 {
		t.Fatalf("weights: %+v", c.Weights)
	}
	if c.SearchCacheTTL != 30*time.Second {
		t.Fatalf("invalid TTL should fall back to default, got %v", c.SearchCacheTTL)
	}
	if c.HeartbeatInterval != 25*time.Second {
		t.Fatalf("heartbeat: %v", c.HeartbeatInterval)
	}
}

func TestLoad_InstanceIDIsStable(t *testing.T) {
	t.Setenv("INSTANCE_ID", "")
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "local"
	}
	a, b := shared.Load(), shared.Load()
	if a.InstanceID != host || b.InstanceID != a.InstanceID {
		t.Fatalf("instance id should default to the hostname: %q %q", a.InstanceID, b.InstanceID)
	}

	t.Setenv("INSTANCE_ID", "api-7")
	if got := shared.Load().InstanceID; got != "api-7" {
		t.Fatalf("INSTANCE_ID override: %q", got)
	}
}

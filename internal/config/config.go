package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"livecricket.dev/scoring/internal/auth"
	"livecricket.dev/scoring/internal/ids"
)

// Config is the process-wide configuration for the scoring server,
// assembled from environment variables (a .env file is loaded first if
// present, matching the teacher's deployment convention).
type Config struct {
	// Command and query HTTP servers (C7/C8)
	CommandHost string
	CommandPort int
	QueryHost   string
	QueryPort   int

	// Event store (C1)
	EventStorePath string

	// Auth (C6/C7) — StaticVerifier tokens, "token:playerId" pairs
	StaticAuthTokens string

	// Domain config loaders (C2/C4)
	DefaultRulesPath    string
	ConsensusPolicyPath string

	// Archive — cold storage handoff on match completion
	ArchiveEnabled bool
	ArchivePath    string

	// WebSocket hub (C6)
	AllowedOrigins   []string
	SubscriberBuffer int

	// Timing
	CommandDeadline time.Duration
	SweepInterval   time.Duration

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		CommandHost: envStr("COMMAND_HOST", "0.0.0.0"),
		CommandPort: envInt("COMMAND_PORT", 8080),
		QueryHost:   envStr("QUERY_HOST", "0.0.0.0"),
		QueryPort:   envInt("QUERY_PORT", 8081),

		EventStorePath: envStr("EVENT_STORE_PATH", "data/events.db"),

		StaticAuthTokens: envStr("STATIC_AUTH_TOKENS", ""),

		DefaultRulesPath:    envStr("DEFAULT_RULES_PATH", "internal/config/rules.yaml"),
		ConsensusPolicyPath: envStr("CONSENSUS_POLICY_PATH", "internal/config/consensus_policy.yaml"),

		ArchiveEnabled: envStr("ARCHIVE_ENABLED", "false") == "true",
		ArchivePath:    envStr("ARCHIVE_PATH", "data/archive"),

		AllowedOrigins:   envList("ALLOWED_ORIGINS", []string{"*"}),
		SubscriberBuffer: envInt("SUBSCRIBER_BUFFER", 64),

		CommandDeadline: time.Duration(envInt("COMMAND_DEADLINE_SEC", 5)) * time.Second,
		SweepInterval:   time.Duration(envInt("SWEEP_INTERVAL_SEC", 5)) * time.Second,

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

// StaticVerifier parses StaticAuthTokens ("token:playerId,token:playerId")
// into an auth.StaticVerifier. Returns an empty verifier (rejects every
// token) if unset.
func (c *Config) StaticVerifier() auth.StaticVerifier {
	v := make(auth.StaticVerifier)
	if c.StaticAuthTokens == "" {
		return v
	}
	for _, pair := range strings.Split(c.StaticAuthTokens, ",") {
		token, playerID, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || playerID == "" {
			continue
		}
		v[token] = ids.PlayerID(playerID)
	}
	return v
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

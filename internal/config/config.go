// Package config loads monitor and replay settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Readiness modes accepted by READINESS_MODE.
const (
	ReadinessAuto     = "auto"
	ReadinessImplicit = "implicit"
	ReadinessExplicit = "explicit"
)

// UI modes accepted by UI_MODE.
const (
	UITUI   = "tui"
	UIPlain = "plain"
)

// Configuration is the full process configuration.
type Configuration struct {
	Backend       BackendConfig
	Playback      PlaybackConfig
	UI            UIConfig
	Observability ObservabilityConfig
	Kafka         KafkaConfig
	Replay        ReplayConfig
}

// BackendConfig locates the analysis backend.
type BackendConfig struct {
	URL           string
	ReadinessMode string
	CheckTimeout  time.Duration
}

// PlaybackConfig drives the simulated media clock.
type PlaybackConfig struct {
	AudioPath    string
	Duration     float64 // seconds; 0 means probe AudioPath
	TickInterval time.Duration
	Autoplay     bool
}

// UIConfig selects the presentation.
type UIConfig struct {
	Mode          string
	ToastDuration time.Duration
}

// ObservabilityConfig controls logging and metrics.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	LogFile     string
	MetricsAddr string
}

// KafkaConfig controls the alert publisher.
type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	AlertTopic string
	Principal  string
}

// ReplayConfig controls the replay backend.
type ReplayConfig struct {
	Port          string
	ScriptPath    string
	ExplicitReady bool
	Realtime      bool
}

// Load reads the configuration from the environment. Invalid values fall back
// to defaults.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-scamguard-monitor")

	return &Configuration{
		Backend: BackendConfig{
			URL:           envOrDefault("BACKEND_URL", "http://localhost:8000"),
			ReadinessMode: envOneOf("READINESS_MODE", ReadinessAuto, ReadinessAuto, ReadinessImplicit, ReadinessExplicit),
			CheckTimeout:  envOrDefaultDuration("CHECK_TIMEOUT", 30*time.Second),
		},
		Playback: PlaybackConfig{
			AudioPath:    envOrDefault("AUDIO_PATH", "static/audio/scam_bank.wav"),
			Duration:     envOrDefaultFloat("AUDIO_DURATION", 0),
			TickInterval: envOrDefaultDuration("TICK_INTERVAL", 250*time.Millisecond),
			Autoplay:     envOrDefaultBool("AUTOPLAY", false),
		},
		UI: UIConfig{
			Mode:          envOneOf("UI_MODE", UITUI, UITUI, UIPlain),
			ToastDuration: envOrDefaultDuration("TOAST_DURATION", 6*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:    strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
			LogFormat:   envOneOf("LOG_FORMAT", "console", "console", "json"),
			LogFile:     envOrDefault("LOG_FILE", "scamguard.log"),
			MetricsAddr: os.Getenv("METRICS_ADDR"),
		},
		Kafka: KafkaConfig{
			Enabled:    envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:    envList("KAFKA_BROKERS"),
			AlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "scamguard.alerts"),
			Principal:  envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Replay: ReplayConfig{
			Port:          envOrDefault("REPLAY_PORT", "8000"),
			ScriptPath:    envOrDefault("REPLAY_SCRIPT", "testdata/scam_bank.json"),
			ExplicitReady: envOrDefaultBool("REPLAY_EXPLICIT_READY", true),
			Realtime:      envOrDefaultBool("REPLAY_REALTIME", true),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envOneOf(key, def string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

func envList(key string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(key), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

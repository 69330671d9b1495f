package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Default configuration values (production)
const (
	DefaultListenAddr = ":8080"
	DefaultServerURL  = "ws://localhost:8080/ws"
	DefaultSTUN       = "stun:stun.l.google.com:19302,stun:stun1.l.google.com:19302"
	DefaultLogLevel   = "info"
)

// Config holds application configuration
type Config struct {
	// ListenAddr is the relay server's bind address.
	ListenAddr string

	// ServerURL is the websocket URL a client peer dials.
	ServerURL string

	// STUNServers are the address-discovery servers handed to the media
	// session. No TURN fallback is configured.
	STUNServers []string

	// LogLevel selects the logrus level.
	LogLevel string
}

// Options for loading config with CLI flag overrides
type Options struct {
	ListenAddr string
	ServerURL  string
	STUN       string
	LogLevel   string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables (a .env file is folded in when present)
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	// Missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	addr := firstOf(opts.ListenAddr, os.Getenv("PEERCHAT_ADDR"), DefaultListenAddr)
	serverURL := firstOf(opts.ServerURL, os.Getenv("PEERCHAT_SERVER_URL"), DefaultServerURL)
	stun := firstOf(opts.STUN, os.Getenv("PEERCHAT_STUN"), DefaultSTUN)
	logLevel := firstOf(opts.LogLevel, os.Getenv("PEERCHAT_LOG_LEVEL"), DefaultLogLevel)

	return &Config{
		ListenAddr:  addr,
		ServerURL:   serverURL,
		STUNServers: splitList(stun),
		LogLevel:    logLevel,
	}, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Source kinds understood by the scene reconciler.
const (
	SourceKindFFmpeg = "ffmpeg"
	SourceKindVLC    = "vlc"
)

// Config is the immutable runtime configuration, built once at startup.
type Config struct {
	RTMPStatusURL string
	SRTStatusURL  string
	RTMPBaseURL   string
	SRTBaseURL    string

	OBSHost     string
	OBSPort     int
	OBSPassword string

	ScenePrefix    string
	SourceKind     string
	SourceBufferMB int

	PollInterval time.Duration
	HTTPTimeout  time.Duration
	OBSTimeout   time.Duration

	AdminAddr string
	LockFile  string
	LogLevel  string
	LogFormat string
}

// Load reads .env files and sets any variables that are not already present
// in the process environment. With no paths, ".env" is used. A missing file
// is not an error; a malformed one is.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Config from the process environment, falling back to
// defaults for anything unset. defaultLogFormat is used when LOG_FORMAT is empty.
func FromEnv(defaultLogFormat string) Config {
	return Config{
		RTMPStatusURL: GetEnv("NGINX_RTMP_STATUS_URL", "https://rtmp.example.com/status"),
		SRTStatusURL:  lookupEnv("SRT_STATUS_URL", "http://srt.example.com:8080/streams"),
		RTMPBaseURL:   GetEnv("STREAM_BASE_URL", "rtmp://rtmp.example.com"),
		SRTBaseURL:    GetEnv("SRT_BASE_URL", "srt://srt.example.com:9000?streamid="),

		OBSHost:     GetEnv("OBS_HOST", "localhost"),
		OBSPort:     GetEnvInt("OBS_PORT", 4455),
		OBSPassword: os.Getenv("OBS_PASSWORD"),

		ScenePrefix:    GetEnv("SCENE_PREFIX", "stream_"),
		SourceKind:     strings.ToLower(GetEnv("SOURCE_KIND", SourceKindFFmpeg)),
		SourceBufferMB: GetEnvInt("SOURCE_BUFFER_MB", 2),

		PollInterval: GetEnvSeconds("CHECK_INTERVAL", 5*time.Second),
		HTTPTimeout:  GetEnvSeconds("HTTP_TIMEOUT", 5*time.Second),
		OBSTimeout:   GetEnvSeconds("OBS_TIMEOUT", 10*time.Second),

		AdminAddr: lookupEnv("ADMIN_ADDR", ":9090"),
		LockFile:  GetEnv("LOCK_FILE", filepath.Join(os.TempDir(), "obs-stream-sync.lock")),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", defaultLogFormat),
	}
}

// Validate reports the first setting that would make the service misbehave.
func (c Config) Validate() error {
	switch {
	case c.RTMPStatusURL == "":
		return errors.New("NGINX_RTMP_STATUS_URL must not be empty")
	case c.ScenePrefix == "":
		return errors.New("SCENE_PREFIX must not be empty")
	case c.PollInterval <= 0:
		return errors.New("CHECK_INTERVAL must be positive")
	case c.OBSPort < 1 || c.OBSPort > 65535:
		return fmt.Errorf("OBS_PORT %d out of range", c.OBSPort)
	case c.SourceBufferMB < 0:
		return errors.New("SOURCE_BUFFER_MB must not be negative")
	}
	if c.SourceKind != SourceKindFFmpeg && c.SourceKind != SourceKindVLC {
		return fmt.Errorf("unknown SOURCE_KIND %q", c.SourceKind)
	}
	return nil
}

// OBSAddr is the host:port the websocket client dials.
func (c Config) OBSAddr() string {
	return c.OBSHost + ":" + strconv.Itoa(c.OBSPort)
}

// SRTEnabled reports whether an SRT status endpoint is configured.
func (c Config) SRTEnabled() bool {
	return c.SRTStatusURL != ""
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvSeconds reads a whole number of seconds. Invalid values yield fallback.
func GetEnvSeconds(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

// lookupEnv distinguishes "set to empty" from "unset" so that an empty value can
// switch the admin server or the SRT fetcher off.
func lookupEnv(key, fallback string) string {
	if s, ok := os.LookupEnv(key); ok {
		return s
	}
	return fallback
}

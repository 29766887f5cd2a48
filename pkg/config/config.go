// Package config reads the gateway settings once at startup.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/planets/federation-gateway/pkg/discovery"
	"github.com/planets/federation-gateway/pkg/federation"
)

const (
	KeyDeploymentMode       = "ENV"
	KeyTopology             = "TOPOLOGY"
	KeyListenHost           = "LISTEN_HOST"
	KeyListenPort           = "LISTEN_PORT"
	KeyStrictDeploymentMode = "STRICT_DEPLOYMENT_MODE"
	KeyJWTSecretKey         = "JWT_SECRET_KEY"
	KeySDLFetchAttempts     = "SDL_FETCH_ATTEMPTS"
	KeySDLFetchInterval     = "SDL_FETCH_INTERVAL"
	KeyDebug                = "DEBUG"
	KeyCORSAllowedOrigins   = "CORS_ALLOWED_ORIGINS"
)

const (
	DefaultListenHost = "0.0.0.0"
	DefaultListenPort = 4000
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DeploymentMode       discovery.DeploymentMode
	Topology             string
	ListenHost           string
	ListenPort           int
	StrictDeploymentMode bool
	JWTSecretKey         string
	SDLFetchAttempts     int
	SDLFetchInterval     time.Duration
	Debug                bool
	AllowedOrigins       []string
}

// LoadDotEnv loads variables from .env files into the process environment. Missing files are
// not an error; variables already set win.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}

	existing := make([]string, 0, len(filenames))
	for _, filename := range filenames {
		if _, err := os.Stat(filename); err == nil {
			existing = append(existing, filename)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

// NewViper returns a viper instance with defaults and environment bindings for every key.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyTopology, discovery.TopologyFull)
	v.SetDefault(KeyListenHost, DefaultListenHost)
	v.SetDefault(KeyListenPort, DefaultListenPort)
	v.SetDefault(KeyStrictDeploymentMode, false)
	v.SetDefault(KeySDLFetchAttempts, federation.DefaultSDLFetchAttempts)
	v.SetDefault(KeySDLFetchInterval, federation.DefaultSDLFetchInterval)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyCORSAllowedOrigins, "*")

	for _, key := range []string{
		KeyDeploymentMode, KeyTopology, KeyListenHost, KeyListenPort, KeyStrictDeploymentMode,
		KeyJWTSecretKey, KeySDLFetchAttempts, KeySDLFetchInterval, KeyDebug, KeyCORSAllowedOrigins,
	} {
		_ = v.BindEnv(key)
	}

	return v
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DeploymentMode:       discovery.ParseDeploymentMode(v.GetString(KeyDeploymentMode)),
		Topology:             strings.TrimSpace(v.GetString(KeyTopology)),
		ListenHost:           v.GetString(KeyListenHost),
		ListenPort:           v.GetInt(KeyListenPort),
		StrictDeploymentMode: v.GetBool(KeyStrictDeploymentMode),
		JWTSecretKey:         v.GetString(KeyJWTSecretKey),
		SDLFetchAttempts:     v.GetInt(KeySDLFetchAttempts),
		SDLFetchInterval:     v.GetDuration(KeySDLFetchInterval),
		Debug:                v.GetBool(KeyDebug),
		AllowedOrigins:       splitList(v.GetString(KeyCORSAllowedOrigins)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("%w: %s must be a valid port, got %d", ErrInvalidConfig, KeyListenPort, c.ListenPort)
	}
	if c.SDLFetchAttempts < 1 {
		return fmt.Errorf("%w: %s must be at least 1", ErrInvalidConfig, KeySDLFetchAttempts)
	}
	if c.SDLFetchInterval < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeySDLFetchInterval)
	}
	if _, err := discovery.TopologyByName(c.Topology); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.StrictDeploymentMode {
		if err := discovery.NewLocator(c.DeploymentMode).Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, strconv.Itoa(c.ListenPort))
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package evi

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWsEndpoint   = "wss://api.hume.ai/v0/evi/chat"
	DefaultAuthEndpoint = "https://api.hume.ai/oauth2-cc/token"
	DefaultAPIBaseURL   = "https://api.hume.ai"
)

type Config struct {
	APIKey             string            `json:"api_key,omitempty" yaml:"api_key"`
	SecretKey          string            `json:"secret_key,omitempty" yaml:"secret_key"`
	ConfigID           string            `json:"config_id,omitempty" yaml:"config_id"`
	AllowUserInterrupt bool              `json:"allow_user_interrupt" yaml:"allow_user_interrupt"`
	WsEndpoint         string            `json:"ws_endpoint" yaml:"ws_endpoint"`
	AuthEndpoint       string            `json:"auth_endpoint" yaml:"auth_endpoint"`
	APIBaseURL         string            `json:"api_base_url" yaml:"api_base_url"`
	Headers            map[string]string `json:"headers,omitempty" yaml:"headers"`
	TokenRefreshBuffer float64           `json:"token_refresh_buffer" yaml:"token_refresh_buffer"`
	DebugLevel         string            `json:"debug_level" yaml:"debug_level"`
	DebugWebsocket     bool              `json:"debug_websocket" yaml:"debug_websocket"`
	DebugAudio         bool              `json:"debug_audio" yaml:"debug_audio"`
	InputDeviceID      *int              `json:"input_device_id,omitempty" yaml:"input_device_id"`
	OutputDeviceID     *int              `json:"output_device_id,omitempty" yaml:"output_device_id"`
}

// NewConfig returns the defaults without reading the environment.
func NewConfig() *Config {
	return &Config{
		WsEndpoint:         DefaultWsEndpoint,
		AuthEndpoint:       DefaultAuthEndpoint,
		APIBaseURL:         DefaultAPIBaseURL,
		TokenRefreshBuffer: 60.0,
		DebugLevel:         "WARNING",
		Headers:            make(map[string]string),
	}
}

// LoadConfig returns the defaults overridden by HUME_* variables from the
// environment or a .env file.
func LoadConfig() *Config {
	c := NewConfig()
	c.loadFromEnv()
	return c
}

// LoadConfigFile reads a YAML config on top of the defaults; the environment
// still wins.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	c := NewConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}

	c.loadFromEnv()
	return c, nil
}

func (c *Config) loadFromEnv() {
	// Load .env if exists
	_ = godotenv.Load()

	if v := os.Getenv("HUME_API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv("HUME_SECRET_KEY"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("HUME_CONFIG_ID"); v != "" {
		c.ConfigID = v
	}
	if v := os.Getenv("HUME_EVI_ENDPOINT"); v != "" {
		c.WsEndpoint = v
	}
	if v := os.Getenv("HUME_AUTH_ENDPOINT"); v != "" {
		c.AuthEndpoint = v
	}
	if v := os.Getenv("HUME_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}

	if v := os.Getenv("HUME_ALLOW_USER_INTERRUPT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AllowUserInterrupt = b
		}
	}

	if v := os.Getenv("HUME_TOKEN_REFRESH_BUFFER"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			c.TokenRefreshBuffer = val
		}
	}

	if level := os.Getenv("HUME_DEBUG_LEVEL"); level != "" {
		c.DebugLevel = strings.ToUpper(level)
	}
	if os.Getenv("HUME_DEBUG_WEBSOCKET") == "true" {
		c.DebugWebsocket = true
	}
	if os.Getenv("HUME_DEBUG_AUDIO") == "true" {
		c.DebugAudio = true
	}

	if v := os.Getenv("HUME_INPUT_DEVICE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.InputDeviceID = &id
		}
	}
	if v := os.Getenv("HUME_OUTPUT_DEVICE_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.OutputDeviceID = &id
		}
	}
}

// Validate returns list of issues
func (c *Config) Validate() []string {
	issues := []string{}

	if c.APIKey == "" {
		issues = append(issues, "HUME_API_KEY not set")
	}
	if c.ConfigID == "" {
		issues = append(issues, "HUME_CONFIG_ID not set")
	}

	if !strings.HasPrefix(c.WsEndpoint, "ws://") && !strings.HasPrefix(c.WsEndpoint, "wss://") {
		issues = append(issues, "Invalid WebSocket endpoint format")
	}

	if c.SecretKey != "" && !strings.HasPrefix(c.AuthEndpoint, "http") {
		issues = append(issues, "Invalid auth endpoint format")
	}

	if _, ok := ParseLogLevel(c.DebugLevel); !ok {
		issues = append(issues, fmt.Sprintf("Invalid debug level: %s", c.DebugLevel))
	}

	return issues
}

// LogConfig derives the diagnostic logger settings.
func (c *Config) LogConfig() *LogConfig {
	lc := DefaultLogConfig()
	if level, ok := ParseLogLevel(c.DebugLevel); ok {
		lc.Level = level
	}
	if (c.DebugWebsocket || c.DebugAudio) && lc.Level > DebugLevel {
		lc.Level = DebugLevel
	}
	return lc
}

func (c *Config) PrintConfig() {
	fmt.Println("EVI Configuration")
	fmt.Println("==================================================")
	fmt.Printf("API Key: %s\n", MaskSecret(c.APIKey))
	fmt.Printf("Secret Key: %s\n", MaskSecret(c.SecretKey))
	fmt.Printf("Config ID: %s\n", c.ConfigID)
	fmt.Printf("Allow User Interrupt: %t\n", c.AllowUserInterrupt)
	fmt.Printf("WebSocket Endpoint: %s\n", c.WsEndpoint)
	fmt.Printf("Auth Endpoint: %s\n", c.AuthEndpoint)
	fmt.Printf("API Base URL: %s\n", c.APIBaseURL)
	fmt.Printf("Token Refresh Buffer: %.1fs\n", c.TokenRefreshBuffer)
	fmt.Printf("Debug Level: %s\n", c.DebugLevel)
	fmt.Printf("Debug WebSocket: %t\n", c.DebugWebsocket)
	fmt.Printf("Debug Audio: %t\n", c.DebugAudio)

	if c.InputDeviceID != nil {
		fmt.Printf("Input Device ID: %d\n", *c.InputDeviceID)
	} else {
		fmt.Println("Input Device: Default")
	}
	if c.OutputDeviceID != nil {
		fmt.Printf("Output Device ID: %d\n", *c.OutputDeviceID)
	} else {
		fmt.Println("Output Device: Default")
	}
}

// MaskSecret keeps the first and last four characters of s.
func MaskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

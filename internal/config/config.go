package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the system-wide settings coordinator, kept separate from
// business logic. Precedence: file > environment > defaults.
type Config struct {
	Storage   *StorageConfig   `json:"storage"`
	Database  *DatabaseConfig  `json:"database"`
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Pipeline  *PipelineConfig  `json:"pipeline"`
}

// StorageConfig locates the recording artifact store.
type StorageConfig struct {
	RecordingsDir string `json:"recordings_dir"`
}

// DatabaseConfig locates the attendance SQLite database.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// HTTPConfig covers the combined API + WebSocket server. APIToken, when
// non-empty, gates the retrieval endpoints with a static bearer token.
type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	APIToken     string        `json:"api_token"`
}

// WebSocketConfig covers heartbeat and buffering for live connections.
type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

// PipelineConfig selects and tunes the transcription and summarization
// backends. An empty API key selects the deterministic fallback for that
// stage.
type PipelineConfig struct {
	SpeechAPIKey  string        `json:"speech_api_key"`
	SpeechURL     string        `json:"speech_url"`
	SpeechModel   string        `json:"speech_model"`
	SummaryAPIKey string        `json:"summary_api_key"`
	SummaryURL    string        `json:"summary_url"`
	SummaryModel  string        `json:"summary_model"`
	StageTimeout  time.Duration `json:"stage_timeout"`
	MinAudioBytes int64         `json:"min_audio_bytes"`
}

// DefaultConfig returns production-ready defaults. The HTTP write timeout
// is generous because the synchronous process endpoint spans two external
// calls.
func DefaultConfig() *Config {
	return &Config{
		Storage: &StorageConfig{
			RecordingsDir: "./recordings",
		},
		Database: &DatabaseConfig{
			Path: "./liveboard.db",
		},
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Pipeline: &PipelineConfig{
			SpeechURL:     "https://api.mistral.ai/v1/audio/transcriptions",
			SpeechModel:   "voxtral-mini-latest",
			SummaryURL:    "https://api.anthropic.com/v1/messages",
			SummaryModel:  "claude-haiku-4-5",
			StageTimeout:  2 * time.Minute,
			MinAudioBytes: 1024,
		},
	}
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.Storage == nil || c.Storage.RecordingsDir == "" {
		return fmt.Errorf("recordings directory cannot be empty")
	}
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket timeouts must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}
	if c.Pipeline == nil {
		return fmt.Errorf("pipeline configuration is required")
	}
	if c.Pipeline.StageTimeout <= 0 {
		return fmt.Errorf("pipeline stage timeout must be positive")
	}
	if c.Pipeline.MinAudioBytes <= 0 {
		return fmt.Errorf("pipeline minimum audio size must be positive")
	}
	if c.Pipeline.SpeechAPIKey != "" && c.Pipeline.SpeechURL == "" {
		return fmt.Errorf("speech URL required when speech API key is set")
	}
	if c.Pipeline.SummaryAPIKey != "" && c.Pipeline.SummaryURL == "" {
		return fmt.Errorf("summary URL required when summary API key is set")
	}
	return nil
}

// LoadFromEnv overrides defaults with LIVEBOARD_* environment variables;
// unparseable values fall back silently.
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if v := os.Getenv("LIVEBOARD_RECORDINGS_DIR"); v != "" {
		config.Storage.RecordingsDir = v
	}
	if v := os.Getenv("LIVEBOARD_DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("LIVEBOARD_HTTP_HOST"); v != "" {
		config.HTTP.Host = v
	}
	if v := os.Getenv("LIVEBOARD_HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			config.HTTP.Port = p
		}
	}
	if v := os.Getenv("LIVEBOARD_HTTP_API_TOKEN"); v != "" {
		config.HTTP.APIToken = v
	}
	if v := os.Getenv("LIVEBOARD_HTTP_READ_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.HTTP.ReadTimeout = timeout
		}
	}
	if v := os.Getenv("LIVEBOARD_HTTP_WRITE_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.HTTP.WriteTimeout = timeout
		}
	}
	if v := os.Getenv("LIVEBOARD_WEBSOCKET_PING_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			config.WebSocket.PingInterval = interval
		}
	}
	if v := os.Getenv("LIVEBOARD_WEBSOCKET_READ_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.WebSocket.ReadTimeout = timeout
		}
	}
	if v := os.Getenv("LIVEBOARD_WEBSOCKET_WRITE_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.WebSocket.WriteTimeout = timeout
		}
	}
	if v := os.Getenv("LIVEBOARD_WEBSOCKET_BUFFER_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.WebSocket.BufferSize = size
		}
	}
	if v := os.Getenv("LIVEBOARD_SPEECH_API_KEY"); v != "" {
		config.Pipeline.SpeechAPIKey = v
	}
	if v := os.Getenv("LIVEBOARD_SPEECH_API_URL"); v != "" {
		config.Pipeline.SpeechURL = v
	}
	if v := os.Getenv("LIVEBOARD_SPEECH_MODEL"); v != "" {
		config.Pipeline.SpeechModel = v
	}
	if v := os.Getenv("LIVEBOARD_SUMMARY_API_KEY"); v != "" {
		config.Pipeline.SummaryAPIKey = v
	}
	if v := os.Getenv("LIVEBOARD_SUMMARY_API_URL"); v != "" {
		config.Pipeline.SummaryURL = v
	}
	if v := os.Getenv("LIVEBOARD_SUMMARY_MODEL"); v != "" {
		config.Pipeline.SummaryModel = v
	}
	if v := os.Getenv("LIVEBOARD_PIPELINE_STAGE_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.Pipeline.StageTimeout = timeout
		}
	}
	if v := os.Getenv("LIVEBOARD_PIPELINE_MIN_AUDIO_BYTES"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Pipeline.MinAudioBytes = size
		}
	}

	return config
}

// ConfigFile is the JSON structure for file-based configuration; duration
// fields are strings so operators can write "30s" rather than
// nanoseconds.
type ConfigFile struct {
	Storage   *StorageConfig       `json:"storage"`
	Database  *DatabaseConfig      `json:"database"`
	HTTP      *HTTPConfigFile      `json:"http"`
	WebSocket *WebSocketConfigFile `json:"websocket"`
	Pipeline  *PipelineConfigFile  `json:"pipeline"`
}

type HTTPConfigFile struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	APIToken     string `json:"api_token"`
}

type WebSocketConfigFile struct {
	PingInterval string `json:"ping_interval"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
	BufferSize   int    `json:"buffer_size"`
}

type PipelineConfigFile struct {
	SpeechAPIKey  string `json:"speech_api_key"`
	SpeechURL     string `json:"speech_url"`
	SpeechModel   string `json:"speech_model"`
	SummaryAPIKey string `json:"summary_api_key"`
	SummaryURL    string `json:"summary_url"`
	SummaryModel  string `json:"summary_model"`
	StageTimeout  string `json:"stage_timeout"`
	MinAudioBytes int64  `json:"min_audio_bytes"`
}

// LoadFromFile reads a JSON config file over the defaults.
func LoadFromFile(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	var configFile ConfigFile
	if err := json.Unmarshal(data, &configFile); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filepath, err)
	}

	config := DefaultConfig()

	if configFile.Storage != nil && configFile.Storage.RecordingsDir != "" {
		config.Storage.RecordingsDir = configFile.Storage.RecordingsDir
	}
	if configFile.Database != nil && configFile.Database.Path != "" {
		config.Database.Path = configFile.Database.Path
	}
	if configFile.HTTP != nil {
		if configFile.HTTP.Host != "" {
			config.HTTP.Host = configFile.HTTP.Host
		}
		if configFile.HTTP.Port > 0 {
			config.HTTP.Port = configFile.HTTP.Port
		}
		if configFile.HTTP.APIToken != "" {
			config.HTTP.APIToken = configFile.HTTP.APIToken
		}
		if t, err := time.ParseDuration(configFile.HTTP.ReadTimeout); err == nil {
			config.HTTP.ReadTimeout = t
		}
		if t, err := time.ParseDuration(configFile.HTTP.WriteTimeout); err == nil {
			config.HTTP.WriteTimeout = t
		}
	}
	if configFile.WebSocket != nil {
		if configFile.WebSocket.BufferSize > 0 {
			config.WebSocket.BufferSize = configFile.WebSocket.BufferSize
		}
		if t, err := time.ParseDuration(configFile.WebSocket.PingInterval); err == nil {
			config.WebSocket.PingInterval = t
		}
		if t, err := time.ParseDuration(configFile.WebSocket.ReadTimeout); err == nil {
			config.WebSocket.ReadTimeout = t
		}
		if t, err := time.ParseDuration(configFile.WebSocket.WriteTimeout); err == nil {
			config.WebSocket.WriteTimeout = t
		}
	}
	if configFile.Pipeline != nil {
		if configFile.Pipeline.SpeechAPIKey != "" {
			config.Pipeline.SpeechAPIKey = configFile.Pipeline.SpeechAPIKey
		}
		if configFile.Pipeline.SpeechURL != "" {
			config.Pipeline.SpeechURL = configFile.Pipeline.SpeechURL
		}
		if configFile.Pipeline.SpeechModel != "" {
			config.Pipeline.SpeechModel = configFile.Pipeline.SpeechModel
		}
		if configFile.Pipeline.SummaryAPIKey != "" {
			config.Pipeline.SummaryAPIKey = configFile.Pipeline.SummaryAPIKey
		}
		if configFile.Pipeline.SummaryURL != "" {
			config.Pipeline.SummaryURL = configFile.Pipeline.SummaryURL
		}
		if configFile.Pipeline.SummaryModel != "" {
			config.Pipeline.SummaryModel = configFile.Pipeline.SummaryModel
		}
		if configFile.Pipeline.MinAudioBytes > 0 {
			config.Pipeline.MinAudioBytes = configFile.Pipeline.MinAudioBytes
		}
		if t, err := time.ParseDuration(configFile.Pipeline.StageTimeout); err == nil {
			config.Pipeline.StageTimeout = t
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filepath, err)
	}

	return config, nil
}

// LoadConfigWithPrecedence resolves configuration as file > environment >
// defaults. File errors are ignored so environment/defaults still work.
func LoadConfigWithPrecedence(filepath string) *Config {
	config := LoadFromEnv()

	if filepath != "" {
		if fileConfig, err := LoadFromFile(filepath); err == nil {
			config = fileConfig
		}
	}

	return config
}

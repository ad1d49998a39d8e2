package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Duration is a time.Duration written in config files as a string such as "10m" or "250ms"
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Storage    StorageConfig    `toml:"storage"`
	Logging    LoggingConfig    `toml:"logging"`
	Crawler    CrawlerConfig    `toml:"crawler"`
	Transcript TranscriptConfig `toml:"transcript"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Index      IndexConfig      `toml:"index"`
	LLM        LLMConfig        `toml:"llm"`
	Jobs       JobsConfig       `toml:"jobs"`
	Scheduler  SchedulerConfig  `toml:"scheduler"`
	WebSocket  WebSocketConfig  `toml:"websocket"`
}

type ServerConfig struct {
	Port           int      `toml:"port"`
	Host           string   `toml:"host"`
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins, "*" allows any
}

type StorageConfig struct {
	DataDir string       `toml:"data_dir"` // Per-project index and upload root
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string   `toml:"path"`             // Database directory path
	ResetOnStartup bool     `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	InMemory       bool     `toml:"in_memory"`        // Keep everything in memory; Path is ignored
	SyncWrites     bool     `toml:"sync_writes"`      // fsync every write
	GCInterval     Duration `toml:"gc_interval"`      // Value log GC period, 0 disables
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// CrawlerConfig controls both page collectors
type CrawlerConfig struct {
	UserAgent      string              `toml:"user_agent"`
	RequestDelay   Duration            `toml:"request_delay"`  // Politeness delay for the static collector
	RenderedDelay  Duration            `toml:"rendered_delay"` // Politeness delay for the rendered collector
	DomainDelays   map[string]Duration `toml:"domain_delays"`  // Per-domain overrides of both delays
	RequestTimeout Duration            `toml:"request_timeout"`
	RenderTimeout  Duration            `toml:"render_timeout"` // Per-page navigation timeout for chromedp
	MaxPages       int                 `toml:"max_pages"`
	MaxBytes       int64               `toml:"max_bytes"`
	MaxWords       int                 `toml:"max_words"`
	Headless       bool                `toml:"headless"`
	ChromeFlags    []string            `toml:"chrome_flags"` // Extra flags passed to the chromedp allocator
}

// TranscriptConfig controls video transcript collection
type TranscriptConfig struct {
	YouTubeAPIKey   string   `toml:"youtube_api_key"`
	YTDLPPath       string   `toml:"ytdlp_path"`
	MaxVideos       int      `toml:"max_videos"`
	SubtitleTimeout Duration `toml:"subtitle_timeout"`
	ListingTimeout  Duration `toml:"listing_timeout"`
	TempDir         string   `toml:"temp_dir"` // Empty uses os.TempDir()
}

// EmbeddingsConfig selects the text encoder
type EmbeddingsConfig struct {
	Provider  string `toml:"provider"` // "fastembed" or "ollama"
	Model     string `toml:"model"`
	CacheDir  string `toml:"cache_dir"`
	OllamaURL string `toml:"ollama_url"`
	MaxLength int    `toml:"max_length"`
	BatchSize int    `toml:"batch_size"`
}

// IndexConfig selects the vector index backend
type IndexConfig struct {
	Backend     string       `toml:"backend"` // "chromem" or "qdrant"
	Compress    bool         `toml:"compress"`
	TopK        int          `toml:"top_k"`
	Concurrency int          `toml:"concurrency"`
	Qdrant      QdrantConfig `toml:"qdrant"`
}

type QdrantConfig struct {
	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
	UseTLS bool   `toml:"use_tls"`
}

// LLMConfig holds service-wide defaults for the chat backends.
// Per-project settings take precedence.
type LLMConfig struct {
	OllamaURL       string   `toml:"ollama_url"`
	OpenAIAPIKey    string   `toml:"openai_api_key"`
	AnthropicAPIKey string   `toml:"anthropic_api_key"`
	GeminiAPIKey    string   `toml:"gemini_api_key"`
	DefaultProvider string   `toml:"default_provider"`
	DefaultModel    string   `toml:"default_model"`
	Timeout         Duration `toml:"timeout"`
}

// JobsConfig sizes the ingestion worker pool
type JobsConfig struct {
	Concurrency int `toml:"concurrency"`
	QueueSize   int `toml:"queue_size"`
}

// SchedulerConfig controls periodic re-sync of enabled sources
type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
}

// WebSocketConfig controls the job update stream
type WebSocketConfig struct {
	ProgressInterval Duration `toml:"progress_interval"` // Minimum gap between running updates per job, 0 disables throttling
	WriteTimeout     Duration `toml:"write_timeout"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8000,
			Host:           "localhost",
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			DataDir: "./data",
			Badger: BadgerConfig{
				Path:       "./data/db",
				GCInterval: Duration(10 * time.Minute),
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Crawler: CrawlerConfig{
			UserAgent:      DefaultUserAgent,
			RequestDelay:   Duration(DefaultRequestDelay),
			RenderedDelay:  Duration(DefaultRenderedDelay),
			RequestTimeout: Duration(DefaultFetchTimeout),
			RenderTimeout:  Duration(30 * time.Second),
			MaxPages:       DefaultMaxPages,
			MaxBytes:       DefaultMaxBytes,
			MaxWords:       DefaultMaxWords,
			Headless:       true,
		},
		Transcript: TranscriptConfig{
			YTDLPPath:       "yt-dlp",
			MaxVideos:       DefaultMaxVideos,
			SubtitleTimeout: Duration(60 * time.Second),
			ListingTimeout:  Duration(120 * time.Second),
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "fastembed",
			Model:     "all-MiniLM-L6-v2",
			CacheDir:  "./data/models",
			OllamaURL: "http://localhost:11434",
			MaxLength: 512,
			BatchSize: 256,
		},
		Index: IndexConfig{
			Backend:     "chromem",
			TopK:        5,
			Concurrency: 4,
			Qdrant: QdrantConfig{
				Host: "localhost",
				Port: 6334,
			},
		},
		LLM: LLMConfig{
			OllamaURL:       "http://localhost:11434",
			DefaultProvider: "ollama",
			DefaultModel:    "llama3.1:8b",
			Timeout:         Duration(120 * time.Second),
		},
		Jobs: JobsConfig{
			Concurrency: 4,
			QueueSize:   64,
		},
		Scheduler: SchedulerConfig{
			Enabled:  false,
			Schedule: DefaultSyncSchedule,
		},
		WebSocket: WebSocketConfig{
			ProgressInterval: Duration(250 * time.Millisecond),
			WriteTimeout:     Duration(10 * time.Second),
		},
	}
}

// LoadFromFile loads configuration from a single file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if config.Scheduler.Enabled {
		if err := ValidateSchedule(config.Scheduler.Schedule); err != nil {
			return nil, fmt.Errorf("invalid scheduler.schedule: %w", err)
		}
	}

	return config, nil
}

func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("NEIGHBORHOOD_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NEIGHBORHOOD_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if origins := os.Getenv("NEIGHBORHOOD_ALLOWED_ORIGINS"); origins != "" {
		config.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	// Storage configuration
	if dataDir := os.Getenv("NEIGHBORHOOD_DATA_DIR"); dataDir != "" {
		config.Storage.DataDir = dataDir
	}
	if badgerPath := os.Getenv("NEIGHBORHOOD_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("NEIGHBORHOOD_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NEIGHBORHOOD_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Crawler configuration
	if ua := os.Getenv("NEIGHBORHOOD_CRAWLER_USER_AGENT"); ua != "" {
		config.Crawler.UserAgent = ua
	}
	if maxPages := os.Getenv("NEIGHBORHOOD_CRAWLER_MAX_PAGES"); maxPages != "" {
		if n, err := strconv.Atoi(maxPages); err == nil {
			config.Crawler.MaxPages = n
		}
	}

	// Transcript configuration
	if key := os.Getenv("NEIGHBORHOOD_YOUTUBE_API_KEY"); key != "" {
		config.Transcript.YouTubeAPIKey = key
	} else if key := os.Getenv("YOUTUBE_API_KEY"); key != "" && config.Transcript.YouTubeAPIKey == "" {
		config.Transcript.YouTubeAPIKey = key
	}
	if ytdlp := os.Getenv("NEIGHBORHOOD_YTDLP_PATH"); ytdlp != "" {
		config.Transcript.YTDLPPath = ytdlp
	}

	// Embeddings configuration
	if provider := os.Getenv("NEIGHBORHOOD_EMBEDDINGS_PROVIDER"); provider != "" {
		config.Embeddings.Provider = provider
	}
	if cacheDir := os.Getenv("NEIGHBORHOOD_EMBEDDINGS_CACHE_DIR"); cacheDir != "" {
		config.Embeddings.CacheDir = cacheDir
	}

	// Index configuration
	if backend := os.Getenv("NEIGHBORHOOD_INDEX_BACKEND"); backend != "" {
		config.Index.Backend = backend
	}
	if host := os.Getenv("NEIGHBORHOOD_QDRANT_HOST"); host != "" {
		config.Index.Qdrant.Host = host
	}
	if port := os.Getenv("NEIGHBORHOOD_QDRANT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Index.Qdrant.Port = p
		}
	}
	if key := os.Getenv("NEIGHBORHOOD_QDRANT_API_KEY"); key != "" {
		config.Index.Qdrant.APIKey = key
	}

	// LLM configuration
	if url := os.Getenv("NEIGHBORHOOD_OLLAMA_URL"); url != "" {
		config.LLM.OllamaURL = url
		config.Embeddings.OllamaURL = url
	}
	if key := os.Getenv("NEIGHBORHOOD_OPENAI_API_KEY"); key != "" {
		config.LLM.OpenAIAPIKey = key
	}
	if key := os.Getenv("NEIGHBORHOOD_ANTHROPIC_API_KEY"); key != "" {
		config.LLM.AnthropicAPIKey = key
	}
	if key := os.Getenv("NEIGHBORHOOD_GEMINI_API_KEY"); key != "" {
		config.LLM.GeminiAPIKey = key
	}

	// Jobs configuration
	if concurrency := os.Getenv("NEIGHBORHOOD_JOBS_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Jobs.Concurrency = c
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("NEIGHBORHOOD_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if schedule := os.Getenv("NEIGHBORHOOD_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey returns the first non-empty key in priority order:
// project key, config key, then the {PROVIDER}_API_KEY environment variable.
func ResolveAPIKey(provider, projectKey, configKey string) string {
	if projectKey != "" {
		return projectKey
	}
	if configKey != "" {
		return configKey
	}
	return os.Getenv(strings.ToUpper(provider) + "_API_KEY")
}

// ValidateSchedule checks a standard 5-field cron expression. Re-sync crawls
// are heavy, so the minute field must be fixed (at most one run per hour).
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	if parts[0] == "*" || strings.HasPrefix(parts[0], "*/") {
		return fmt.Errorf("schedule must run at most once per hour, got minute field %q", parts[0])
	}
	return nil
}

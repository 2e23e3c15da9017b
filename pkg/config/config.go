package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Source is one restaurant's raw menu file or URL.
type Source struct {
	Restaurant string `yaml:"restaurant"`
	Path       string `yaml:"path"`
}

type Config struct {
	LLM struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`

	Embedding struct {
		Provider   string `yaml:"provider"`
		BaseURL    string `yaml:"base_url"`
		Model      string `yaml:"model"`
		APIKey     string `yaml:"api_key"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"embedding"`

	Index struct {
		Backend     string `yaml:"backend"`
		Path        string `yaml:"path"`
		Collection  string `yaml:"collection"`
		Compress    bool   `yaml:"compress"`
		BatchSize   int    `yaml:"batch_size"`
		DatabaseURL string `yaml:"database_url"`
		VectorDim   int    `yaml:"vector_dim"`
	} `yaml:"index"`

	Ingest struct {
		Output    string        `yaml:"output"`
		Sources   []Source      `yaml:"sources"`
		RateLimit float64       `yaml:"rate_limit"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"ingest"`

	Query struct {
		TopK    int           `yaml:"top_k"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"query"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Env   string `yaml:"env"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultSources are the five restaurant files produced by the scrapers.
func DefaultSources() []Source {
	return []Source{
		{Restaurant: "Punjab Grill", Path: "data/punjab_grill_menu.json"},
		{Restaurant: "Oakaz", Path: "data/oakaz_menu_innertext.json"},
		{Restaurant: "Dominos", Path: "data/dominos.json"},
		{Restaurant: "Subway", Path: "data/subway_menu_unofficial_cleaned.json"},
		{Restaurant: "McDonalds", Path: "data/macd.json"},
	}
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/menurag/config.yaml"),
			"/etc/menurag/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "ollama" {
		config.LLM.BaseURL = "http://localhost:11434"
	}

	if config.Embedding.Provider == "" {
		config.Embedding.Provider = "ollama"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "all-minilm"
	}
	if config.Embedding.BaseURL == "" && config.Embedding.Provider == "ollama" {
		config.Embedding.BaseURL = config.LLM.BaseURL
		if config.Embedding.BaseURL == "" {
			config.Embedding.BaseURL = "http://localhost:11434"
		}
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "chromem"
	}
	if config.Index.Path == "" {
		config.Index.Path = "knowledge_base/chroma_db_menu"
	}
	if config.Index.Collection == "" {
		config.Index.Collection = "restaurant_menus"
	}
	if config.Index.BatchSize == 0 {
		config.Index.BatchSize = 100
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 384
	}

	if config.Ingest.Output == "" {
		config.Ingest.Output = "data/consolidated_menu_items.json"
	}
	if len(config.Ingest.Sources) == 0 {
		config.Ingest.Sources = DefaultSources()
	}
	if config.Ingest.RateLimit == 0 {
		config.Ingest.RateLimit = 2.0
	}
	if config.Ingest.Timeout == 0 {
		config.Ingest.Timeout = 30 * time.Second
	}

	if config.Query.TopK == 0 {
		config.Query.TopK = 5
	}
	if config.Query.Timeout == 0 {
		config.Query.Timeout = 60 * time.Second
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}

	if config.Log.Env == "" {
		config.Log.Env = "dev"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
		if config.Embedding.Provider == "" || config.Embedding.Provider == "ollama" {
			config.Embedding.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.DatabaseURL = dbURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}
	if level := os.Getenv("MENURAG_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
}

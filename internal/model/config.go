package model

import "time"

// Config is the complete gwaln configuration.
// Field tags serve both viper (mapstructure) and `config show` (yaml).
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Citations    CitationConfig    `yaml:"citations" mapstructure:"citations"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Authority    AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Schedule     string            `yaml:"schedule" mapstructure:"schedule"` // Cron expression for `gwaln watch`
}

// HTTPConfig controls source fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the analysis cache
type CacheConfig struct {
	Enabled  bool    `yaml:"enabled" mapstructure:"enabled"`
	Dir      string  `yaml:"dir" mapstructure:"dir"`
	TTLHours float64 `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the configured TTL as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours * float64(time.Hour))
}

// LLMConfig controls the bias verifier
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"` // Events per prompt
}

// CitationConfig controls the citation verifier
type CitationConfig struct {
	Enabled          bool          `yaml:"enabled" mapstructure:"enabled"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Workers          int           `yaml:"workers" mapstructure:"workers"`
	SupportThreshold float64       `yaml:"support_threshold" mapstructure:"support_threshold"`
	MaxPageBytes     int64         `yaml:"max_page_bytes" mapstructure:"max_page_bytes"`
	MaxSentences     int           `yaml:"max_sentences" mapstructure:"max_sentences"`
	RespectRobots    bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig controls per-domain request pacing
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// PerDomain overrides RequestsPerSecond for specific hosts
	PerDomain map[string]float64 `yaml:"per_domain,omitempty" mapstructure:"per_domain"`
}

// AuthorityConfig drives citation authority classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
}

// PathPattern maps a URL path regex to a tier name
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// OutputConfig controls where reports land
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool   `yaml:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "gwaln/0.2 (+https://github.com/ppiankov/gwaln)",
			MaxBodyBytes: 5_000_000,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      "./gwaln-reports",
			TTLHours: 24,
		},
		LLM: LLMConfig{
			Timeout:   60,
			MaxTokens: 2000,
			BatchSize: 10,
		},
		Citations: CitationConfig{
			Timeout:          10 * time.Second,
			Workers:          8,
			SupportThreshold: 0.6,
			MaxPageBytes:     2_000_000,
			MaxSentences:     50,
			RespectRobots:    true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov", "gov.uk", "europa.eu", "who.int", "un.org",
				"doi.org", "nature.com", "science.org", "arxiv.org", "pubmed.ncbi.nlm.nih.gov",
			},
			SecondaryDomains: []string{
				"britannica.com", "reuters.com", "apnews.com", "bbc.co.uk", "bbc.com",
				"nytimes.com", "theguardian.com", "washingtonpost.com", "economist.com",
			},
		},
		Output: OutputConfig{
			Dir:    "./gwaln-reports",
			Pretty: true,
		},
		Schedule: "0 */6 * * *",
	}
}

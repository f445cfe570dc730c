package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Filters holds keyword-based include/exclude rules applied to every
// candidate record.
type Filters struct {
	IncludeKeywords []string `mapstructure:"include_keywords"`
	ExcludeKeywords []string `mapstructure:"exclude_keywords"`
}

// PriceFilter holds the optional numeric price window. Nil means
// the bound is not configured.
type PriceFilter struct {
	Min *float64 `mapstructure:"min"`
	Max *float64 `mapstructure:"max"`
}

// Limits holds run-wide crawl limits.
type Limits struct {
	TimeoutMS    int `mapstructure:"timeout_ms"`
	PerSitePages int `mapstructure:"per_site_pages"`
}

// Override is per-domain configuration that replaces or supplements the
// default extraction heuristics.
type Override struct {
	ProductCard      []string `mapstructure:"product_card"`
	Name             []string `mapstructure:"name"`
	URL              []string `mapstructure:"url"`
	Seeds            []string `mapstructure:"seeds"`
	DynamicTimeoutMS int      `mapstructure:"dynamic_timeout_ms"`
	StaticTimeoutSec int      `mapstructure:"static_timeout_sec"`
	Render           *bool    `mapstructure:"render"`
	PerSitePages     *int     `mapstructure:"per_site_pages"`
}

// RenderFirst reports whether the rendered strategy should be tried before
// the static one. That is the default; only an explicit render:false flips it.
func (o Override) RenderFirst() bool {
	return o.Render == nil || *o.Render
}

// DynamicTimeout resolves the rendered-fetch timeout against the run default.
func (o Override) DynamicTimeout(def time.Duration) time.Duration {
	if o.DynamicTimeoutMS > 0 {
		return time.Duration(o.DynamicTimeoutMS) * time.Millisecond
	}
	return def
}

// StaticTimeout resolves the static-fetch timeout.
func (o Override) StaticTimeout() time.Duration {
	if o.StaticTimeoutSec > 0 {
		return time.Duration(o.StaticTimeoutSec) * time.Second
	}
	return 12 * time.Second
}

// PageBudget resolves the per-site pagination budget against the run default.
func (o Override) PageBudget(def int) int {
	if o.PerSitePages != nil {
		return *o.PerSitePages
	}
	return def
}

// Config represents the application configuration: the scrape rules loaded
// from the config file plus runtime settings from environment variables.
type Config struct {
	Filters     Filters             `mapstructure:"filters"`
	PriceFilter PriceFilter         `mapstructure:"price_filter"`
	Limits      Limits              `mapstructure:"limits"`
	Overrides   map[string]Override `mapstructure:"overrides"`

	// Sites and output
	SitesPath string
	OutJSONL  string
	OutCSV    string

	// Redis stream sink (empty addr disables)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache fetch-block cache (empty addr disables)
	MemcacheAddr string

	// Postgres sink (empty URL disables)
	PostgresURL string

	// Prometheus listener (empty addr disables)
	MetricsAddr string

	// Crawl runtime
	SiteWorkers int
	RecordLimit int // per-site record budget; 0 means unlimited

	Environment string
}

var (
	lineCommentRegex   = regexp.MustCompile(`//.*`)
	blockCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeConfigJSON tolerates hand-edited config files: // and /* */
// comments are stripped and trailing commas removed before parsing.
func sanitizeConfigJSON(raw []byte) []byte {
	raw = lineCommentRegex.ReplaceAll(raw, nil)
	raw = blockCommentRegex.ReplaceAll(raw, nil)
	return trailingCommaRegex.ReplaceAll(raw, []byte("$1"))
}

// LoadConfig loads the scrape configuration file and the runtime environment.
// A missing or malformed config file degrades to defaults and never fails
// the run.
func LoadConfig() *Config {
	cfg := &Config{}

	// Override blocks are keyed by domain, so "." must stay a literal part
	// of config keys rather than viper's nesting delimiter.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigType("json")

	v.SetDefault("limits::timeout_ms", 60000)
	v.SetDefault("limits::per_site_pages", 10)

	// A broken or absent file degrades to defaults.
	if raw, err := os.ReadFile(getEnv("CONFIG_PATH", "config.json")); err == nil {
		_ = v.ReadConfig(bytes.NewReader(sanitizeConfigJSON(raw)))
	}
	_ = v.Unmarshal(cfg)

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamCount, _ := strconv.Atoi(getEnv("REDIS_STREAM_COUNT", "1"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAX_LENGTH", "500"))
	siteWorkers, _ := strconv.Atoi(getEnv("SITE_WORKERS", "4"))
	recordLimit, _ := strconv.Atoi(getEnv("RECORD_LIMIT", "0"))

	cfg.SitesPath = getEnv("SITES_PATH", "sites.txt")
	cfg.OutJSONL = getEnv("OUT_JSONL", "out/snapshot.jsonl")
	cfg.OutCSV = getEnv("OUT_CSV", "out/snapshot.csv")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisDB = redisDB
	cfg.RedisStream = getEnv("REDIS_STREAM", "snapshots")
	cfg.RedisStreamCount = streamCount
	cfg.RedisStreamMaxLength = streamMaxLen
	cfg.MemcacheAddr = getEnv("MEMCACHE_ADDR", "")
	cfg.PostgresURL = getEnv("POSTGRES_URL", "")
	cfg.MetricsAddr = getEnv("METRICS_ADDR", "")
	cfg.SiteWorkers = siteWorkers
	cfg.RecordLimit = recordLimit
	cfg.Environment = getEnv("SNAPSHOT_ENVIRONMENT", "development")

	return cfg
}

// Validate checks the configuration for values that would make the run
// meaningless.
func (c *Config) Validate() error {
	if c.SiteWorkers < 1 {
		return fmt.Errorf("SITE_WORKERS must be at least 1, got %d", c.SiteWorkers)
	}
	if c.RecordLimit < 0 {
		return fmt.Errorf("RECORD_LIMIT must not be negative, got %d", c.RecordLimit)
	}
	if c.Limits.PerSitePages < 0 {
		return fmt.Errorf("limits.per_site_pages must not be negative, got %d", c.Limits.PerSitePages)
	}
	if c.PriceFilter.Min != nil && c.PriceFilter.Max != nil && *c.PriceFilter.Min > *c.PriceFilter.Max {
		return fmt.Errorf("price_filter.min %v exceeds price_filter.max %v", *c.PriceFilter.Min, *c.PriceFilter.Max)
	}
	return nil
}

// OverrideFor returns the override block for a registrable domain, or the
// zero Override when none is configured.
func (c *Config) OverrideFor(domain string) Override {
	if c.Overrides == nil {
		return Override{}
	}
	return c.Overrides[strings.ToLower(domain)]
}

// Timeout returns the run-wide rendered-fetch timeout.
func (c *Config) Timeout() time.Duration {
	if c.Limits.TimeoutMS <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Limits.TimeoutMS) * time.Millisecond
}

// LoadSites reads the site list: one URL per line, blank lines and
// #-comments skipped, list bullets tolerated, bare hosts promoted to https.
func LoadSites(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sites file: %w", err)
	}
	defer f.Close()

	var sites []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "-•* "))
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "http") {
			line = "https://" + line
		}
		sites = append(sites, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}
	return sites, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

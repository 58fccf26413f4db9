// Package config assembles the run configuration.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (stacknotice.toml in the working directory, or an explicit path)
//  3. a .env file
//  4. the process environment, including GitHub Actions inputs
//
// Command-line flags are applied on top by the caller. The resulting
// [Config] is passed down explicitly; library packages never read the
// environment themselves.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/stacknotice/pkg/aggregate"
	"github.com/matzehuels/stacknotice/pkg/artifact"
	"github.com/matzehuels/stacknotice/pkg/cache"
	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/integrations/clearlydefined"
	"github.com/matzehuels/stacknotice/pkg/integrations/github"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

const appName = "stacknotice"

// Defaults.
const (
	DefaultFilename = "NOTICE"
	DefaultTimeout  = 30 * time.Second
	DefaultListen   = ":8080"
	DefaultCacheTTL = 24 * time.Hour
	DefaultFile     = "stacknotice.toml"
)

// Config is the complete configuration of a run or of the service.
type Config struct {
	// Repository is "owner/name".
	Repository string `toml:"repository"`
	Token      string `toml:"token"`

	Format    notice.Format `toml:"format"`
	Filename  string        `toml:"filename"`
	OutputDir string        `toml:"output_dir"`

	// Timeout bounds each upstream request; zero means unbounded.
	Timeout     time.Duration    `toml:"timeout"`
	Limited     bool             `toml:"limited"`
	Limits      aggregate.Limits `toml:"limits"`
	Concurrency int              `toml:"concurrency"`

	GitHubURL         string `toml:"github_url"`
	ClearlyDefinedURL string `toml:"clearlydefined_url"`

	Cache CacheConfig          `toml:"cache"`
	S3    artifact.S3Config    `toml:"s3"`
	Mongo artifact.MongoConfig `toml:"mongo"`

	Listen string `toml:"listen"`
}

// CacheConfig selects the notice cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	Size          int           `toml:"size"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
}

// Options converts c for cache.Open.
func (c CacheConfig) Options() cache.Options {
	return cache.Options{
		Backend:       c.Backend,
		Dir:           c.Dir,
		Size:          c.Size,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:            notice.FormatText,
		Filename:          DefaultFilename,
		OutputDir:         ".",
		Timeout:           DefaultTimeout,
		Limits:            aggregate.DefaultFallbackLimits,
		Concurrency:       aggregate.DefaultConcurrency,
		GitHubURL:         github.DefaultBaseURL,
		ClearlyDefinedURL: clearlydefined.DefaultBaseURL,
		Cache: CacheConfig{
			Backend: cache.BackendNone,
			Dir:     DefaultCacheDir(),
			Size:    cache.DefaultMemorySize,
			TTL:     DefaultCacheTTL,
		},
		Listen: DefaultListen,
	}
}

// DefaultCacheDir returns the file cache directory using the XDG layout
// (~/.cache/stacknotice/).
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// Owner returns the owner part of Repository.
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

// Name returns the repository part of Repository.
func (c *Config) Name() string {
	_, name, _ := strings.Cut(c.Repository, "/")
	return name
}

// Mode returns the forced aggregation mode, or Full.
func (c *Config) Mode() aggregate.Mode {
	if c.Limited {
		return aggregate.Limited(c.Limits.MaxManifests, c.Limits.MaxDependencies)
	}
	return aggregate.Full()
}

// Validate checks everything a generate run needs.
func (c *Config) Validate() error {
	if err := c.ValidateService(); err != nil {
		return err
	}
	if _, _, err := github.ParseRepoRef(c.Repository); err != nil {
		return err
	}
	if _, err := notice.ParseFormat(string(c.Format)); err != nil {
		return err
	}
	return errors.ValidateFilename(c.Filename)
}

// ValidateService checks the settings shared by every command: token,
// limits, timeouts, endpoints and cache backend.
func (c *Config) ValidateService() error {
	if err := errors.ValidateToken(c.Token); err != nil {
		return errors.New(errors.ErrCodeUnauthorized,
			"a GitHub token is required (set the token input, GITHUB_TOKEN or --token)")
	}
	if c.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout cannot be negative")
	}
	if c.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must be at least 1, got %d", c.Concurrency)
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	for _, u := range []string{c.GitHubURL, c.ClearlyDefinedURL} {
		if err := errors.ValidateURL(u); err != nil {
			return err
		}
	}
	switch c.Cache.Backend {
	case "", cache.BackendNone, cache.BackendFile, cache.BackendMemory, cache.BackendRedis:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "redis cache requires an address")
	}
	return nil
}

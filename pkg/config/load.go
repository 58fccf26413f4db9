package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-githubactions"

	"github.com/matzehuels/stacknotice/pkg/errors"
	"github.com/matzehuels/stacknotice/pkg/notice"
)

// EnvPrefix prefixes every stacknotice environment override.
const EnvPrefix = "STACKNOTICE_"

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Path is an explicit TOML file, which must exist. When empty,
	// DefaultFile is read if present.
	Path string
	// DotEnv is the .env file to read; ".env" when empty. A missing file is
	// ignored.
	DotEnv string
	// Getenv replaces os.Getenv.
	Getenv func(string) string
}

// Load builds a Config from defaults, the TOML file, the .env file and the
// environment. The result is not validated.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()
	if err := loadFile(&cfg, opts.Path); err != nil {
		return cfg, err
	}

	dotenv, err := readDotEnv(opts.DotEnv)
	if err != nil {
		return cfg, err
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if explicit && os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "config file %s not found", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidInput, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	return env, nil
}

// applyEnv layers GitHub Actions variables, then action inputs, then
// STACKNOTICE_* overrides.
func applyEnv(cfg *Config, getenv func(string) string) error {
	action := githubactions.New(githubactions.WithGetenv(getenv))

	// The workflow context is only consulted when running inside Actions;
	// it reads the event payload from disk.
	if getenv("GITHUB_ACTIONS") == "true" || getenv("GITHUB_REPOSITORY") != "" {
		gh, err := action.Context()
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "read GitHub Actions context")
		}
		setString(&cfg.Repository, gh.Repository)
		setString(&cfg.OutputDir, gh.Workspace)
		if getenv("GITHUB_API_URL") != "" {
			setString(&cfg.GitHubURL, gh.APIURL)
		}
	}
	setString(&cfg.Token, getenv("GITHUB_TOKEN"))

	if f := action.GetInput("format"); f != "" {
		cfg.Format = notice.Format(f)
	}
	setString(&cfg.Filename, action.GetInput("filename"))
	setString(&cfg.Token, action.GetInput("token"))

	e := envReader{getenv: getenv}
	e.str("REPOSITORY", &cfg.Repository)
	e.str("TOKEN", &cfg.Token)
	if f := getenv(EnvPrefix + "FORMAT"); f != "" {
		cfg.Format = notice.Format(f)
	}
	e.str("FILENAME", &cfg.Filename)
	e.str("OUTPUT_DIR", &cfg.OutputDir)
	e.duration("TIMEOUT", &cfg.Timeout)
	e.boolean("LIMITED", &cfg.Limited)
	e.integer("MAX_MANIFESTS", &cfg.Limits.MaxManifests)
	e.integer("MAX_DEPENDENCIES", &cfg.Limits.MaxDependencies)
	e.integer("CONCURRENCY", &cfg.Concurrency)
	e.str("GITHUB_URL", &cfg.GitHubURL)
	e.str("CLEARLYDEFINED_URL", &cfg.ClearlyDefinedURL)
	e.str("LISTEN", &cfg.Listen)

	e.str("CACHE", &cfg.Cache.Backend)
	e.str("CACHE_DIR", &cfg.Cache.Dir)
	e.integer("CACHE_SIZE", &cfg.Cache.Size)
	e.duration("CACHE_TTL", &cfg.Cache.TTL)
	e.str("REDIS_ADDR", &cfg.Cache.RedisAddr)
	e.str("REDIS_PASSWORD", &cfg.Cache.RedisPassword)
	e.integer("REDIS_DB", &cfg.Cache.RedisDB)

	e.str("S3_ENDPOINT", &cfg.S3.Endpoint)
	e.str("S3_REGION", &cfg.S3.Region)
	e.str("S3_ACCESS_KEY", &cfg.S3.AccessKey)
	e.str("S3_SECRET_KEY", &cfg.S3.SecretKey)
	e.str("S3_BUCKET", &cfg.S3.Bucket)
	e.boolean("S3_USE_SSL", &cfg.S3.UseSSL)

	e.str("MONGO_URI", &cfg.Mongo.URI)
	e.str("MONGO_DATABASE", &cfg.Mongo.Database)
	e.str("MONGO_COLLECTION", &cfg.Mongo.Collection)

	return e.err
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// envReader reads STACKNOTICE_* variables and keeps the first parse error.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) lookup(name string) (string, bool) {
	key := EnvPrefix + name
	v := strings.TrimSpace(e.getenv(key))
	return v, v != ""
}

func (e *envReader) fail(name, v string, err error) {
	if e.err == nil {
		e.err = errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid %s%s=%q", EnvPrefix, name, v)
	}
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = n
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = b
}

// duration accepts Go durations ("45s") and bare seconds ("45").
func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = d
}

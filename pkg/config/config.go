// Package config loads sexpfmt configuration files.
//
// Configuration is TOML. The CLI looks for [FileName] in the working
// directory and then for [UserFileName] in $XDG_CONFIG_HOME/sexpfmt (or
// ~/.config/sexpfmt). Command-line flags override the file and the file
// overrides the built-in defaults.
//
//	width = 100
//	reinterpret_floats = ["#x7fc00000"]
//
//	[forms]
//	control_flow = ["unless"]
//	binding_list = ["mlet"]
//	none = ["when"]
//
//	[indent]
//	defmethod = 2
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	max_body_bytes = 1048576
//	request_timeout = "30s"
//
// Keys under [forms] are strategy names as accepted by
// pretty.ParseStrategy; "none" removes the built-in handling of a name and
// wins over any other key that lists the same name.
// [indent] sets the extra body indentation of names that have a rule.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/sexpfmt/pkg/cache"
	errs "github.com/matzehuels/sexpfmt/pkg/errors"
	"github.com/matzehuels/sexpfmt/pkg/pipeline"
	"github.com/matzehuels/sexpfmt/pkg/pretty"
	"github.com/matzehuels/sexpfmt/pkg/server"
)

// noneKey is the [forms] key that removes rules.
const noneKey = "none"

const (
	// FileName is the project configuration file.
	FileName = ".sexpfmt.toml"

	// UserFileName is the per-user configuration file.
	UserFileName = "config.toml"

	appName = "sexpfmt"
)

// Config is the decoded configuration file.
type Config struct {
	Width             int                 `toml:"width"`
	ReinterpretFloats []string            `toml:"reinterpret_floats"`
	Forms             map[string][]string `toml:"forms"`
	Indent            map[string]int      `toml:"indent"`
	Cache             CacheConfig         `toml:"cache"`
	Server            ServerConfig        `toml:"server"`

	// Path is the file the configuration was loaded from, if any.
	Path string `toml:"-"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	Dir           string   `toml:"dir"`
	RedisURL      string   `toml:"redis_url"`
	RedisPrefix   string   `toml:"redis_prefix"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
}

// ServerConfig configures `sexpfmt serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	MaxBodyBytes   int64    `toml:"max_body_bytes"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Width: pipeline.DefaultWidth,
		Cache: CacheConfig{Backend: cache.BackendFile},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxBodyBytes:   pipeline.DefaultMaxSourceBytes,
			RequestTimeout: Duration{server.DefaultRequestTimeout},
		},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads and validates the file at path. Values missing from the file
// keep their defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config %s does not exist", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find returns the first configuration file that exists, looking in dir and
// then in the user configuration directory.
func Find(dir string) (string, bool) {
	candidates := []string{filepath.Join(dir, FileName)}
	if userDir := userConfigDir(); userDir != "" {
		candidates = append(candidates, filepath.Join(userDir, appName, UserFileName))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Discover loads the file found by [Find], or returns [Default] when there
// is none.
func Discover(dir string) (*Config, error) {
	path, ok := Find(dir)
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks every value without building anything.
func (c *Config) Validate() error {
	if err := errs.ValidateWidth(c.Width); err != nil {
		return err
	}
	if _, err := c.Floats(); err != nil {
		return err
	}
	if _, err := c.FormTable(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone:
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache ttl must not be negative")
	}
	if err := errs.ValidateCacheKeyPrefix(c.Cache.RedisPrefix); err != nil {
		return err
	}
	if c.Server.MaxBodyBytes < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server max_body_bytes must not be negative")
	}
	if c.Server.RequestTimeout.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server request_timeout must not be negative")
	}
	return nil
}

// =============================================================================
// Conversion
// =============================================================================

// Floats parses reinterpret_floats. Each entry is a 32-bit pattern in hex,
// written "#x3f000000" or "0x3f000000".
func (c *Config) Floats() ([]uint32, error) {
	out := make([]uint32, 0, len(c.ReinterpretFloats))
	for _, s := range c.ReinterpretFloats {
		bits, err := ParseFloatBits(s)
		if err != nil {
			return nil, err
		}
		out = append(out, bits)
	}
	return out, nil
}

// ParseFloatBits parses a 32-bit float pattern written in hex.
func ParseFloatBits(s string) (uint32, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(s), "#x"), "0x")
	if digits == "" || len(digits) == len(s) {
		return 0, errs.New(errs.ErrCodeInvalidConfig, "float pattern %q must start with #x or 0x", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, errs.Wrap(errs.ErrCodeInvalidConfig, err, "float pattern %q", s)
	}
	return uint32(v), nil
}

// FormTable builds the special-form table: the built-in rules with the
// [forms] and [indent] sections applied. The "none" key is applied last.
func (c *Config) FormTable() (*pretty.FormTable, error) {
	t := pretty.DefaultForms()
	keys := sortedKeys(c.Forms)
	if i := sort.SearchStrings(keys, noneKey); i < len(keys) && keys[i] == noneKey {
		keys = append(append(keys[:i:i], keys[i+1:]...), noneKey)
	}
	for _, key := range keys {
		strategy, err := pretty.ParseStrategy(key)
		if err != nil {
			return nil, err
		}
		for _, name := range c.Forms[key] {
			t.Set(name, pretty.FormRule{Strategy: strategy})
		}
	}
	for _, name := range sortedKeys(c.Indent) {
		rule, ok := t.Lookup(name)
		if !ok {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "indent for %q, which has no form rule", name)
		}
		delta := c.Indent[name]
		if delta < 0 || delta > 16 {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "indent for %q must be between 0 and 16", name)
		}
		rule.IndentDelta = delta
		t.Set(name, rule)
	}
	return t, nil
}

// PipelineOptions returns the pipeline options described by the file.
func (c *Config) PipelineOptions() (pipeline.Options, error) {
	floats, err := c.Floats()
	if err != nil {
		return pipeline.Options{}, err
	}
	forms, err := c.FormTable()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Width:             c.Width,
		ReinterpretFloats: floats,
		Forms:             forms,
		CacheTTL:          c.Cache.TTL.Duration,
	}, nil
}

// CacheOptions returns the cache backend options. defaultDir is used for
// the file backend when the file does not name a directory.
func (c *Config) CacheOptions(defaultDir string) cache.Options {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultDir
	}
	return cache.Options{
		Backend:       c.Cache.Backend,
		Dir:           dir,
		RedisURL:      c.Cache.RedisURL,
		RedisPrefix:   c.Cache.RedisPrefix,
		MongoURI:      c.Cache.MongoURI,
		MongoDatabase: c.Cache.MongoDatabase,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

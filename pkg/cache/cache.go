// Package cache stores formatted output keyed by source content and layout
// options.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: a shared Redis instance (server deployments)
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] builds the backend named in an [Options] value, which is how the
// CLI and the server select one from configuration.
//
// # Keys
//
// A [Keyer] turns a source hash and the options that influence layout into a
// cache key. Wrap a keyer with [NewScopedKeyer] to isolate tenants that share
// a backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/matzehuels/sexpfmt/pkg/buildinfo"
)

// TTLFormat is how long formatted output stays cached. Layout is
// deterministic, so entries only expire to bound storage.
const TTLFormat = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Keyer builds cache keys.
type Keyer interface {
	// FormatKey returns the key for the output of formatting the source
	// with the given hash under opts.
	FormatKey(sourceHash string, opts FormatKeyOpts) string
}

// FormatKeyOpts holds everything besides the source that changes the
// formatted output.
type FormatKeyOpts struct {
	Width             int      `json:"width"`
	Forms             string   `json:"forms"`              // form table fingerprint
	ReinterpretFloats []uint32 `json:"reinterpret_floats"` // sorted
}

// DefaultKeyer is the standard Keyer. Its keys also cover the build version,
// so a new release never serves output laid out by an older one.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// FormatKey returns "format:" followed by the hex SHA-256 of the build
// version, the source hash and opts.
func (DefaultKeyer) FormatKey(sourceHash string, opts FormatKeyOpts) string {
	return formatKey(buildinfo.Version, sourceHash, opts)
}

var _ Keyer = DefaultKeyer{}

func formatKey(version, sourceHash string, opts FormatKeyOpts) string {
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(sourceHash))
	h.Write([]byte{0})
	_ = json.NewEncoder(h).Encode(opts)
	return "format:" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of a source, the sourceHash of FormatKey.
func Hash(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

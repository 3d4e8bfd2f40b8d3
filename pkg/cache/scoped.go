package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// The HTTP server uses it to keep per-client namespaces apart when several
// deployments share one Redis or Mongo backend.
//
// Example usage:
//
//	// Keys for one team
//	teamKeyer := NewScopedKeyer(NewDefaultKeyer(), "team:decomp:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FormatKey generates a prefixed key for formatted output.
func (k *ScopedKeyer) FormatKey(sourceHash string, opts FormatKeyOpts) string {
	return k.prefix + k.inner.FormatKey(sourceHash, opts)
}

var _ Keyer = (*ScopedKeyer)(nil)

package config

import (
	"fmt"
	"sort"
	"strconv"
)

// fieldRef points at one addressable config value.
type fieldRef struct {
	key string
	ptr any
}

func (c *Config) fieldRefs() []fieldRef {
	refs := []fieldRef{
		{"search.mode", &c.Search.Mode},
		{"search.limit", &c.Search.Limit},
		{"search.debounce_ms", &c.Search.DebounceMs},
		{"search.alias_shortcut", &c.Search.AliasShortcut},
		{"search.candidate_cap", &c.Search.CandidateCap},
		{"logs.enabled", &c.Logs.Enabled},
		{"logs.level", &c.Logs.Level},
		{"logs.file", &c.Logs.File},
		{"completion.timeout_ms", &c.Completion.TimeoutMs},
		{"completion.shell", &c.Completion.Shell},
		{"completion.cache_ttl_secs", &c.Completion.CacheTTLSecs},
		{"completion.cache_size", &c.Completion.CacheSize},
		{"completion.concurrency", &c.Completion.Concurrency},
	}
	for _, f := range c.Tuning.floatFields() {
		refs = append(refs, fieldRef{key: "tuning." + f.key, ptr: f.val})
	}
	return refs
}

func (c *Config) lookup(key string) (fieldRef, error) {
	for _, ref := range c.fieldRefs() {
		if ref.key == key {
			return ref, nil
		}
	}
	return fieldRef{}, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Get retrieves a configuration value by dot-separated key.
// For example: "search.mode" or "tuning.commands.text.points".
func (c *Config) Get(key string) (string, error) {
	ref, err := c.lookup(key)
	if err != nil {
		return "", err
	}

	switch p := ref.ptr.(type) {
	case *string:
		return *p, nil
	case *int:
		return strconv.Itoa(*p), nil
	case *bool:
		return strconv.FormatBool(*p), nil
	case *float64:
		return strconv.FormatFloat(*p, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported type for %s", key)
	}
}

// Set sets a configuration value by dot-separated key and re-validates.
// The config is left unchanged when the new value is rejected.
func (c *Config) Set(key, value string) error {
	ref, err := c.lookup(key)
	if err != nil {
		return err
	}

	prev, _ := c.Get(key)
	if err := assign(ref, value); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		_ = assign(ref, prev)
		return err
	}
	return nil
}

func assign(ref fieldRef, value string) error {
	switch p := ref.ptr.(type) {
	case *string:
		*p = value
	case *int:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", ref.key, err)
		}
		*p = v
	case *bool:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", ref.key, err)
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", ref.key, err)
		}
		if v < 0 {
			return fmt.Errorf("invalid value for %s: must be >= 0", ref.key)
		}
		*p = v
	default:
		return fmt.Errorf("unsupported type for %s", ref.key)
	}
	return nil
}

// ListKeys returns every configuration key, sorted.
func ListKeys() []string {
	refs := DefaultConfig().fieldRefs()
	keys := make([]string, 0, len(refs))
	for _, ref := range refs {
		keys = append(keys, ref.key)
	}
	sort.Strings(keys)
	return keys
}

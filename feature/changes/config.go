package changes

import "time"

// Config holds the settings of the changes feature.
type Config struct {
	// Root confines document locations received over HTTP to a directory.
	// Relative locations are resolved against it.
	Root string `mapstructure:"root" default:"."`
	// DebounceMS is the quiet period before the watcher rescans after a write.
	DebounceMS int `mapstructure:"debounce_ms" default:"250"`
}

// Debounce returns DebounceMS as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

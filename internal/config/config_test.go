package config

import "testing"

func TestUseStatsCache(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		storage string
		want    bool
	}{
		{"postgres with cache on", true, "postgres", true},
		{"memory storage never caches", true, "memory", false},
		{"cache disabled", false, "postgres", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := App{StatsCacheEnabled: tc.enabled, StorageBackend: tc.storage}
			if got := cfg.UseStatsCache(); got != tc.want {
				t.Errorf("UseStatsCache() = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestBoolEnv(t *testing.T) {
	t.Setenv("STATS_CACHE", "false")
	if Load().StatsCacheEnabled {
		t.Error("STATS_CACHE=false should disable the cache")
	}
	t.Setenv("STATS_CACHE", "")
	if !Load().StatsCacheEnabled {
		t.Error("stats cache should default to enabled")
	}
	t.Setenv("STATS_CACHE", "not-a-bool")
	if !Load().StatsCacheEnabled {
		t.Error("unparseable value should fall back to enabled")
	}
}

package testsupport

import (
	"testing"

	"myonorm/internal/config"
	"myonorm/internal/store"
)

// MustOpenStore opens the run store for cfg and closes it with the test.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

package testsupport

import (
	"testing"

	"cadence/internal/config"
	"cadence/internal/similarity"
)

// MustOpenStore opens a similarity store for the test config, closing it when
// the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *similarity.Store {
	t.Helper()

	store, err := similarity.Open(cfg)
	if err != nil {
		t.Fatalf("open similarity store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close similarity store: %v", err)
		}
	})
	return store
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"myonorm/internal/recording"
)

// WriteSession creates dir (if needed) with a channel_config.txt and one
// .npz file per recording, and returns dir.
func WriteSession(t testing.TB, dir string, channels recording.ChannelSet, recs ...*recording.Recording) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := recording.WriteChannelSet(dir, channels); err != nil {
		t.Fatalf("write channels: %v", err)
	}
	for _, rec := range recs {
		if _, err := recording.WriteFile(dir, rec); err != nil {
			t.Fatalf("write %s: %v", rec.Name(), err)
		}
	}
	return dir
}

// SessionDir writes recs into a fresh temp directory.
func SessionDir(t testing.TB, channels recording.ChannelSet, recs ...*recording.Recording) string {
	t.Helper()
	return WriteSession(t, filepath.Join(t.TempDir(), "session"), channels, recs...)
}

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferunner/saferunner/internal/session"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state", "saferunner_state.json"))
}

func TestLoadMissingFileIsEmptyState(t *testing.T) {
	s := tempStore(t)
	snap, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.Contacts)
	assert.Empty(t, snap.Sessions)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	deadline := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	in := &Snapshot{
		Contacts:  map[int64][]int64{999: {11, 22}},
		Blacklist: map[int64][]int64{22: {999}},
		Timezones: map[int64]string{999: "Asia/Singapore"},
		Sessions: map[int64]session.Record{
			999: {
				State:    session.StateArmed,
				Location: session.Coordinates(1.3, 103.8),
				Deadline: deadline,
			},
		},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, in.Contacts, out.Contacts)
	assert.Equal(t, in.Blacklist, out.Blacklist)
	assert.Equal(t, in.Timezones, out.Timezones)
	require.Contains(t, out.Sessions, int64(999))
	assert.Equal(t, session.StateArmed, out.Sessions[999].State)
	assert.True(t, out.Sessions[999].Deadline.Equal(deadline))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(&Snapshot{}))

	_, err := os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptFileFails(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0600))

	_, err := s.Load()
	assert.Error(t, err)
}

func TestLoadRejectsCorruptLocationVariant(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
	blob := `{"sessions":{"1":{"state":3,"location":{"type":"teleport"}}}}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(blob), 0600))

	_, err := s.Load()
	assert.Error(t, err)
}

func TestPrefsDefaultAndOverride(t *testing.T) {
	p := NewPrefs("Asia/Singapore")
	assert.Equal(t, "Asia/Singapore", p.Timezone(1))

	p.SetTimezone(1, "Europe/Lisbon")
	assert.Equal(t, "Europe/Lisbon", p.Timezone(1))
	assert.Equal(t, "Asia/Singapore", p.Timezone(2), "other users keep the default")
}

func TestPrefsExportRestore(t *testing.T) {
	p := NewPrefs("UTC")
	p.SetTimezone(1, "America/New_York")

	exported := p.Export()

	p2 := NewPrefs("UTC")
	p2.Restore(exported)
	assert.Equal(t, "America/New_York", p2.Timezone(1))

	// Export is a copy.
	exported[1] = "Mars/Olympus"
	assert.Equal(t, "America/New_York", p.Timezone(1))
}

package journal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/model"
)

func sampleRecords(base time.Time) []Record {
	return []Record{
		{Timestamp: base, From: "disconnected", To: "connecting"},
		{Timestamp: base.Add(time.Second), From: "connecting", To: "reconnecting", Attempt: 1, Error: "refused"},
		{Timestamp: base.Add(2 * time.Second), From: "reconnecting", To: "connecting", Attempt: 1},
		{Timestamp: base.Add(3 * time.Second), From: "connecting", To: "connected"},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	for _, r := range sampleRecords(base) {
		require.NoError(t, store.Append(ctx, r))
	}

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "connected", all[3].To)
	assert.Equal(t, "refused", all[1].Error)
	assert.Equal(t, 1, all[1].Attempt)

	byState, err := store.Query(ctx, Query{To: "connecting"})
	require.NoError(t, err)
	assert.Len(t, byState, 2)

	window, err := store.Query(ctx, Query{Start: base.Add(time.Second), End: base.Add(2 * time.Second)})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "reconnecting", window[0].To)
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := Record{Timestamp: time.Now(), From: "connecting", To: "reconnecting", Error: strings.Repeat("x", 4096)}
	for i := 0; i < 300; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, err := store.files()
	require.NoError(t, err)
	assert.Greater(t, len(files), 1)

	out, err := store.Query(context.Background(), Query{To: "reconnecting"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSQLiteStore_AppendQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:journal_test.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestFromEvent(t *testing.T) {
	now := time.Now()
	r := FromEvent(model.ConnectionEvent{
		From: model.Connected, To: model.Reconnecting, Attempt: 1,
		Err: errors.New("keepalive"), Time: now,
	})
	assert.Equal(t, Record{Timestamp: now, From: "connected", To: "reconnecting", Attempt: 1, Error: "keepalive"}, r)
}

func TestNew(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = New(Config{Backend: "csv"})
	assert.Error(t, err)

	s, err = New(Config{Backend: "jsonl", Path: filepath.Join(t.TempDir(), "j.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)
	require.NoError(t, s.Close())
}

func TestRecordEvents(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"), 1, 1, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan model.ConnectionEvent, 2)
	RecordEvents(ctx, events, store, nil)
	events <- model.ConnectionEvent{From: model.Disconnected, To: model.Connecting, Time: time.Now()}
	events <- model.ConnectionEvent{From: model.Connecting, To: model.Connected, Time: time.Now()}

	assert.Eventually(t, func() bool {
		out, err := store.Query(context.Background(), Query{})
		return err == nil && len(out) == 2
	}, time.Second, 10*time.Millisecond)
}

package store_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sahayak-agent/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func TestAppendAndListRoundTrip(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	first := note{ID: "1", Text: "first", CreatedAt: time.Now().UTC()}
	second := note{ID: "2", Text: "second", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.Append("notes", first))
	require.NoError(t, s.Append("notes", second))

	var got []note
	require.NoError(t, s.List("notes", &got))
	require.Len(t, got, 2)

	// Append order is preserved on read.
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "first", got[0].Text)
	assert.Equal(t, "2", got[1].ID)
}

func TestListMissingCollectionIsEmpty(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	var got []note
	require.NoError(t, s.List("nothing_here", &got))
	assert.Empty(t, got)

	n, err := s.Count("nothing_here")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Append("notes", note{ID: "1", Text: "survives restart"}))

	reopened, err := store.Open(dir)
	require.NoError(t, err)

	var got []note
	require.NoError(t, reopened.List("notes", &got))
	require.Len(t, got, 1)
	assert.Equal(t, "survives restart", got[0].Text)
}

func TestReplaceAllSwapsContents(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("notes", note{ID: "1"}))
	require.NoError(t, s.Append("notes", note{ID: "2"}))

	require.NoError(t, s.ReplaceAll("notes", []note{{ID: "3"}}))

	var got []note
	require.NoError(t, s.List("notes", &got))
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ID)
}

func TestUpdateRewritesInPlace(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("notes", note{ID: "1", Text: "draft"}))

	err = s.Update("notes", func(records []json.RawMessage) ([]json.RawMessage, error) {
		records[0] = json.RawMessage(`{"id":"1","text":"final"}`)
		return records, nil
	})
	require.NoError(t, err)

	var got []note
	require.NoError(t, s.List("notes", &got))
	require.Len(t, got, 1)
	assert.Equal(t, "final", got[0].Text)
}

func TestUpdateNilResultLeavesCollectionUntouched(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("notes", note{ID: "1"}))

	err = s.Update("notes", func(records []json.RawMessage) ([]json.RawMessage, error) {
		return nil, nil
	})
	require.NoError(t, err)

	var got []note
	require.NoError(t, s.List("notes", &got))
	require.Len(t, got, 1)
}

func TestUpdateErrorPropagatesWithoutWriting(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("notes", note{ID: "1"}))

	boom := errors.New("boom")
	err = s.Update("notes", func(records []json.RawMessage) ([]json.RawMessage, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	var got []note
	require.NoError(t, s.List("notes", &got))
	require.Len(t, got, 1)
}

func TestClearEmptiesCollection(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("notes", note{ID: "1"}))
	require.NoError(t, s.Clear("notes"))

	var got []note
	require.NoError(t, s.List("notes", &got))
	assert.Empty(t, got)
}

func TestCollectionsAreIndependent(t *testing.T) {
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Append("a", note{ID: "1"}))
	require.NoError(t, s.Append("b", note{ID: "2"}))
	require.NoError(t, s.Clear("a"))

	var b []note
	require.NoError(t, s.List("b", &b))
	require.Len(t, b, 1)
	assert.Equal(t, "2", b[0].ID)
}

package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/repository"
)

func newTestConversationStore(t *testing.T, dir string) *ConversationStore {
	t.Helper()
	c := NewConversationStore(
		repository.NewConversationFiles(filepath.Join(dir, "messages")),
		repository.NewIndexFile(filepath.Join(dir, "fileNameList.txt")),
		nil,
	)
	c.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.Local) }
	return c
}

func ptr(s string) *string { return &s }

func collect(t *testing.T, c *ConversationStore, a, b string) []string {
	t.Helper()
	var out []string
	for line, err := range c.History(a, b) {
		require.NoError(t, err)
		out = append(out, line)
	}
	return out
}

func TestSendMessageAndHistory(t *testing.T) {
	dir := t.TempDir()
	c := newTestConversationStore(t, dir)

	require.NoError(t, c.SendMessage("bob", "alice", ptr("Hi")))
	require.NoError(t, c.SendMessage("alice", "bob", ptr("Hello; how are you?")))
	require.NoError(t, c.SendMessage("bob", "alice", ptr("")))

	want := []string{
		"bob: Hi (10/16/2026 12:00:00)",
		"alice: Hello; how are you? (10/16/2026 12:00:00)",
		"bob:  (10/16/2026 12:00:00)",
	}
	assert.Equal(t, want, collect(t, c, "alice", "bob"))
	assert.Equal(t, want, collect(t, c, "bob", "alice"), "either ordering resolves to the same file")
	assert.Equal(t, want, collect(t, c, "alice", "bob"), "history is restartable")

	assert.Equal(t, "bob-alice", c.ConversationKey("alice", "bob"))
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, []string{"alice"}, c.Partners("bob"))
	assert.Equal(t, []string{"bob"}, c.Partners("alice"))

	keys, err := c.index.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"bob-alice"}, keys)
}

func TestSendMessageRejectsNilContent(t *testing.T) {
	c := newTestConversationStore(t, t.TempDir())
	assert.ErrorIs(t, c.SendMessage("bob", "alice", nil), ErrMessageRequired)
	assert.Zero(t, c.Count())
}

func TestHistoryWithoutConversationIsEmpty(t *testing.T) {
	c := newTestConversationStore(t, t.TempDir())
	assert.Empty(t, collect(t, c, "alice", "bob"))
	assert.Zero(t, c.Count(), "reading does not register a pair")
}

func TestHistoryOf(t *testing.T) {
	c := newTestConversationStore(t, t.TempDir())
	require.NoError(t, c.SendMessage("bob", "alice", ptr("Hi")))
	require.NoError(t, c.SendMessage("carol", "alice", ptr("Yo")))

	got, err := c.HistoryOf("alice")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"bob":   {"bob: Hi (10/16/2026 12:00:00)"},
		"carol": {"carol: Yo (10/16/2026 12:00:00)"},
	}, got)

	none, err := c.HistoryOf("dave")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryOfSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	c := newTestConversationStore(t, dir)
	require.NoError(t, c.SendMessage("bob", "alice", ptr("Hi")))

	f, err := os.OpenFile(filepath.Join(dir, "messages", "bob-alice"), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := c.HistoryOf("alice")
	require.NoError(t, err)
	assert.Len(t, got["bob"], 1)
}

func TestConversationReload(t *testing.T) {
	dir := t.TempDir()
	c := newTestConversationStore(t, dir)
	require.NoError(t, c.SendMessage("bob", "alice", ptr("Hi")))
	require.NoError(t, c.SendMessage("alice", "carol", ptr("Hey")))

	fresh := newTestConversationStore(t, dir)
	n, err := fresh.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.ElementsMatch(t, []string{"bob", "carol"}, fresh.Partners("alice"))

	require.NoError(t, fresh.SendMessage("alice", "bob", ptr("Back")))
	assert.Len(t, collect(t, fresh, "bob", "alice"), 2)
	assert.Equal(t, 2, fresh.Count())
}

func TestSendMessageStaysInsideMessagesDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "data")
	c := newTestConversationStore(t, dir)

	for _, sender := range []string{"../../escaped", "../escaped", "a/b", `a\b`} {
		assert.ErrorIs(t, c.SendMessage(sender, "bob", ptr("hi")), ErrBadParticipant, sender)
	}
	assert.Zero(t, c.Count())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, "data", e.Name(), "nothing written beside the data dir")
	}
	_, err = os.Stat(filepath.Join(dir, "escaped-bob"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReloadSkipsUnsafeIndexKeys(t *testing.T) {
	dir := t.TempDir()
	index := repository.NewIndexFile(filepath.Join(dir, "fileNameList.txt"))
	require.NoError(t, index.Save([]string{"../../escaped-bob", "bob-alice"}))

	c := newTestConversationStore(t, dir)
	n, err := c.Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"alice"}, c.Partners("bob"))
	assert.Empty(t, c.Partners("../../escaped"))
}

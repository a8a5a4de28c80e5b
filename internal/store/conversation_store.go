package store

import (
	"errors"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/repository"
)

var (
	ErrMessageRequired  = apperr.Validation("Failed to send message")
	ErrEmptyParticipant = apperr.Validation("Participant name cannot be empty")
	ErrBadParticipant   = apperr.Validation("Participant name cannot be used for a conversation")
)

// ConversationStore owns the conversation index and appends messages to one
// file per pair of account names. History reads are not serialized against
// concurrent appends to the same pair.
type ConversationStore struct {
	mu       sync.Mutex
	files    *repository.ConversationFiles
	index    *repository.IndexFile
	keys     []string
	known    map[string]struct{}
	partners map[string][]string

	now    func() time.Time
	logger *slog.Logger
}

func NewConversationStore(files *repository.ConversationFiles, index *repository.IndexFile, logger *slog.Logger) *ConversationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationStore{
		files:    files,
		index:    index,
		known:    make(map[string]struct{}),
		partners: make(map[string][]string),
		now:      time.Now,
		logger:   logger,
	}
}

// Reload reads the index file. A missing index is an empty store.
func (c *ConversationStore) Reload() (int, error) {
	keys, err := c.index.Load()
	if err != nil {
		return 0, apperr.IO("load conversation index", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = nil
	c.known = make(map[string]struct{}, len(keys))
	c.partners = make(map[string][]string)
	for _, key := range keys {
		if !c.registerLocked(key) {
			c.logger.Warn("skipping malformed conversation key", "key", key)
		}
	}
	c.logger.Info("conversation index loaded", "conversations", len(c.keys))
	return len(c.keys), nil
}

// SendMessage appends a timestamped message to the pair's file. The first
// message between two names registers the pair and rewrites the index.
// A nil content is rejected; an empty one is stored as is.
func (c *ConversationStore) SendMessage(sender, receiver string, content *string) error {
	if content == nil {
		return ErrMessageRequired
	}
	if sender == "" || receiver == "" {
		return ErrEmptyParticipant
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key, _ := c.conversationKeyLocked(sender, receiver)
	if !repository.SafeKey(key) {
		return ErrBadParticipant
	}
	msg := model.NewMessage(sender, receiver, *content, c.now())
	if err := c.files.Append(key, msg); err != nil {
		return apperr.IO("append message", err)
	}
	if _, indexed := c.known[key]; indexed {
		return nil
	}
	c.registerLocked(key)
	if err := c.index.Save(c.keys); err != nil {
		return apperr.IO("save conversation index", err)
	}
	return nil
}

// ConversationKey resolves the file key for a pair: "b-a" if that pair is
// already known, otherwise "a-b".
func (c *ConversationStore) ConversationKey(a, b string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, _ := c.conversationKeyLocked(a, b)
	return key
}

func (c *ConversationStore) conversationKeyLocked(a, b string) (string, bool) {
	if key := repository.PairKey(b, a); c.knownLocked(key) {
		return key, true
	}
	key := repository.PairKey(a, b)
	return key, c.knownLocked(key)
}

// knownLocked also accepts a file left on disk without an index entry.
func (c *ConversationStore) knownLocked(key string) bool {
	if _, ok := c.known[key]; ok {
		return true
	}
	return c.files.Exists(key)
}

func (c *ConversationStore) registerLocked(key string) bool {
	a, b, ok := repository.SplitPairKey(key)
	if !ok || !repository.SafeKey(key) {
		return false
	}
	if _, dup := c.known[key]; dup {
		return true
	}
	c.known[key] = struct{}{}
	c.keys = append(c.keys, key)
	if !slices.Contains(c.partners[a], b) {
		c.partners[a] = append(c.partners[a], b)
	}
	if !slices.Contains(c.partners[b], a) {
		c.partners[b] = append(c.partners[b], a)
	}
	return true
}

// History streams the pair's messages as display strings in send order. The
// sequence can be ranged over repeatedly; each pass re-reads the file.
func (c *ConversationStore) History(a, b string) iter.Seq2[string, error] {
	key := c.ConversationKey(a, b)
	return func(yield func(string, error) bool) {
		for m, err := range c.files.Messages(key) {
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}
			if !yield(m.Display(), nil) {
				return
			}
		}
	}
}

// HistoryOf collects the history of name with every partner. Malformed lines
// are skipped and logged.
func (c *ConversationStore) HistoryOf(name string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, partner := range c.Partners(name) {
		lines := make([]string, 0)
		for line, err := range c.History(name, partner) {
			if err != nil {
				if !errors.Is(err, repository.ErrMalformedMessage) {
					return nil, apperr.IO("read conversation", err)
				}
				c.logger.Warn("skipping unreadable message", "user", name, "partner", partner, "err", err)
				continue
			}
			lines = append(lines, line)
		}
		out[partner] = lines
	}
	return out, nil
}

// Partners lists the names name has exchanged messages with, in first-exchange
// order.
func (c *ConversationStore) Partners(name string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.partners[name])
}

// SaveIndex rewrites the index file.
func (c *ConversationStore) SaveIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.index.Save(c.keys); err != nil {
		return apperr.IO("save conversation index", err)
	}
	return nil
}

func (c *ConversationStore) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// DataFiles lists the index file and every conversation file on disk.
func (c *ConversationStore) DataFiles() ([]string, error) {
	files := []string{c.index.Path()}
	entries, err := os.ReadDir(c.files.Dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return files, nil
		}
		return nil, apperr.IO("list conversations", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(c.files.Dir(), e.Name()))
		}
	}
	return files, nil
}

package repository

import (
	"bufio"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
)

var (
	ErrMalformedMessage = errors.New("malformed message line")
	ErrUnsafeKey        = errors.New("conversation key is not a plain file name")
)

// ConversationFiles keeps one append-only file per conversation pair under dir.
// Each line is timestamp;senderId;receiverId;content.
type ConversationFiles struct {
	dir string
}

func NewConversationFiles(dir string) *ConversationFiles {
	return &ConversationFiles{dir: dir}
}

func (c *ConversationFiles) Dir() string { return c.dir }

// SafeKey reports whether key names a file directly inside the messages
// directory.
func SafeKey(key string) bool {
	return key != "" && filepath.IsLocal(key) && !strings.ContainsAny(key, `/\`)
}

// Path resolves key inside dir. Keys that are not a plain file name are
// refused with ErrUnsafeKey.
func (c *ConversationFiles) Path(key string) (string, error) {
	if !SafeKey(key) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeKey, key)
	}
	return filepath.Join(c.dir, key), nil
}

func (c *ConversationFiles) Exists(key string) bool {
	p, err := c.Path(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

func (c *ConversationFiles) Append(key string, m model.Message) error {
	p, err := c.Path(key)
	if err != nil {
		return err
	}
	return appendLine(p, []byte(EncodeMessage(m)+"\n"))
}

// Messages streams the messages of one conversation in file order. Every range
// over the returned sequence reads the file again from the start. A missing
// file yields nothing.
func (c *ConversationFiles) Messages(key string) iter.Seq2[model.Message, error] {
	return func(yield func(model.Message, error) bool) {
		p, err := c.Path(key)
		if err != nil {
			yield(model.Message{}, err)
			return
		}
		f, err := openIfExists(p)
		if err != nil {
			yield(model.Message{}, err)
			return
		}
		if f == nil {
			return
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		lineNo := 0
		for sc.Scan() {
			lineNo++
			line := sc.Text()
			if line == "" {
				continue
			}
			m, err := DecodeMessage(line)
			if err != nil {
				err = fmt.Errorf("%s line %d: %w", key, lineNo, err)
			}
			if !yield(m, err) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(model.Message{}, fmt.Errorf("read %s: %w", key, err))
		}
	}
}

// EncodeMessage renders a message line. Line breaks in the content are folded
// into spaces so one message always occupies one line.
func EncodeMessage(m model.Message) string {
	content := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(m.Content)
	return m.Timestamp + ";" + m.SenderID + ";" + m.ReceiverID + ";" + content
}

// DecodeMessage parses a message line. The content is everything after the
// third separator and may itself contain ';'.
func DecodeMessage(line string) (model.Message, error) {
	parts := strings.SplitN(line, ";", 4)
	if len(parts) != 4 {
		return model.Message{}, fmt.Errorf("%w %q", ErrMalformedMessage, line)
	}
	return model.Message{
		Timestamp:  parts[0],
		SenderID:   parts[1],
		ReceiverID: parts[2],
		Content:    parts[3],
	}, nil
}

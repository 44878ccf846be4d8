// Package messages is the guestbook: birthday wishes persisted as one JSON
// array, seeded from configuration the first time the page is opened.
package messages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"birthday-app/internal/ids"
	"birthday-app/internal/models"
	"birthday-app/internal/storage"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrMessageNotFound = errors.New("message not found")
)

const (
	OpPost      = "post"
	OpDelete    = "delete"
	OpDeleteAll = "delete_all"
	OpReplace   = "replace"
)

// Board is the guestbook. Like the album store it writes through to the
// key-value store before a change becomes visible.
type Board struct {
	mu       sync.Mutex
	kv       storage.KV
	ids      *ids.Generator
	log      *zap.Logger
	messages []models.Message
	onChange []func(op string)
}

// NewBoard creates an empty board. Load fills it from storage or the seed.
func NewBoard(kv storage.KV, gen *ids.Generator, log *zap.Logger) *Board {
	if log == nil {
		log = zap.NewNop()
	}
	if gen == nil {
		gen = ids.NewGenerator()
	}
	return &Board{
		kv:       kv,
		ids:      gen,
		log:      log,
		messages: []models.Message{},
	}
}

// OnChange registers a listener called after every committed mutation.
func (b *Board) OnChange(fn func(op string)) {
	b.mu.Lock()
	b.onChange = append(b.onChange, fn)
	b.mu.Unlock()
}

// Load reads the persisted wishes. When nothing has been stored yet the
// seed is used and written back, so deleting everything later sticks.
func (b *Board) Load(ctx context.Context, seed []models.Message) error {
	raw, err := b.kv.Get(ctx, storage.MessagesKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load messages: %w", err)
	}

	var loaded []models.Message
	switch {
	case errors.Is(err, storage.ErrNotFound):
		loaded = cloneMessages(seed)
		if len(loaded) > 0 {
			if err := b.write(ctx, loaded); err != nil {
				return err
			}
		}
	default:
		if jsonErr := json.Unmarshal(raw, &loaded); jsonErr != nil {
			b.log.Warn("stored messages are unreadable, using defaults", zap.Error(jsonErr))
			loaded = cloneMessages(seed)
		}
	}
	if loaded == nil {
		loaded = []models.Message{}
	}
	for _, m := range loaded {
		b.ids.Observe(m.ID)
	}

	b.mu.Lock()
	b.messages = loaded
	b.mu.Unlock()

	b.log.Info("messages loaded", zap.Int("count", len(loaded)))
	return nil
}

// List returns a copy of the messages in posting order.
func (b *Board) List() []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneMessages(b.messages)
}

// Get returns one message or ErrMessageNotFound.
func (b *Board) Get(id int64) (models.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.indexLocked(id); i >= 0 {
		return b.messages[i], nil
	}
	return models.Message{}, ErrMessageNotFound
}

// Validate checks author and content the way the form does.
func Validate(author, content string) error {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if author == "" || content == "" {
		return fmt.Errorf("%w: please enter both your name and message", ErrValidation)
	}
	if utf8.RuneCountInString(author) > models.MaxAuthorLength {
		return fmt.Errorf("%w: name is longer than %d characters", ErrValidation, models.MaxAuthorLength)
	}
	if utf8.RuneCountInString(content) > models.MaxContentLength {
		return fmt.Errorf("%w: message is longer than %d characters", ErrValidation, models.MaxContentLength)
	}
	return nil
}

// PostMessage appends a wish and persists immediately.
func (b *Board) PostMessage(ctx context.Context, author, content string) (models.Message, error) {
	if err := Validate(author, content); err != nil {
		return models.Message{}, err
	}

	b.mu.Lock()
	msg := models.Message{
		ID:      b.ids.Next(),
		Author:  strings.TrimSpace(author),
		Content: strings.TrimSpace(content),
	}
	next := append(cloneMessages(b.messages), msg)
	err := b.commitLocked(ctx, next)
	b.mu.Unlock()
	if err != nil {
		return models.Message{}, err
	}

	b.notify(OpPost)
	return msg, nil
}

// DeleteMessage removes one wish.
func (b *Board) DeleteMessage(ctx context.Context, id int64) error {
	b.mu.Lock()
	i := b.indexLocked(id)
	if i < 0 {
		b.mu.Unlock()
		return ErrMessageNotFound
	}
	next := make([]models.Message, 0, len(b.messages)-1)
	next = append(next, b.messages[:i]...)
	next = append(next, b.messages[i+1:]...)
	err := b.commitLocked(ctx, next)
	b.mu.Unlock()
	if err != nil {
		return err
	}

	b.notify(OpDelete)
	return nil
}

// DeleteAllMessages clears the board and drops the stored key altogether.
func (b *Board) DeleteAllMessages(ctx context.Context) error {
	b.mu.Lock()
	if err := b.kv.Remove(ctx, storage.MessagesKey); err != nil {
		b.mu.Unlock()
		return fmt.Errorf("remove messages: %w", err)
	}
	b.messages = []models.Message{}
	b.mu.Unlock()

	b.log.Info("all messages deleted")
	b.notify(OpDeleteAll)
	return nil
}

// Replace swaps every message, used by import.
func (b *Board) Replace(ctx context.Context, msgs []models.Message) error {
	seen := make(map[int64]bool, len(msgs))
	next := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if err := Validate(m.Author, m.Content); err != nil {
			return err
		}
		if m.ID == 0 || seen[m.ID] {
			return fmt.Errorf("%w: duplicate or missing message id %d", ErrValidation, m.ID)
		}
		seen[m.ID] = true
		b.ids.Observe(m.ID)
		next = append(next, models.Message{
			ID:      m.ID,
			Author:  strings.TrimSpace(m.Author),
			Content: strings.TrimSpace(m.Content),
		})
	}

	b.mu.Lock()
	err := b.commitLocked(ctx, next)
	b.mu.Unlock()
	if err != nil {
		return err
	}

	b.notify(OpReplace)
	return nil
}

func (b *Board) indexLocked(id int64) int {
	for i := range b.messages {
		if b.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) commitLocked(ctx context.Context, next []models.Message) error {
	if err := b.write(ctx, next); err != nil {
		return err
	}
	b.messages = next
	return nil
}

func (b *Board) write(ctx context.Context, msgs []models.Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	if err := b.kv.Set(ctx, storage.MessagesKey, data); err != nil {
		return fmt.Errorf("persist messages: %w", err)
	}
	return nil
}

func (b *Board) notify(op string) {
	b.mu.Lock()
	listeners := append([]func(string){}, b.onChange...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(op)
	}
}

func cloneMessages(in []models.Message) []models.Message {
	if in == nil {
		return []models.Message{}
	}
	out := make([]models.Message, len(in))
	copy(out, in)
	return out
}

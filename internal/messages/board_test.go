package messages

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"birthday-app/internal/ids"
	"birthday-app/internal/models"
	"birthday-app/internal/storage"
)

var seed = []models.Message{
	{ID: 1, Author: "Mom", Content: "Happy birthday sweetie!"},
	{ID: 2, Author: "Alex", Content: "HBD!"},
}

func stored(t *testing.T, kv storage.KV) []models.Message {
	t.Helper()
	raw, err := kv.Get(context.Background(), storage.MessagesKey)
	require.NoError(t, err)
	var out []models.Message
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func loadedBoard(t *testing.T, kv storage.KV, seed []models.Message) *Board {
	t.Helper()
	b := NewBoard(kv, ids.NewGenerator(), nil)
	require.NoError(t, b.Load(context.Background(), seed))
	return b
}

func TestLoadSeedsOnFirstRun(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, seed)

	require.Equal(t, seed, b.List())
	require.Equal(t, seed, stored(t, kv))
}

func TestLoadPrefersStoredList(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), storage.MessagesKey, []byte(`[]`)))

	b := loadedBoard(t, kv, seed)
	require.Empty(t, b.List())
}

func TestLoadFallsBackOnCorruptValue(t *testing.T) {
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Set(context.Background(), storage.MessagesKey, []byte(`oops`)))

	b := loadedBoard(t, kv, seed)
	require.Equal(t, seed, b.List())
}

func TestPostMessage(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, seed)
	before := len(stored(t, kv))

	msg, err := b.PostMessage(context.Background(), "  Sam ", " Have a great one! ")
	require.NoError(t, err)
	require.Equal(t, "Sam", msg.Author)
	require.Equal(t, "Have a great one!", msg.Content)

	after := stored(t, kv)
	require.Len(t, after, before+1)
	require.Equal(t, msg, after[len(after)-1])

	for _, m := range seed {
		require.NotEqual(t, m.ID, msg.ID)
	}
}

func TestPostMessageValidation(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, nil)
	ctx := context.Background()

	cases := []struct{ author, content string }{
		{"", "hi"},
		{"Sam", ""},
		{"   ", "hi"},
		{"Sam", "\n\t"},
		{strings.Repeat("a", models.MaxAuthorLength+1), "hi"},
		{"Sam", strings.Repeat("b", models.MaxContentLength+1)},
	}
	for _, c := range cases {
		_, err := b.PostMessage(ctx, c.author, c.content)
		require.ErrorIs(t, err, ErrValidation)
	}
	require.Empty(t, b.List())
	_, err := kv.Get(ctx, storage.MessagesKey)
	require.ErrorIs(t, err, storage.ErrNotFound)

	// limits are inclusive and counted in characters, not bytes
	_, err = b.PostMessage(ctx, strings.Repeat("é", models.MaxAuthorLength), strings.Repeat("ü", models.MaxContentLength))
	require.NoError(t, err)
}

func TestRapidPostsGetUniqueIDs(t *testing.T) {
	b := loadedBoard(t, storage.NewMemoryKV(), nil)
	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		m, err := b.PostMessage(context.Background(), "Sam", "hi")
		require.NoError(t, err)
		require.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestDeleteMessage(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, seed)

	require.NoError(t, b.DeleteMessage(context.Background(), 1))
	require.Equal(t, seed[1:], b.List())
	require.Equal(t, seed[1:], stored(t, kv))

	require.ErrorIs(t, b.DeleteMessage(context.Background(), 1), ErrMessageNotFound)
}

func TestDeleteAllRemovesKey(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, seed)

	require.NoError(t, b.DeleteAllMessages(context.Background()))
	require.Empty(t, b.List())
	_, err := kv.Get(context.Background(), storage.MessagesKey)
	require.ErrorIs(t, err, storage.ErrNotFound)

	reloaded := loadedBoard(t, kv, nil)
	require.Empty(t, reloaded.List())
}

func TestMessagesRoundTrip(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, seed)
	_, err := b.PostMessage(context.Background(), "Sam", "hi")
	require.NoError(t, err)
	require.NoError(t, b.DeleteMessage(context.Background(), 2))
	snapshot := b.List()

	reloaded := loadedBoard(t, kv, seed)
	require.Equal(t, snapshot, reloaded.List())
}

func TestReplaceMessages(t *testing.T) {
	kv := storage.NewMemoryKV()
	b := loadedBoard(t, kv, seed)

	require.ErrorIs(t, b.Replace(context.Background(), []models.Message{{ID: 3, Author: "", Content: "x"}}), ErrValidation)
	require.ErrorIs(t, b.Replace(context.Background(), []models.Message{{ID: 3, Author: "a", Content: "x"}, {ID: 3, Author: "b", Content: "y"}}), ErrValidation)

	in := []models.Message{{ID: 9, Author: "Zed", Content: "Yo"}}
	require.NoError(t, b.Replace(context.Background(), in))
	require.Equal(t, in, b.List())
	require.Equal(t, in, stored(t, kv))
}

func TestOnChange(t *testing.T) {
	b := loadedBoard(t, storage.NewMemoryKV(), seed)
	var ops []string
	b.OnChange(func(op string) { ops = append(ops, op) })

	ctx := context.Background()
	_, _ = b.PostMessage(ctx, "a", "b")
	_, _ = b.PostMessage(ctx, "", "b")
	_ = b.DeleteMessage(ctx, 1)
	_ = b.DeleteAllMessages(ctx)
	require.Equal(t, []string{OpPost, OpDelete, OpDeleteAll}, ops)
}

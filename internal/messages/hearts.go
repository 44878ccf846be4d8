package messages

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// HeartTTL is how long a heart burst stays on screen.
const HeartTTL = 1500 * time.Millisecond

// Heart is a short-lived reaction floating above a message. Never persisted.
type Heart struct {
	ID        int64     `json:"id"`
	MessageID int64     `json:"messageId"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Hearts tracks the heart markers currently floating over messages.
type Hearts struct {
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	nextID int64
	active map[int64]Heart
}

// NewHearts creates an empty set. nil rng and now use the real ones.
func NewHearts(rng *rand.Rand, now func() time.Time) *Hearts {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Hearts{
		rng:    rng,
		now:    now,
		active: make(map[int64]Heart),
	}
}

// Burst creates a heart offset x in [-20, 20) and y in [-30, -10).
func (h *Hearts) Burst(messageID int64) Heart {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	heart := Heart{
		ID:        h.nextID,
		MessageID: messageID,
		X:         h.rng.Float64()*40 - 20,
		Y:         -h.rng.Float64()*20 - 10,
		ExpiresAt: h.now().Add(HeartTTL),
	}
	h.active[heart.ID] = heart
	return heart
}

// Active lists the hearts that haven't expired yet, oldest first.
func (h *Hearts) Active() []Heart {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	out := make([]Heart, 0, len(h.active))
	for _, heart := range h.active {
		if heart.ExpiresAt.After(now) {
			out = append(out, heart)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sweep drops expired hearts and reports how many went.
func (h *Hearts) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	n := 0
	for id, heart := range h.active {
		if !heart.ExpiresAt.After(now) {
			delete(h.active, id)
			n++
		}
	}
	return n
}

// Run sweeps on every tick until ctx is cancelled.
func (h *Hearts) Run(ctx context.Context, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// HeartBurst attaches a heart to an existing message.
func (b *Board) HeartBurst(hearts *Hearts, messageID int64) (Heart, error) {
	if _, err := b.Get(messageID); err != nil {
		return Heart{}, err
	}
	return hearts.Burst(messageID), nil
}

package celebration

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

const (
	// CelebrateConfetti is how long confetti rains after a celebrate trigger.
	CelebrateConfetti = 4 * time.Second
	// WelcomeConfetti is how long confetti rains when the page opens.
	WelcomeConfetti = 8 * time.Second
	// BlastDuration is how long a paper blast animates; no new blast starts
	// before it ends.
	BlastDuration = 3 * time.Second
)

var ErrBlastInProgress = errors.New("paper blast already running")

// Celebration is one confetti shower plus, when none was running, a paper
// blast.
type Celebration struct {
	Confetti      []ConfettiPiece `json:"confetti"`
	ConfettiUntil time.Time       `json:"confettiUntil"`
	Blast         []PaperPiece    `json:"blast,omitempty"`
	BlastUntil    time.Time       `json:"blastUntil"`
}

// Coordinator owns the effect state and tells listeners when to play.
type Coordinator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	now        func() time.Time
	blastUntil time.Time
	listeners  []func(Celebration)
}

// NewCoordinator creates a coordinator. nil rng and now use the real ones.
func NewCoordinator(rng *rand.Rand, now func() time.Time) *Coordinator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Coordinator{rng: rng, now: now}
}

// OnCelebrate registers a listener for Celebrate.
func (c *Coordinator) OnCelebrate(fn func(Celebration)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Welcome returns the confetti shown when the page loads.
func (c *Coordinator) Welcome() Celebration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Celebration{
		Confetti:      Confetti(c.rng),
		ConfettiUntil: c.now().Add(WelcomeConfetti),
	}
}

// Confetti returns a fresh confetti layout.
func (c *Coordinator) Confetti() []ConfettiPiece {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Confetti(c.rng)
}

// Blast starts a paper blast unless one is still animating.
func (c *Coordinator) Blast() ([]PaperPiece, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blastLocked()
}

func (c *Coordinator) blastLocked() ([]PaperPiece, time.Time, error) {
	now := c.now()
	if now.Before(c.blastUntil) {
		return nil, c.blastUntil, ErrBlastInProgress
	}
	c.blastUntil = now.Add(BlastDuration)
	return PaperBlast(c.rng), c.blastUntil, nil
}

// Celebrate fires confetti and a paper blast together and notifies every
// listener directly.
func (c *Coordinator) Celebrate() Celebration {
	c.mu.Lock()
	cel := Celebration{
		Confetti:      Confetti(c.rng),
		ConfettiUntil: c.now().Add(CelebrateConfetti),
	}
	if blast, until, err := c.blastLocked(); err == nil {
		cel.Blast = blast
		cel.BlastUntil = until
	}
	listeners := append([]func(Celebration){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(cel)
	}
	return cel
}

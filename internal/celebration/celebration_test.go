package celebration

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCountdown(t *testing.T) {
	target := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)

	left := Countdown(target.Add(-(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 600*time.Millisecond)), target)
	require.Equal(t, TimeLeft{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, left)

	require.Equal(t, TimeLeft{IsPast: true}, Countdown(target, target))
	require.Equal(t, TimeLeft{IsPast: true}, Countdown(target.Add(time.Hour), target))
	require.Equal(t, TimeLeft{Seconds: 0}, Countdown(target.Add(-time.Millisecond), target))
}

func TestConfettiRanges(t *testing.T) {
	pieces := Confetti(rand.New(rand.NewSource(42)))
	require.Len(t, pieces, ConfettiCount)
	for i, p := range pieces {
		require.Equal(t, i, p.ID)
		require.Equal(t, -20.0, p.Y)
		require.True(t, p.X >= 0 && p.X < 100)
		require.True(t, p.Delay >= 0 && p.Delay < 5)
		require.True(t, p.Rotation >= 0 && p.Rotation < 360)
		require.True(t, p.Size >= 0.4 && p.Size < 1.2)
		require.True(t, p.Duration >= 3 && p.Duration < 7)
		require.Contains(t, confettiTypes, p.Type)
	}
}

func TestPaperBlastRanges(t *testing.T) {
	pieces := PaperBlast(rand.New(rand.NewSource(7)))
	require.Len(t, pieces, PaperCount)
	for _, p := range pieces {
		require.Equal(t, 50.0, p.X)
		require.Equal(t, 50.0, p.Y)
		require.True(t, p.Size >= 0.5 && p.Size < 1.5)
		require.Contains(t, paperColors, p.Color)
	}
}

func TestBlastIsRejectedWhileAnimating(t *testing.T) {
	now := time.Unix(1_000, 0)
	c := NewCoordinator(rand.New(rand.NewSource(1)), func() time.Time { return now })

	pieces, until, err := c.Blast()
	require.NoError(t, err)
	require.Len(t, pieces, PaperCount)
	require.Equal(t, now.Add(BlastDuration), until)

	now = now.Add(time.Second)
	_, _, err = c.Blast()
	require.ErrorIs(t, err, ErrBlastInProgress)

	now = now.Add(BlastDuration)
	_, _, err = c.Blast()
	require.NoError(t, err)
}

func TestCelebrateNotifiesListeners(t *testing.T) {
	now := time.Unix(1_000, 0)
	c := NewCoordinator(rand.New(rand.NewSource(1)), func() time.Time { return now })

	var got []Celebration
	c.OnCelebrate(func(cel Celebration) { got = append(got, cel) })

	first := c.Celebrate()
	require.Len(t, first.Confetti, ConfettiCount)
	require.Len(t, first.Blast, PaperCount)
	require.Equal(t, now.Add(CelebrateConfetti), first.ConfettiUntil)

	// a second trigger inside the blast window still rains confetti
	second := c.Celebrate()
	require.Len(t, second.Confetti, ConfettiCount)
	require.Empty(t, second.Blast)

	require.Len(t, got, 2)
}

func TestWelcome(t *testing.T) {
	now := time.Unix(1_000, 0)
	c := NewCoordinator(nil, func() time.Time { return now })
	w := c.Welcome()
	require.Len(t, w.Confetti, ConfettiCount)
	require.Equal(t, now.Add(WelcomeConfetti), w.ConfettiUntil)
	require.Empty(t, w.Blast)
}

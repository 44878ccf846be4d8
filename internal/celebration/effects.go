package celebration

import "math/rand"

const (
	ConfettiCount = 100
	PaperCount    = 30
)

var (
	confettiTypes = []string{"confetti-gold", "confetti-purple", "confetti-pink"}
	paperColors   = []string{
		"bg-birthday-purple",
		"bg-birthday-pink",
		"bg-birthday-gold",
		"bg-white",
		"bg-birthday-light",
	}
)

// ConfettiPiece starts above the viewport at X percent and falls.
type ConfettiPiece struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Type     string  `json:"type"`
	Delay    float64 `json:"delay"`
	Rotation float64 `json:"rotation"`
	Size     float64 `json:"size"`
	Duration float64 `json:"duration"`
}

// PaperPiece bursts out from the centre of the screen.
type PaperPiece struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
}

// Confetti lays out one shower of ConfettiCount pieces.
func Confetti(rng *rand.Rand) []ConfettiPiece {
	pieces := make([]ConfettiPiece, ConfettiCount)
	for i := range pieces {
		pieces[i] = ConfettiPiece{
			ID:       i,
			X:        rng.Float64() * 100,
			Y:        -20,
			Type:     confettiTypes[rng.Intn(len(confettiTypes))],
			Delay:    rng.Float64() * 5,
			Rotation: rng.Float64() * 360,
			Size:     rng.Float64()*0.8 + 0.4,
			Duration: 3 + rng.Float64()*4,
		}
	}
	return pieces
}

// PaperBlast lays out PaperCount pieces bursting from the centre.
func PaperBlast(rng *rand.Rand) []PaperPiece {
	pieces := make([]PaperPiece, PaperCount)
	for i := range pieces {
		pieces[i] = PaperPiece{
			ID:       i,
			X:        50,
			Y:        50,
			Rotation: rng.Float64() * 360,
			Size:     rng.Float64() + 0.5,
			Color:    paperColors[rng.Intn(len(paperColors))],
		}
	}
	return pieces
}

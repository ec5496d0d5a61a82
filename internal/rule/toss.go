package rule

import "math/rand"

// Resolution of a toss, probabilities are compared in steps of 1/tossRange
const tossRange = 100000

// Tosser is the single random source of a process. It is seeded once and
// shared by every probabilistic decision; it is not safe for concurrent use.
type Tosser struct {
	rng *rand.Rand
}

func NewTosser(seed int64) *Tosser {
	return &Tosser{rng: rand.New(rand.NewSource(seed))}
}

// Toss returns true with probability p. Probabilities above 1 are certain.
func (t *Tosser) Toss(p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	r := float64(t.rng.Intn(tossRange)+1) / tossRange
	return r < p
}

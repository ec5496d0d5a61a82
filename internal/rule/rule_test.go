package rule

import (
	"testing"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
)

const X = grid.OutOfBounds

func cell(state grid.State, neighbors ...grid.State) *grid.Cell {
	c := &grid.Cell{State: state, Color: int(state)}
	for i := range c.Neighbors {
		c.Neighbors[i] = X
	}
	copy(c.Neighbors[:], neighbors)
	return c
}

func TestBurningAlwaysBurnsOut(t *testing.T) {
	for _, p := range []float64{0, 0.5, 1} {
		fire := NewForestFire(p, p, NewTosser(1))
		for trial := 0; trial != 100; trial++ {
			c := cell(grid.Burning, grid.Fuel, grid.Burning, grid.Fuel)
			fire.Apply(c)
			if c.State != grid.Empty {
				t.Fatalf("p=%v: burning cell became %d", p, c.State)
			}
		}
	}
}

func TestContactIgnitionBeatsZeroProbability(t *testing.T) {
	fire := NewForestFire(0, 0, NewTosser(1))
	for _, d := range grid.Directions {
		c := cell(grid.Fuel)
		c.Neighbors[d] = grid.Burning
		fire.Apply(c)
		if c.State != grid.Burning || c.Color != 2 {
			t.Fatalf("fuel next to fire at %v stayed %d", d, c.State)
		}
	}
}

func TestFuelWithoutFireOrChanceStays(t *testing.T) {
	fire := NewForestFire(0, 0, NewTosser(1))
	c := cell(grid.Fuel, grid.Fuel, grid.Empty, X, X, grid.Fuel)
	fire.Apply(c)
	if c.State != grid.Fuel {
		t.Fatalf("fuel changed to %d", c.State)
	}
}

func TestCertainIgnition(t *testing.T) {
	fire := NewForestFire(1, 0, NewTosser(1))
	c := cell(grid.Fuel)
	fire.Apply(c)
	if c.State != grid.Burning {
		t.Fatalf("fuel with ignition 1 became %d", c.State)
	}
}

// Growth probability above 1 saturates to certain growth
func TestGrowthClampsToCertain(t *testing.T) {
	fire := NewForestFire(0, 0.5, NewTosser(7))
	for trial := 0; trial != 1000; trial++ {
		c := cell(grid.Empty, grid.Fuel, grid.Fuel)
		fire.Apply(c)
		if c.State != grid.Fuel {
			t.Fatalf("trial %d: growth 0.5*(2+1) did not grow", trial)
		}
	}
}

func TestNoGrowthAtZero(t *testing.T) {
	fire := NewForestFire(0, 0, NewTosser(7))
	c := cell(grid.Empty, grid.Fuel, grid.Fuel, grid.Fuel, grid.Fuel, grid.Fuel, grid.Fuel, grid.Fuel, grid.Fuel)
	fire.Apply(c)
	if c.State != grid.Empty {
		t.Fatalf("empty cell grew with growth 0")
	}
}

func TestTossFrequency(t *testing.T) {
	tosser := NewTosser(42)
	hits := 0
	const trials = 100000
	for i := 0; i != trials; i++ {
		if tosser.Toss(0.3) {
			hits++
		}
	}
	if ratio := float64(hits) / trials; ratio < 0.28 || ratio > 0.32 {
		t.Fatalf("toss(0.3) hit ratio %v", ratio)
	}
}

func TestConway(t *testing.T) {
	life := NewConway(2, 3, 3)
	A, D := grid.Alive, grid.Dead
	tests := []struct {
		name  string
		state grid.State
		alive int
		want  grid.State
	}{
		{"lonely dies", A, 1, D},
		{"two survives", A, 2, A},
		{"three survives", A, 3, A},
		{"crowded dies", A, 4, D},
		{"birth", D, 3, A},
		{"no birth with two", D, 2, D},
		{"no birth with four", D, 4, D},
	}
	for _, test := range tests {
		c := cell(test.state)
		for k := 0; k != test.alive; k++ {
			c.Neighbors[k] = A
		}
		life.Apply(c)
		if c.State != test.want {
			t.Errorf("%s: got %d, want %d", test.name, c.State, test.want)
		}
	}
}

func TestSentinelIsNotAlive(t *testing.T) {
	life := NewConway(2, 3, 3)
	c := cell(grid.Dead, X, X, X)
	life.Apply(c)
	if c.State != grid.Dead {
		t.Fatal("sentinels counted as live neighbors")
	}
}

func TestApplyLeavesNeighborsUntouched(t *testing.T) {
	fire := NewForestFire(0.5, 0.5, NewTosser(3))
	c := cell(grid.Fuel, grid.Burning, grid.Fuel, grid.Empty, X)
	before := c.Neighbors
	fire.Apply(c)
	if c.Neighbors != before {
		t.Fatalf("neighbors changed: %v -> %v", before, c.Neighbors)
	}
}

func TestNew(t *testing.T) {
	r, err := New(KindConway, map[string]float64{ParamBirth: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if life := r.(*Conway); life.Under != 2 || life.Over != 3 || life.Birth != 4 {
		t.Fatalf("unexpected thresholds %+v", life)
	}
	if _, err := New(KindForestFire, nil, nil); err == nil {
		t.Error("forest fire without random source accepted")
	}
	if _, err := New("lava", nil, NewTosser(1)); err == nil {
		t.Error("unknown rule accepted")
	}
}

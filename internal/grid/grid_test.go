package grid

import "testing"

func TestDirectionOffsets(t *testing.T) {
	expected := [8][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
	for i, d := range Directions {
		if int(d) != i {
			t.Fatalf("direction %v stored at index %d", d, i)
		}
		if d.DX() != expected[i][0] || d.DY() != expected[i][1] {
			t.Errorf("%v: got offset (%d,%d), want (%d,%d)", d, d.DX(), d.DY(), expected[i][0], expected[i][1])
		}
	}
}

func TestBandSnapshotOnlyChangesOnSync(t *testing.T) {
	band := NewBand([]State{Fuel, Empty, Burning})
	band.Cell(0).State = Burning
	band.Cell(2).State = Empty

	if band.Get(0) != Fuel || band.Get(2) != Burning {
		t.Fatalf("snapshot changed before sync: %v", band.States())
	}
	band.Sync()
	got := band.Ints()
	want := []int{2, 0, 0}
	for j := range want {
		if got[j] != want[j] {
			t.Fatalf("after sync got %v, want %v", got, want)
		}
	}
}

func TestNeighborhoodCount(t *testing.T) {
	n := Neighborhood{Fuel, Fuel, OutOfBounds, Burning, Empty, Fuel, OutOfBounds, OutOfBounds}
	if c := n.Count(Fuel); c != 3 {
		t.Errorf("fuel count = %d, want 3", c)
	}
	if !n.Any(Burning) {
		t.Error("expected a burning neighbor")
	}
	if n.Any(State(7)) {
		t.Error("unexpected state 7")
	}
}

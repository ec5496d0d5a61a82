package partition

// NoRank marks a missing vertical neighbor, or an empty row range
const NoRank = -1

// Partition is the immutable row range a rank owns for the lifetime of a run
type Partition struct {
	Rank   int
	Start  int // First owned row
	End    int // Last owned row (not inclusive)
	Top    int // Rank owning the row above Start, or NoRank
	Bottom int // Rank owning the row below End, or NoRank
}

// Number of ranks that own at least one row
func Workers(rank_count, height int) int {
	return min(rank_count, height)
}

// Divide rows into contiguous bands, earlier ranks take the remainder rows
func Bounds(rank_count, rank, height int) (start, end int) {
	workers := Workers(rank_count, height)
	if workers < rank+1 {
		return NoRank, NoRank
	}
	base := height / workers
	remainder := height % workers
	start = rank*base + min(rank, remainder)
	end = start + base
	if remainder > rank {
		end++
	}
	return start, end
}

// Compute the partition record of a rank
func New(rank_count, rank, height int) Partition {
	start, end := Bounds(rank_count, rank, height)
	p := Partition{Rank: rank, Start: start, End: end, Top: NoRank, Bottom: NoRank}
	if start == NoRank {
		// Ranks without rows neither send nor receive halos
		return p
	}
	if rank > 0 {
		p.Top = rank - 1
	}
	if bottom := rank + 1; bottom != rank_count && bottom != height {
		p.Bottom = bottom
	}
	return p
}

// Compute the partitions of every rank
func All(rank_count, height int) []Partition {
	partitions := make([]Partition, rank_count)
	for rank := 0; rank != rank_count; rank++ {
		partitions[rank] = New(rank_count, rank, height)
	}
	return partitions
}

// Number of owned rows
func (p Partition) Rows() int {
	if p.Start == NoRank {
		return 0
	}
	return p.End - p.Start
}

// Whether the rank owns no rows
func (p Partition) Empty() bool {
	return p.Rows() == 0
}

// Rank owning global row y
func Owner(rank_count, height, y int) int {
	for rank := 0; rank != Workers(rank_count, height); rank++ {
		start, end := Bounds(rank_count, rank, height)
		if start <= y && y < end {
			return rank
		}
	}
	return NoRank
}

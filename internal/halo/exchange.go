package halo

import (
	"fmt"

	"github.com/jrgoulet/cellular-automata-sim/internal/grid"
	"github.com/jrgoulet/cellular-automata-sim/internal/partition"
	"github.com/jrgoulet/cellular-automata-sim/internal/transport"
)

// Halo holds the foreign boundary rows imported for one generation. A nil
// band means there is no neighbor in that direction, which is different
// from an imported row. A Halo must not outlive the generation it was
// exchanged for.
type Halo struct {
	Top    *grid.Band
	Bottom *grid.Band
}

// Exchanger transfers boundary rows between vertically adjacent ranks
type Exchanger struct {
	ch    transport.Channel
	part  partition.Partition
	width int
}

func NewExchanger(ch transport.Channel, part partition.Partition, width int) *Exchanger {
	return &Exchanger{ch: ch, part: part, width: width}
}

// Exchange sends the topmost owned band up and the bottommost owned band
// down without waiting, then blocks until one row from each existing
// neighbor has arrived.
func (ex *Exchanger) Exchange(top, bottom *grid.Band) (Halo, error) {
	var h Halo
	if ex.part.Empty() {
		return h, nil
	}

	if ex.part.Top != partition.NoRank {
		if err := ex.ch.Send(ex.part.Top, top.Ints(), transport.TagHalo); err != nil {
			return h, fmt.Errorf("send top row to rank %d: %w", ex.part.Top, err)
		}
	}
	if ex.part.Bottom != partition.NoRank {
		if err := ex.ch.Send(ex.part.Bottom, bottom.Ints(), transport.TagHalo); err != nil {
			return h, fmt.Errorf("send bottom row to rank %d: %w", ex.part.Bottom, err)
		}
	}

	if ex.part.Top != partition.NoRank {
		row, err := ex.ch.Recv(ex.part.Top, ex.width, transport.TagHalo)
		if err != nil {
			return h, fmt.Errorf("receive top halo from rank %d: %w", ex.part.Top, err)
		}
		h.Top = grid.BandFromInts(row)
	}
	if ex.part.Bottom != partition.NoRank {
		row, err := ex.ch.Recv(ex.part.Bottom, ex.width, transport.TagHalo)
		if err != nil {
			return h, fmt.Errorf("receive bottom halo from rank %d: %w", ex.part.Bottom, err)
		}
		h.Bottom = grid.BandFromInts(row)
	}
	return h, nil
}

package transport

// Local is an in-process endpoint. All endpoints created by one NewLocal call
// form a full mesh; a send is a copy into the target's mailbox.
type Local struct {
	rank  int
	boxes []*mailbox
}

// Create size connected endpoints, endpoint i has rank i
func NewLocal(size int) []*Local {
	boxes := make([]*mailbox, size)
	for i := range boxes {
		boxes[i] = newMailbox()
	}
	endpoints := make([]*Local, size)
	for i := range endpoints {
		endpoints[i] = &Local{rank: i, boxes: boxes}
	}
	return endpoints
}

func (local *Local) Rank() int { return local.rank }

func (local *Local) Size() int { return len(local.boxes) }

func (local *Local) Send(target int, payload []int, tag Tag) error {
	if err := checkRank(local, target); err != nil {
		return err
	}
	if err := local.boxes[local.rank].failure(); err != nil {
		return err
	}
	copied := make([]int, len(payload))
	copy(copied, payload)
	local.boxes[target].put(local.rank, tag, copied)
	return nil
}

func (local *Local) Recv(source int, length int, tag Tag) ([]int, error) {
	if err := checkRank(local, source); err != nil {
		return nil, err
	}
	return local.boxes[local.rank].take(source, tag, length)
}

// Close fails pending and later receives of this endpoint
func (local *Local) Close() error {
	local.boxes[local.rank].fail(ErrClosed)
	return nil
}

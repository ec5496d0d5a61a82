package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Upper bound on ints per frame, rejects garbage lengths from a corrupt stream
var maxFrameValues = 1 << 24

// ErrFrameTooLarge is returned for a payload the receiving side would reject
var ErrFrameTooLarge = errors.New("transport: frame too large")

func checkFrameSize(count int) error {
	if count > maxFrameValues {
		return fmt.Errorf("%w: %d values, limit %d", ErrFrameTooLarge, count, maxFrameValues)
	}
	return nil
}

type frame struct {
	tag     Tag
	source  int
	payload []int
}

// Get the minimum number of bytes to represent every value as a signed integer
func getSizeOfInt(values []int) int {
	size_int := 1
	for largest := 0x7F; ; largest = (largest << 8) | 0xFF {
		fits := true
		for _, v := range values {
			if v > largest || v < -largest-1 {
				fits = false
				break
			}
		}
		if fits || size_int == 8 {
			return size_int
		}
		size_int++
	}
}

// Write one frame: tag, source, value count, value width, packed values
func writeFrame(w *bufio.Writer, f frame) error {
	if err := checkFrameSize(len(f.payload)); err != nil {
		return err
	}
	size_int := getSizeOfInt(f.payload)

	var header [1 + 8 + 8 + 1]byte
	header[0] = byte(f.tag)
	binary.PutVarint(header[1:9], int64(f.source))
	binary.PutVarint(header[9:17], int64(len(f.payload)))
	header[17] = byte(size_int)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	data := make([]byte, len(f.payload)*size_int)
	view := data[:]
	for _, v := range f.payload {
		for j := 0; j != size_int; j++ {
			view[0] = byte(v >> (j << 3))
			view = view[1:]
		}
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}

// Read one frame written by writeFrame
func readFrame(r *bufio.Reader) (frame, error) {
	var header [1 + 8 + 8 + 1]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, err
	}
	source, _ := binary.Varint(header[1:9])
	count, _ := binary.Varint(header[9:17])
	size_int := int(header[17])
	if count < 0 || count > int64(maxFrameValues) {
		return frame{}, fmt.Errorf("transport: malformed frame length %d", count)
	}
	if size_int < 1 || size_int > 8 {
		return frame{}, fmt.Errorf("transport: malformed value width %d", size_int)
	}

	data := make([]byte, int(count)*size_int)
	if _, err := io.ReadFull(r, data); err != nil {
		return frame{}, err
	}
	payload := make([]int, count)
	for i := range payload {
		var v uint64
		for j := 0; j != size_int; j++ {
			v |= uint64(data[i*size_int+j]) << (j << 3)
		}
		// Sign extend from size_int bytes
		shift := uint(64 - size_int*8)
		payload[i] = int(int64(v<<shift) >> shift)
	}
	return frame{tag: Tag(header[0]), source: int(source), payload: payload}, nil
}

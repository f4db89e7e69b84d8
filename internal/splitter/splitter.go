// Package splitter implements the zero-padding heuristic that partitions
// section 0's body into an uncompressed prologue and a sequence of LZSS
// sub-blocks, in the absence of any sub-section length field in the
// container itself.
package splitter

// Alignment is the byte boundary sub-sections start (and the preceding
// zero run must end) on.
const Alignment = 2048

// MinZeroRun is the length a zero-byte run, ending on an Alignment
// boundary, must exceed for the heuristic to accept it as a sub-section
// boundary.
const MinZeroRun = 16

// SubSection is one partition of section 0's body.
type SubSection struct {
	Offset     int
	Body       []byte
	Compressed bool
}

// Split partitions body into sub-sections using the zero-padding
// heuristic: every run of zero bytes longer than MinZeroRun that ends
// exactly on an Alignment-byte offset marks the start of the next
// sub-section. By the container's convention, sub-section 0 is
// uncompressed and all following sub-sections are compressed.
//
// This heuristic is known to misidentify boundaries when a real
// sub-section happens to end within +/-16 bytes of a 2048-byte boundary
// without enough trailing zeros — Split cannot distinguish that case from
// a genuine boundary, since the container records no sub-section lengths
// anywhere.
func Split(body []byte) []SubSection {
	boundaries := findBoundaries(body)

	subs := make([]SubSection, 0, len(boundaries)+1)
	start := 0
	for i, b := range boundaries {
		subs = append(subs, SubSection{
			Offset:     start,
			Body:       body[start:b],
			Compressed: i > 0,
		})
		start = b
	}
	if start < len(body) || len(subs) == 0 {
		subs = append(subs, SubSection{
			Offset:     start,
			Body:       body[start:],
			Compressed: len(subs) > 0,
		})
	}
	return subs
}

// findBoundaries returns the aligned offsets, in ascending order, where a
// zero run of length > MinZeroRun ends.
func findBoundaries(body []byte) []int {
	var boundaries []int
	runStart := -1
	for i := 0; i <= len(body); i++ {
		isZero := i < len(body) && body[i] == 0
		if isZero {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			runLen := i - runStart
			if runLen > MinZeroRun && i%Alignment == 0 && i > 0 {
				boundaries = append(boundaries, i)
			}
			runStart = -1
		}
	}
	return boundaries
}

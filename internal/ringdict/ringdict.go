// Package ringdict implements the 4096-byte cyclic dictionary shared by the
// LZSS encoder and decoder. Both sides replay the same sequence of appends,
// so a dictionary built purely from decoded/encoded output always agrees
// between encode and decode at every byte position.
package ringdict

// Size is the fixed capacity of the dictionary, dictated by the 12-bit
// back-reference index in the wire format.
const Size = 4096

// MinMatch and MaxMatch bound the length of a back-reference the codec
// will ever emit or accept.
const (
	MinMatch = 3
	MaxMatch = 18
)

// InitialWriteIndex is the write cursor position both encoder and decoder
// start from. The -18 offset has no known derivation beyond "required to
// match existing firmware streams" (it may correspond to an 18-byte header
// that precedes each compressed block in some other tool's internal state
// but is never actually present on the wire here); it biases the 12-bit
// index space so the smallest indices address the freshest bytes.
const InitialWriteIndex = Size - MaxMatch

// Dictionary is a fixed-size cyclic buffer of the most recently produced
// output bytes. It is the encoder's search corpus and the decoder's copy
// source, and is never shared between separate Decode/Encode calls.
type Dictionary struct {
	buf       [Size]byte
	writeIdx  int
	fillLevel int
}

// New returns a dictionary with the write cursor and fill level the codec
// requires at the start of every stream.
func New() *Dictionary {
	return &Dictionary{writeIdx: InitialWriteIndex}
}

// WriteIndex returns the current write cursor (0..Size-1).
func (d *Dictionary) WriteIndex() int { return d.writeIdx }

// FillLevel returns how many of the Size slots have ever been written.
func (d *Dictionary) FillLevel() int { return d.fillLevel }

// Append writes b at the write cursor and advances it by one, modulo Size.
func (d *Dictionary) Append(b byte) {
	d.buf[d.writeIdx] = b
	d.writeIdx = (d.writeIdx + 1) % Size
	if d.fillLevel < Size {
		d.fillLevel++
	}
}

// ReadAt returns the byte at logical index i (taken mod Size), honoring the
// pre-fill-level wrap rule: before Size writes have happened, indices are
// folded into the populated suffix [writeIdx-fillLevel, writeIdx) instead of
// reading genuinely uninitialized slots. This reproduces the exact byte
// sequence real firmware streams decode to when an early back-reference
// reaches into positions the dictionary hasn't written yet.
func (d *Dictionary) ReadAt(i int) byte {
	i = ((i % Size) + Size) % Size
	if d.fillLevel >= Size {
		return d.buf[i]
	}
	shift := ((d.writeIdx-d.fillLevel)%Size + Size) % Size
	effective := (((i-shift)%Size+Size)%Size)%d.fillLevel + shift
	return d.buf[effective%Size]
}

// CopyRun copies length bytes starting at index (mod Size) into the
// dictionary and returns them, one byte at a time, so that a reference
// overlapping its own source (index + k lands on a byte this same call
// just appended) produces the correct run-length expansion.
func (d *Dictionary) CopyRun(index, length int) []byte {
	out := make([]byte, length)
	for k := 0; k < length; k++ {
		b := d.ReadAt(index + k)
		out[k] = b
		d.Append(b)
	}
	return out
}

// FindLongest searches the dictionary for the longest prefix of lookahead
// (up to maxLen bytes) present anywhere in the populated region, scanning
// from the second most recently written byte backwards so that ties favor the
// most recent (i.e. smallest-distance) match. It returns (0, -1) if no
// match of at least MinMatch bytes exists.
//
// A match may extend past the write cursor: positions at or beyond it
// hold the bytes a decoder's copy will itself have written by the time it
// reads them (run-length expansion), which are the lookahead bytes already
// matched. Without this a repeating input would never compress beyond its
// first period.
func (d *Dictionary) FindLongest(lookahead []byte, maxLen int) (length, index int) {
	if maxLen > MaxMatch {
		maxLen = MaxMatch
	}
	if maxLen > len(lookahead) {
		maxLen = len(lookahead)
	}
	if d.fillLevel < MinMatch || maxLen < MinMatch {
		return 0, -1
	}

	bestLen := 0
	bestStart := -1

	oldest := d.writeIdx - d.fillLevel
	// Scan backwards from writeIdx-2 (skip the freshest slot, the encoder
	// never starts a match against it) through the oldest live byte.
	for start := d.writeIdx - 2; start >= oldest; start-- {
		matchLen := 0
		for matchLen < maxLen {
			p := start + matchLen
			var b byte
			if p < d.writeIdx {
				b = d.ReadAt(p)
			} else {
				b = lookahead[p-d.writeIdx]
			}
			if b != lookahead[matchLen] {
				break
			}
			matchLen++
		}
		if matchLen > bestLen {
			bestLen = matchLen
			bestStart = ((start % Size) + Size) % Size
			if bestLen == maxLen {
				break
			}
		}
	}

	if bestLen < MinMatch {
		return 0, -1
	}
	return bestLen, bestStart
}

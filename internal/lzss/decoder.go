package lzss

import "github.com/go-firmware/yi1fw/internal/ringdict"

// Decode decompresses in, which must be a sequence of LZSS flag groups as
// described in the package doc comment, and returns the decoded bytes.
//
// maxOutput bounds the size of the returned buffer; decoding that would
// exceed it returns an *OutputOverflowError rather than growing without
// limit, since a single corrupted length field can otherwise turn a small
// input into an unbounded allocation.
func Decode(in []byte, maxOutput int) ([]byte, error) {
	dict := ringdict.New()
	out := make([]byte, 0, minInt(maxOutput, len(in)*8))

	pos := 0
	for pos < len(in) {
		flag := in[pos]
		pos++

		if flag == 0x00 && isEndOfStream(in, pos) {
			break
		}

		for bit := 0; bit < flagGroupTokens; bit++ {
			if pos >= len(in) {
				// Final partial group: the encoder pads remaining slots with
				// literal zeros, but real streams are simply truncated here.
				return out, nil
			}

			isLiteral := flag&(1<<uint(bit)) != 0
			if isLiteral {
				b := in[pos]
				pos++
				if len(out) >= maxOutput {
					return nil, &OutputOverflowError{Budget: maxOutput, Produced: len(out) + 1}
				}
				out = append(out, b)
				dict.Append(b)
				continue
			}

			if pos+1 >= len(in) {
				return nil, ErrTruncatedStream
			}
			b1, b2 := in[pos], in[pos+1]
			pos += 2

			index := int(b1) | (int(b2&0xF0) << 4)
			length := int(b2&0x0F) + 3

			if len(out)+length > maxOutput {
				return nil, &OutputOverflowError{Budget: maxOutput, Produced: len(out) + length}
			}
			out = append(out, dict.CopyRun(index, length)...)
		}
	}

	return out, nil
}

// isEndOfStream reports whether the 16 bytes starting at pos are all zero
// (the pack-format's heuristic terminator: the block is zero-padded out to
// its 2048-byte alignment, and 16 consecutive zero bytes following a zero
// flag byte means the real stream has already ended). Fewer than 16 bytes
// remaining is treated as "not enough to confirm," matching the decoder's
// fallback of simply respecting EOF.
func isEndOfStream(in []byte, pos int) bool {
	if pos+16 > len(in) {
		return false
	}
	for i := 0; i < 16; i++ {
		if in[pos+i] != 0 {
			return false
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

package lzss

import "github.com/go-firmware/yi1fw/internal/ringdict"

// Encode compresses in using the greedy longest-match, most-recent-tiebreak
// strategy the format requires: two encoders given the same input must
// produce byte-identical output, because repack's round-trip depends on it.
//
// Encode does not try to find a globally shorter encoding (e.g. by
// preferring a literal now for a better match later); it always takes the
// dictionary's longest current match, matching the source behaviour this
// format was reverse-engineered from rather than a minimum-bits-optimal
// parse.
func Encode(in []byte) ([]byte, error) {
	dict := ringdict.New()
	out := make([]byte, 0, len(in)+len(in)/8+16)

	pos := 0
	for pos < len(in) {
		var flag byte
		var tokens []byte

		for bit := 0; bit < flagGroupTokens; bit++ {
			if pos >= len(in) {
				// Pad the remainder of this group with literal zeros.
				flag |= 1 << uint(bit)
				tokens = append(tokens, 0)
				continue
			}

			remaining := len(in) - pos
			lookaheadLen := remaining
			if lookaheadLen > lookaheadMax {
				lookaheadLen = lookaheadMax
			}
			lookahead := in[pos : pos+lookaheadLen]

			length, index := dict.FindLongest(lookahead, minInt(ringdict.MaxMatch, remaining))
			if length >= ringdict.MinMatch {
				if index < 0 || index >= ringdict.Size || length > ringdict.MaxMatch {
					return nil, &EncoderInvariantError{Index: index, Length: length}
				}
				b1 := byte(index & 0xFF)
				b2 := byte(((index & 0xF00) >> 4) | ((length - 3) & 0x0F))
				tokens = append(tokens, b1, b2)
				for k := 0; k < length; k++ {
					dict.Append(in[pos+k])
				}
				pos += length
			} else {
				flag |= 1 << uint(bit)
				b := in[pos]
				tokens = append(tokens, b)
				dict.Append(b)
				pos++
			}
		}

		out = append(out, flag)
		out = append(out, tokens...)
	}

	return out, nil
}

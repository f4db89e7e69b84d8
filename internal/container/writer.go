package container

import (
	"strconv"
	"strings"
)

// ReplaceToken rewrites the value of the first "key=..." fragment in raw
// (a trimmed header text, as returned by Reader.ReadSection) to newValue,
// leaving every other fragment — including fragment order and unrecognized
// keys — untouched. It returns ErrTokenNotFound if key is absent.
func ReplaceToken(raw, key, newValue string) (string, error) {
	fields := strings.Fields(raw)
	prefix := key + "="
	found := false
	for i, frag := range fields {
		if strings.HasPrefix(frag, prefix) {
			fields[i] = prefix + newValue
			found = true
			break
		}
	}
	if !found {
		return "", ErrTokenNotFound
	}
	return strings.Join(fields, " "), nil
}

// Region returns the region token present in raw's VER= fragment (M1INT
// or M1CN) together with its counterpart, or ErrUnknownRegion when
// neither is present.
func Region(raw string) (current, other string, err error) {
	switch {
	case hasToken(raw, keyVer, "M1INT"):
		return "M1INT", "M1CN", nil
	case hasToken(raw, keyVer, "M1CN"):
		return "M1CN", "M1INT", nil
	default:
		return "", "", ErrUnknownRegion
	}
}

// ReplaceRegion swaps the VER= token between M1INT and M1CN in raw,
// whichever is present, and returns ErrUnknownRegion if neither is found.
func ReplaceRegion(raw string) (string, error) {
	_, other, err := Region(raw)
	if err != nil {
		return "", err
	}
	return ReplaceToken(raw, keyVer, other)
}

// HasRegion reports whether raw carries the exact VER=<region> token.
func HasRegion(raw, region string) bool {
	return hasToken(raw, keyVer, region)
}

func hasToken(raw, key, value string) bool {
	for _, frag := range strings.Fields(raw) {
		if frag == key+"="+value {
			return true
		}
	}
	return false
}

// FormatHeader re-emits trimmed header text as the canonical 256-byte
// on-disk form: the text, a CR-LF terminator, then right-padded with
// 0x20 spaces.
func FormatHeader(text string) []byte {
	out := make([]byte, 0, HeaderSize)
	out = append(out, text...)
	out = append(out, terminator...)
	for len(out) < HeaderSize {
		out = append(out, 0x20)
	}
	if len(out) > HeaderSize {
		out = out[:HeaderSize]
	}
	return out
}

// WithLengthAndSum returns raw with its LENGTH= and SUM= tokens replaced to
// reflect a (possibly re-encoded) body.
func WithLengthAndSum(raw string, length, sum int64) (string, error) {
	raw, err := ReplaceToken(raw, keyLength, strconv.FormatInt(length, 10))
	if err != nil {
		return "", err
	}
	return ReplaceToken(raw, keySum, strconv.FormatInt(sum, 10))
}

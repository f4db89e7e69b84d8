package container

import (
	"strconv"
	"strings"
)

// ParsedHeader is the structured interpretation of one 256-byte section
// header. All fields except SectionLength and SectionSum are optional;
// their zero values mean "absent," not "zero."
type ParsedHeader struct {
	SectionID           string // empty for section 0
	SectionLength       int64
	HasSectionLength    bool
	DeviceID            string
	DeviceVersion       string
	Dvr                 string
	SectionSum          int64
	HasSectionSum       bool
	SectionOffset       int64
	HasSectionOffset    bool
	FollowingSectionIDs []string
}

// ParseHeader tokenizes the trimmed text of one raw header (space-separated
// fragments, no leading/trailing whitespace) into a ParsedHeader:
//
//   - a fragment containing "=" is a key/value pair; recognized keys are
//     LENGTH, VER, DVR, SUM, OFFSET, unrecognized keys are ignored;
//   - otherwise, fragment index 0 is the section ID, index 1 or 2 is the
//     device ID, and any later non-kv fragment is appended to
//     FollowingSectionIDs.
func ParseHeader(text string) ParsedHeader {
	var h ParsedHeader
	fields := strings.Fields(text)

	for i, frag := range fields {
		if key, value, ok := splitKV(frag); ok {
			switch strings.ToUpper(key) {
			case keyLength:
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					h.SectionLength = n
					h.HasSectionLength = true
				}
			case keyVer:
				h.DeviceVersion = value
			case keyDvr:
				h.Dvr = value
			case keySum:
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					h.SectionSum = n
					h.HasSectionSum = true
				}
			case keyOffset:
				if n, err := strconv.ParseInt(value, 10, 64); err == nil {
					h.SectionOffset = n
					h.HasSectionOffset = true
				}
			}
			continue
		}

		switch {
		case i == 0:
			h.SectionID = frag
		case (i == 1 || i == 2) && h.DeviceID == "":
			h.DeviceID = frag
		default:
			h.FollowingSectionIDs = append(h.FollowingSectionIDs, frag)
		}
	}

	return h
}

// splitKV splits "KEY=VALUE" into its parts. It reports ok=false for
// fragments with no "=", or with nothing before it.
func splitKV(frag string) (key, value string, ok bool) {
	idx := strings.IndexByte(frag, '=')
	if idx <= 0 {
		return "", "", false
	}
	return frag[:idx], frag[idx+1:], true
}

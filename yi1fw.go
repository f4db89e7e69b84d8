package yi1fw

import (
	"context"
	"fmt"

	"github.com/go-firmware/yi1fw/internal/container"
	"github.com/go-firmware/yi1fw/internal/lzss"
	"github.com/go-firmware/yi1fw/internal/pool"
	"github.com/go-firmware/yi1fw/internal/splitter"
	"github.com/go-firmware/yi1fw/manifest"
)

// DeviceCatalog resolves a (deviceID, deviceVersion, dvr) triple against a
// table of known firmware builds. The table belongs to the caller, not to
// this package, so the core depends only on this interface — see package
// catalog for a ready-to-use implementation.
type DeviceCatalog interface {
	Recognize(deviceID, deviceVersion, dvr string) (name string, known bool)
}

// UnpackedFile is one byte buffer Unpack produced, named the way the
// accompanying manifest.Manifest references it. Writing these to disk
// under their Name is a caller concern; this package never touches the
// filesystem.
type UnpackedFile struct {
	Name string
	Data []byte
}

// Report carries Unpack's non-fatal findings: a version-catalog miss, or
// the sub-section splitter's documented boundary ambiguity, neither of
// which stops the unpack.
type Report struct {
	Warnings []string
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// decodeBudget bounds a sub-block's decompressed size given its
// compressed size, generous enough for any real firmware (decompressed
// payloads run up to an order of magnitude larger than their compressed
// form) while still refusing to allocate without limit for a corrupted
// length field.
func decodeBudget(compressedLen int) int {
	b := compressedLen * 64
	const floor = 1 << 20
	const ceiling = 256 << 20
	if b < floor {
		b = floor
	}
	if b > ceiling {
		b = ceiling
	}
	return b
}

// Unpack drives the container's section reader to completion and, for a
// recognized section 0, splits and LZSS-decodes its sub-blocks. catalog
// may be nil, which is treated the same as "nothing recognized."
//
// ctx is checked between sections, not within one — a single section's
// decode always runs to completion once started, matching the codec's
// own no-cancellation contract.
func Unpack(ctx context.Context, data []byte, catalog DeviceCatalog) (*manifest.Manifest, []UnpackedFile, *Report, error) {
	sections, err := container.ReadAll(data)
	if err != nil {
		return nil, nil, nil, err
	}

	report := &Report{}
	m := &manifest.Manifest{Version: manifest.Version}
	var files []UnpackedFile

	for i, sec := range sections {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}

		msec := manifest.Section{
			RawHeader: sec.RawHeader,
			ParsedHeader: manifest.ParsedHeader{
				SectionID:           sec.Parsed.SectionID,
				SectionLength:       sec.Parsed.SectionLength,
				DeviceID:            sec.Parsed.DeviceID,
				DeviceVersion:       sec.Parsed.DeviceVersion,
				Dvr:                 sec.Parsed.Dvr,
				SectionSum:          sec.Parsed.SectionSum,
				SectionOffset:       sec.Parsed.SectionOffset,
				FollowingSectionIDs: sec.Parsed.FollowingSectionIDs,
			},
		}

		var subs []splitter.SubSection
		if i == 0 {
			subs = recognizeAndSplit(sec.Parsed, sec.Body, catalog, report)
		}

		if len(subs) == 0 {
			msec.Filename = fmt.Sprintf("section_%03d.bin", i)
			files = append(files, UnpackedFile{Name: msec.Filename, Data: sec.Body})
		} else {
			for j, sub := range subs {
				rawName := fmt.Sprintf("section_%03d_sub_%03d.bin", i, j)
				files = append(files, UnpackedFile{Name: rawName, Data: sub.Body})

				msub := manifest.Subsection{Filename: rawName, Compressed: sub.Compressed}
				if sub.Compressed {
					decoded, err := lzss.Decode(sub.Body, decodeBudget(len(sub.Body)))
					if err != nil {
						return nil, nil, nil, fmt.Errorf("yi1fw: section %d sub-section %d: %w", i, j, err)
					}
					decName := fmt.Sprintf("section_%03d_sub_%03d.dec.bin", i, j)
					files = append(files, UnpackedFile{Name: decName, Data: decoded})
					msub.FilenameDecompressed = decName
				}
				if len(sub.Body) > 0 && len(sub.Body)%splitter.Alignment != 0 {
					report.warn("section %d: sub-section %d length %d is not 2048-aligned; the boundary heuristic may have misfired", i, j, len(sub.Body))
				}
				msec.Subsections = append(msec.Subsections, msub)
			}
		}

		m.Sections = append(m.Sections, msec)
	}

	return m, files, report, nil
}

// recognizeAndSplit resolves section 0's device triple against catalog
// and, only if recognized, runs the sub-section splitter. An unrecognized
// triple is recorded as a warning, not an error: unpack proceeds with
// section 0 treated as a single opaque body.
func recognizeAndSplit(hdr container.ParsedHeader, body []byte, catalog DeviceCatalog, report *Report) []splitter.SubSection {
	if catalog == nil {
		report.warn("no device catalog supplied; section 0 left unsplit")
		return nil
	}
	name, known := catalog.Recognize(hdr.DeviceID, hdr.DeviceVersion, hdr.Dvr)
	if !known {
		report.warn("unrecognized firmware (device=%q version=%q dvr=%q); section 0 left unsplit", hdr.DeviceID, hdr.DeviceVersion, hdr.Dvr)
		return nil
	}
	_ = name // resolved display name isn't needed beyond the recognition check itself
	return splitter.Split(body)
}

// Repack reconstructs a firmware image byte-for-byte from a manifest and
// the file contents it references (section bodies, and for section 0,
// sub-section bodies — compressed ones sourced from their decompressed
// form and re-encoded). files is keyed by the names manifest.Manifest
// uses. ctx is checked between sections, same granularity as Unpack.
func Repack(ctx context.Context, m *manifest.Manifest, files map[string][]byte) ([]byte, error) {
	if m == nil {
		return nil, ErrMetadataMissing
	}

	out := pool.Get(0)[:0]
	defer func() { pool.Put(out) }()

	for _, sec := range m.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := rebuildBody(sec, files)
		if err != nil {
			return nil, err
		}

		raw, err := container.WithLengthAndSum(sec.RawHeader, int64(len(body)), sumBytes(body))
		if err != nil {
			return nil, fmt.Errorf("yi1fw: rewriting header for %q: %w", sec.Filename, err)
		}

		out = append(out, container.FormatHeader(raw)...)
		out = append(out, body...)
	}

	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}

func rebuildBody(sec manifest.Section, files map[string][]byte) ([]byte, error) {
	if len(sec.Subsections) == 0 {
		data, ok := files[sec.Filename]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFileMissing, sec.Filename)
		}
		return data, nil
	}

	var body []byte
	for _, sub := range sec.Subsections {
		var chunk []byte
		if sub.Compressed {
			decoded, ok := files[sub.FilenameDecompressed]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrFileMissing, sub.FilenameDecompressed)
			}
			encoded, err := lzss.Encode(decoded)
			if err != nil {
				return nil, err
			}
			chunk = encoded
		} else {
			data, ok := files[sub.Filename]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrFileMissing, sub.Filename)
			}
			chunk = data
		}
		chunk = padToAlignment(chunk)
		body = append(body, chunk...)
	}
	return body, nil
}

func padToAlignment(b []byte) []byte {
	rem := len(b) % splitter.Alignment
	if rem == 0 {
		return b
	}
	padded := make([]byte, len(b), len(b)+splitter.Alignment-rem)
	copy(padded, b)
	for len(padded) < cap(padded) {
		padded = append(padded, 0)
	}
	return padded
}

func sumBytes(b []byte) int64 {
	var sum int64
	for _, v := range b {
		sum += int64(v)
	}
	return sum
}

// FlipRegion rewrites every section header's VER= token between M1INT and
// M1CN, whichever is present in the first header, leaving every body byte
// untouched. FlipRegion(FlipRegion(x)) reproduces x exactly when every
// header that carries a region token carries the same one as the first
// header; a later header with the opposite token is left alone by the
// first flip and rewritten by the second.
func FlipRegion(data []byte) ([]byte, error) {
	sections, err := container.ReadAll(data)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, ErrUnknownRegion
	}

	// The flip direction is detected once, from the first header, then
	// applied uniformly; a later header without the detected token is
	// passed through unchanged, since only the first header is required
	// to carry the region.
	from, to, err := container.Region(sections[0].RawHeader)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data))
	for _, sec := range sections {
		raw := sec.RawHeader
		if container.HasRegion(raw, from) {
			raw, err = container.ReplaceToken(raw, "VER", to)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, container.FormatHeader(raw)...)
		out = append(out, sec.Body...)
	}
	return out, nil
}

// SelfTestResult is one compressed sub-section's round-trip outcome.
type SelfTestResult struct {
	SectionIndex    int
	SubsectionIndex int
	Offset          int
	OriginalLength  int
	RecompressedLen int
	ByteEqual       bool
	FirstDiffOffset int // -1 when ByteEqual is true
}

// SelfTestReport summarizes SelfTest across every compressed sub-section
// found in the image.
type SelfTestReport struct {
	Results   []SelfTestResult
	AllPassed bool
}

// SelfTest unpacks data, then for every compressed sub-section re-encodes
// its decompressed form and decodes that back, comparing the result to
// the original decompressed bytes. It is the codec's primary correctness
// gate: the LZSS encoder need not reproduce the exact original compressed
// bytes, only a stream that decodes to the same payload. The comparison
// tolerates up to seven trailing zero bytes of growth, the literal-zero
// padding a final partial flag group decodes to.
func SelfTest(ctx context.Context, data []byte, catalog DeviceCatalog) (*SelfTestReport, error) {
	m, files, _, err := Unpack(ctx, data, catalog)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]byte, len(files))
	for _, f := range files {
		byName[f.Name] = f.Data
	}

	report := &SelfTestReport{AllPassed: true}
	for i, sec := range m.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		offset := 0
		for j, sub := range sec.Subsections {
			subOffset := offset
			offset += len(byName[sub.Filename])
			if !sub.Compressed {
				continue
			}
			original := byName[sub.FilenameDecompressed]

			recompressed, err := lzss.Encode(original)
			if err != nil {
				return nil, err
			}
			redecoded, err := lzss.Decode(recompressed, decodeBudget(len(recompressed)))
			if err != nil {
				return nil, err
			}

			res := SelfTestResult{
				SectionIndex:    i,
				SubsectionIndex: j,
				Offset:          subOffset,
				OriginalLength:  len(original),
				RecompressedLen: len(recompressed),
				FirstDiffOffset: -1,
			}
			res.ByteEqual = compareBytes(original, redecoded, &res.FirstDiffOffset)
			if !res.ByteEqual {
				report.AllPassed = false
			}
			report.Results = append(report.Results, res)
		}
	}
	return report, nil
}

// compareBytes reports whether b reproduces a, allowing b to exceed a by
// fewer than 8 trailing zero bytes (the decoded form of a final flag
// group's literal-zero padding). Any other divergence sets *firstDiff.
func compareBytes(a, b []byte, firstDiff *int) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			*firstDiff = i
			return false
		}
	}
	if len(b) < len(a) || len(b)-len(a) >= 8 {
		*firstDiff = n
		return false
	}
	for i := len(a); i < len(b); i++ {
		if b[i] != 0 {
			*firstDiff = i
			return false
		}
	}
	return true
}

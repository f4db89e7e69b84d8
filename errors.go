package yi1fw

import (
	"errors"

	"github.com/go-firmware/yi1fw/internal/container"
	"github.com/go-firmware/yi1fw/internal/lzss"
)

// Sentinel errors for the failure conditions that carry no data of their
// own.
var (
	// ErrTruncatedStream is returned when a compressed sub-block ends
	// partway through a back-reference. A section header or body cut short
	// by the end of the image is not reported with this error; it is
	// reported with the container reader's truncated-section error.
	ErrTruncatedStream = lzss.ErrTruncatedStream

	// ErrUnknownRegion is returned by FlipRegion when the first header
	// contains neither M1INT nor M1CN.
	ErrUnknownRegion = container.ErrUnknownRegion

	// ErrMetadataMissing is returned by Repack when called without a
	// manifest.
	ErrMetadataMissing = errors.New("yi1fw: repack requires a manifest")

	// ErrFileMissing is returned by Repack when the manifest references a
	// file name that is absent from the supplied file map.
	ErrFileMissing = errors.New("yi1fw: manifest references a file that was not supplied")
)

// ChecksumMismatchError reports that a section body's byte sum disagrees
// with its header's SUM token.
type ChecksumMismatchError = container.ChecksumMismatchError

// OutputOverflowError reports that decoding a sub-block would exceed its
// output budget.
type OutputOverflowError = lzss.OutputOverflowError

// EncoderInvariantError indicates the LZSS encoder produced a match
// outside the range the wire format can express — a codec bug, not a bad
// input.
type EncoderInvariantError = lzss.EncoderInvariantError

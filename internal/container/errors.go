package container

import "errors"

// ErrTruncatedSection is returned when fewer than HeaderSize bytes remain
// for a header, or fewer body bytes remain than the header's LENGTH token
// declares.
var ErrTruncatedSection = errors.New("container: truncated section body")

// ErrUnknownRegion is returned by ReplaceRegion when neither recognized
// region token is present in the raw header text.
var ErrUnknownRegion = errors.New("container: header contains neither M1INT nor M1CN")

// ErrTokenNotFound is returned by ReplaceToken when the requested key is
// absent from the raw header text.
var ErrTokenNotFound = errors.New("container: token not present in raw header")

// ChecksumMismatchError reports that a section body's byte sum disagrees
// with the SUM token in its header.
type ChecksumMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *ChecksumMismatchError) Error() string {
	return "container: checksum mismatch"
}

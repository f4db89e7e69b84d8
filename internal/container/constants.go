// Package container implements the firmware's section container: fixed-size
// ASCII headers, each immediately followed by a body of the declared
// length, read and written byte-for-byte identical to the original image
// except for the fields an operation is explicitly allowed to change.
package container

// HeaderSize is the fixed width, in bytes, of every section header.
const HeaderSize = 256

// terminator is appended after the token text before space-padding a
// header out to HeaderSize.
const terminator = "\r\n"

// Recognized key/value token keys. Any other "key=value" fragment is
// parsed but ignored.
const (
	keyLength = "LENGTH"
	keyVer    = "VER"
	keyDvr    = "DVR"
	keySum    = "SUM"
	keyOffset = "OFFSET"
)

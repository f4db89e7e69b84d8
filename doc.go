// Package yi1fw unpacks, repacks, and region-flips firmware images for the
// YI M1 mirrorless camera family and the Fujifilm X-A10, whose container
// concatenates fixed-size ASCII-headed sections, the first of which holds
// a sequence of LZSS-compressed sub-blocks.
//
// The package takes byte buffers in and returns byte buffers out: it does
// not touch the filesystem, does not parse command-line arguments, and
// does not itself log anything. Those concerns belong to a caller — see
// cmd/yi1fw for a complete one — because the core must stay usable from
// anything that can hand it a []byte, including tests.
//
// Basic usage:
//
//	m, files, report, err := yi1fw.Unpack(context.Background(), data, catalog.New())
//	...
//	out, err := yi1fw.Repack(context.Background(), m, fileMap)
package yi1fw

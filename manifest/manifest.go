// Package manifest defines the out-of-band document Unpack emits and
// Repack requires: the raw and parsed form of every section header plus
// the file names of any sub-sections, serialized as YAML so an unpacked
// firmware directory is inspectable without this toolkit.
package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Version is the only manifest format version this package understands.
const Version = 0

// Manifest is the top-level unpack record.
type Manifest struct {
	Version  int       `yaml:"version"`
	Filename string    `yaml:"filename"`
	Sections []Section `yaml:"sections"`
}

// Section describes one section's header (both forms) and its
// sub-sections, if any.
type Section struct {
	Filename     string       `yaml:"filename"`
	RawHeader    string       `yaml:"rawHeader"`
	ParsedHeader ParsedHeader `yaml:"parsedHeader"`
	Subsections  []Subsection `yaml:"subsections,omitempty"`
}

// ParsedHeader mirrors internal/container.ParsedHeader in a form stable
// enough to serialize: optional fields are omitted rather than emitted as
// zero values, so a round-tripped manifest doesn't invent e.g. a
// `sectionOffset: 0` that was never in the original header.
type ParsedHeader struct {
	SectionID           string   `yaml:"sectionID,omitempty"`
	SectionLength       int64    `yaml:"sectionLength"`
	DeviceID            string   `yaml:"deviceID,omitempty"`
	DeviceVersion       string   `yaml:"deviceVersion,omitempty"`
	Dvr                 string   `yaml:"dvr,omitempty"`
	SectionSum          int64    `yaml:"sectionSum"`
	SectionOffset       int64    `yaml:"sectionOffset,omitempty"`
	FollowingSectionIDs []string `yaml:"followingSectionIDs,omitempty"`
}

// Subsection describes one compressed or uncompressed slice of section
// 0's body.
type Subsection struct {
	Filename             string `yaml:"filename"`
	Compressed           bool   `yaml:"compressed"`
	FilenameDecompressed string `yaml:"filenameDecompressed,omitempty"`
}

// Marshal renders m as the manifest's YAML wire form.
func Marshal(m *Manifest) ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: encoding: %w", err)
	}
	return out, nil
}

// Unmarshal parses a manifest document previously produced by Marshal.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decoding: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("manifest: unsupported version %d", m.Version)
	}
	return &m, nil
}

// Package catalog provides a static lookup table of known YI M1 / X-A10
// (deviceID, deviceVersion, dvr) firmware triples. It is an external
// collaborator of the core package: the core only depends on the
// yi1fw.DeviceCatalog interface, never on this table directly, so a caller
// is free to substitute a different catalog (or none at all).
package catalog

import "strings"

// Entry is one recognized firmware build.
type Entry struct {
	DeviceID      string
	DeviceVersion string
	Dvr           string
	Name          string
}

// Known lists the builds this table recognizes. It is a plain value, not a
// registry — extending it means editing this slice, not registering a
// plugin.
var Known = []Entry{
	{DeviceID: "C59Y1", DeviceVersion: "M1INT", Dvr: "Ver1.37", Name: "YI M1 (international) 1.37"},
	{DeviceID: "C59Y1", DeviceVersion: "M1INT", Dvr: "Ver1.39", Name: "YI M1 (international) 1.39"},
	{DeviceID: "C59Y1", DeviceVersion: "M1CN", Dvr: "Ver1.37", Name: "YI M1 (China) 1.37"},
	{DeviceID: "C59Y1", DeviceVersion: "M1CN", Dvr: "Ver1.39", Name: "YI M1 (China) 1.39"},
	{DeviceID: "FX-A10", DeviceVersion: "XA10", Dvr: "Ver1.01", Name: "Fujifilm X-A10 1.01"},
}

// Catalog resolves (deviceID, deviceVersion, dvr) triples against Known.
// Its zero value is ready to use.
type Catalog struct {
	entries []Entry
}

// New returns a Catalog backed by Known.
func New() *Catalog {
	return &Catalog{entries: Known}
}

// Recognize implements yi1fw.DeviceCatalog.
func (c *Catalog) Recognize(deviceID, deviceVersion, dvr string) (name string, known bool) {
	entries := c.entries
	if entries == nil {
		entries = Known
	}
	for _, e := range entries {
		if strings.EqualFold(e.DeviceID, deviceID) &&
			strings.EqualFold(e.DeviceVersion, deviceVersion) &&
			strings.EqualFold(e.Dvr, dvr) {
			return e.Name, true
		}
	}
	return "", false
}

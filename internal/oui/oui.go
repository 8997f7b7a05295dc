// Package oui maps hardware address prefixes to vendor names using an
// embedded IEEE OUI subset covering common home and office devices.
package oui

import (
	_ "embed"
	"encoding/json"
	"net"
	"strings"
)

//go:embed data/oui.json
var embeddedDB []byte

type DB struct {
	vendors map[string]string
}

func LoadEmbedded() (*DB, error) {
	return Load(embeddedDB)
}

func Load(data []byte) (*DB, error) {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	normalized := make(map[string]string, len(m))
	for k, v := range m {
		normalized[normalizePrefix(k)] = strings.TrimSpace(v)
	}
	return &DB{vendors: normalized}, nil
}

// Vendor returns the vendor registered for the address's OUI prefix,
// or the empty string when the prefix is not in the embedded subset.
func (db *DB) Vendor(mac net.HardwareAddr) string {
	if db == nil || len(mac) < 3 {
		return ""
	}
	return db.lookup(mac.String())
}

// VendorByString is Vendor for addresses already rendered as text.
func (db *DB) VendorByString(mac string) string {
	if db == nil {
		return ""
	}
	return db.lookup(mac)
}

func (db *DB) lookup(mac string) string {
	prefix := normalizePrefix(mac)
	if len(prefix) < 6 {
		return ""
	}
	return db.vendors[prefix[:6]]
}

func normalizePrefix(v string) string {
	replacer := strings.NewReplacer(":", "", "-", "", ".", "")
	v = strings.ToUpper(strings.TrimSpace(replacer.Replace(v)))
	if len(v) >= 6 {
		return v[:6]
	}
	return v
}

// Package geoip resolves visitor IP addresses to countries using an optional
// IP2Location database.
package geoip

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"sync"

	"github.com/pg9182/ip2x"
)

// ErrNoDatabase is returned by lookups before a database is loaded.
var ErrNoDatabase = errors.New("no ip2location database loaded")

// Database wraps a file-backed IP2Location database.
type Database struct {
	file *os.File
	db   *ip2x.DB
	mu   sync.RWMutex
}

// OpenDatabase opens the IP2Location BIN file at name.
func OpenDatabase(name string) (*Database, error) {
	d := new(Database)
	if err := d.Load(name); err != nil {
		return nil, err
	}
	return d, nil
}

// Load replaces the currently loaded database with the specified file. If name
// is empty, the existing database is reopened.
func (d *Database) Load(name string) error {
	if name == "" {
		d.mu.RLock()
		if d.file == nil {
			d.mu.RUnlock()
			return ErrNoDatabase
		}
		name = d.file.Name()
		d.mu.RUnlock()
	}

	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open ip2location database: %w", err)
	}

	db, err := ip2x.New(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read ip2location database: %w", err)
	}

	if p, _ := db.Info(); p != ip2x.IP2Location {
		f.Close()
		return fmt.Errorf("not an ip2location database")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file != nil {
		d.file.Close()
	}
	d.file = f
	d.db = db
	return nil
}

// Close closes the database file.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.db = nil, nil
	return err
}

// Country returns the ISO 3166 short code and English name of ip's country.
func (d *Database) Country(ip netip.Addr) (short, name string, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return "", "", ErrNoDatabase
	}

	r, err := d.db.Lookup(ip)
	if err != nil {
		return "", "", err
	}

	short, ok := r.GetString(ip2x.CountryCode)
	if !ok {
		return "", "", fmt.Errorf("missing country field in ip2location data")
	}
	name, _ = r.GetString(ip2x.CountryName)
	return short, name, nil
}

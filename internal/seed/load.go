package seed

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
)

// Parse decodes a JSON array of items.
func Parse(r io.Reader) ([]Item, error) {
	var items []Item
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decode items")
	}
	return items, nil
}

// ParseBytes decodes a JSON array of items held in memory.
func ParseBytes(data []byte) ([]Item, error) {
	return Parse(bytes.NewReader(data))
}

// LoadFile reads items from path. Files ending in .gz are decompressed.
func LoadFile(path string) (_ []Item, rerr error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = errors.Wrap(err, "close")
		}
	}()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	items, err := Parse(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return items, nil
}

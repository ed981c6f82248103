package geomap

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/brushwork/pkg/encoding"
)

// Parse decodes a map document and indexes it.
func Parse(data []byte) (*GeoMap, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a map document from r and indexes it.
func Read(r io.Reader) (*GeoMap, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var g GeoMap
	if err := dec.Decode(&g); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty document", ErrMalformedMap)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedMap, err)
	}
	if err := g.Index(); err != nil {
		return nil, err
	}
	return &g, nil
}

// ReadCharset decodes a map document written in a legacy charset.
func ReadCharset(r io.Reader, charset string) (*GeoMap, error) {
	dec, err := encoding.NewReader(r, charset)
	if err != nil {
		return nil, err
	}
	return Read(dec)
}

// Load reads and parses a UTF-8 map file.
func Load(path string) (*GeoMap, error) {
	return LoadCharset(path, "")
}

// LoadCharset reads and parses a map file stored in charset.
func LoadCharset(path, charset string) (*GeoMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	g, err := ReadCharset(f, charset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Write encodes the map as YAML.
func (g *GeoMap) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	return enc.Close()
}

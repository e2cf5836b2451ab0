package negotiation

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the YAML layout of an exported negotiation table:
//
//	negotiations:
//	  d1:
//	    installment: "R$ 250,50"
//	    term: "5"
//	    rate: "1,99"
//	    comment: "agreed by phone"
type document struct {
	Negotiations Table `yaml:"negotiations"`
}

// Load reads a negotiation table from YAML. Unknown fields are rejected.
func Load(r io.Reader) (Table, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return Table{}, nil
		}
		return nil, fmt.Errorf("decode negotiation table: %w", err)
	}
	if doc.Negotiations == nil {
		doc.Negotiations = Table{}
	}
	return doc.Negotiations, nil
}

// LoadFile reads a negotiation table from a YAML file.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read negotiation table: %w", err)
	}
	return Load(bytes.NewReader(data))
}

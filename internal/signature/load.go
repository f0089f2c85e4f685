package signature

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type tableFile struct {
	Signatures []Signature `yaml:"signatures"`
}

// LoadFile reads a YAML signature table. File order is preserved.
//
//	signatures:
//	  - name: Spring Boot Heap Dump
//	    path: /actuator/heapdump
//	    keyword: JAVA PROFILE
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signature file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML signature table and validates it.
func Parse(data []byte) (Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f tableFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing signature file: %w", err)
	}
	t := Table(f.Signatures)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

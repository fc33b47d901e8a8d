package toolutils

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
)

// ReadYaml decodes a configuration file into dest, rejecting unknown keys.
func ReadYaml(dest any, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("unable to open configuration file: %w", err)
	}
	defer f.Close()
	return DecodeYaml(dest, f)
}

// DecodeYaml is ReadYaml over an arbitrary reader.
func DecodeYaml(dest any, r io.Reader) error {
	dec := yaml.NewDecoder(r, yaml.Strict())
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("unable to parse configuration file: %w", err)
	}
	return nil
}

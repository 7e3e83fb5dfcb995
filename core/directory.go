package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type directoryFile struct {
	Organizations []Organization `yaml:"organizations"`
}

// LoadDirectory reads the static organization directory from a YAML file.
func LoadDirectory(path string) ([]Organization, error) {
	if path == "" {
		return nil, errors.New("directory path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory file: %w", err)
	}
	defer f.Close()

	return DecodeDirectory(f)
}

// DecodeDirectory decodes and normalizes a YAML organization list. Entries
// without an id get their 1-based position; names must be unique.
func DecodeDirectory(r io.Reader) ([]Organization, error) {
	var file directoryFile

	err := yaml.NewDecoder(r).Decode(&file)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode directory: %w", err)
	}

	names := make(map[string]struct{}, len(file.Organizations))

	for i := range file.Organizations {
		org := &file.Organizations[i]

		org.Name = strings.TrimSpace(org.Name)
		if org.Name == "" {
			return nil, fmt.Errorf("organization #%d has no name", i+1)
		}

		key := strings.ToLower(org.Name)
		if _, ok := names[key]; ok {
			return nil, fmt.Errorf("duplicate organization name %q", org.Name)
		}

		names[key] = struct{}{}

		if org.Id == "" {
			org.Id = strconv.Itoa(i + 1)
		}

		if org.Category == nil {
			org.Category = Categories{}
		}
	}

	return file.Organizations, nil
}

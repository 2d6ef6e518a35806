// SPDX-License-Identifier: Apache-2.0

package format

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is a serialization format for plan and config files
type Kind string

const (
	YAML Kind = "yaml"
	JSON Kind = "json"
)

// KindOf picks the format from the file extension. Anything that is not
// .json is treated as YAML.
func KindOf(filePath string) Kind {
	if strings.EqualFold(filepath.Ext(filePath), ".json") {
		return JSON
	}
	return YAML
}

// ParseFile reads and parses a file. JSON files are decoded strictly, other
// files are tried as YAML first, then JSON.
func ParseFile(filePath string, v interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	if KindOf(filePath) == JSON {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("error parsing JSON file %s: %w", filePath, err)
		}
		return nil
	}

	return ParseData(data, v)
}

// ParseData parses data, trying YAML first, then JSON
func ParseData(data []byte, v interface{}) error {
	err := yaml.Unmarshal(data, v)
	if err == nil {
		return nil
	}

	jsonErr := json.Unmarshal(data, v)
	if jsonErr == nil {
		return nil
	}

	return fmt.Errorf("failed to parse as YAML (%v) or JSON (%v)", err, jsonErr)
}

// Marshal encodes v in the given format
func Marshal(v interface{}, kind Kind) ([]byte, error) {
	var data []byte
	var err error

	switch kind {
	case JSON:
		data, err = json.MarshalIndent(v, "", "  ")
	default:
		data, err = yaml.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("error marshaling %s: %w", kind, err)
	}
	return data, nil
}

// WriteFile writes v to filePath in the format matching its extension. Parent
// directories are created and the file is replaced atomically, so a reader
// never sees a half written plan.
func WriteFile(filePath string, v interface{}) error {
	data, err := Marshal(v, KindOf(filePath))
	if err != nil {
		return err
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error writing %s: %w", filePath, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error setting permissions on %s: %w", filePath, err)
	}

	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing %s: %w", filePath, err)
	}
	return nil
}

// FormatData formats data as YAML or JSON string
func FormatData(v interface{}, useYAML bool) (string, error) {
	kind := JSON
	if useYAML {
		kind = YAML
	}

	data, err := Marshal(v, kind)
	if err != nil {
		return "", fmt.Errorf("error formatting data: %w", err)
	}
	return string(data), nil
}

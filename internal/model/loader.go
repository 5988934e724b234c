package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SettingsSuffix is the file suffix of collection definition files.
const SettingsSuffix = ".settings.json"

// LoadFile loads a single collection definition from path.
func LoadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("failed to parse collection file %s: %w", path, err)
	}

	if collection.Info.Name == "" {
		base := filepath.Base(path)
		collection.Info.Name = strings.TrimSuffix(base, SettingsSuffix)
	}
	if collection.PrimaryKey == "" {
		collection.PrimaryKey = "id"
	}

	if err := collection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collection in %s: %w", path, err)
	}

	return &collection, nil
}

// LoadDir loads every *.settings.json file in dir into a model set keyed by
// collection name. Two collections deriving the same identity are a
// configuration error: their derived query and mutation field names would
// collide.
func LoadDir(dir string) (map[string]*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read collections directory: %w", err)
	}

	collections := make(map[string]*Collection)
	identities := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), SettingsSuffix) {
			continue
		}

		collection, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		identity := collection.Identity()
		if prev, exists := identities[identity]; exists {
			return nil, fmt.Errorf("collections %q and %q derive the same identity %q", prev, collection.Info.Name, identity)
		}
		identities[identity] = collection.Info.Name
		collections[collection.Name()] = collection
	}

	return collections, nil
}

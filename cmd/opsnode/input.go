package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/opsnode/opsnode/pkg/models"
)

// decodeJSONFlag parses a flag value holding inline JSON, or the contents of
// a file when the value starts with '@'.
func decodeJSONFlag(value string, target any) error {
	if value == "" {
		return nil
	}

	raw := []byte(value)

	if path, ok := strings.CutPrefix(value, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		raw = data
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid JSON value: %w", err)
	}

	return nil
}

// decodeItems parses the --items flag. An absent or empty list yields one
// empty item so the node still runs once.
func decodeItems(value string) ([]models.Item, error) {
	items := []models.Item{}
	if err := decodeJSONFlag(value, &items); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		items = []models.Item{{}}
	}

	return items, nil
}

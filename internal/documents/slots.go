// Package documents implements the document registry: named upload slots
// with size and type constraints, verification-status tracking, and
// best-effort thumbnail generation.
package documents

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/skillora/instructor-os/internal/models"
)

//go:embed slots.yaml
var slotsYAML []byte

// SlotConfig describes the constraints of one document slot.
type SlotConfig struct {
	MaxFileSizeMB int      `yaml:"max_file_size_mb"`
	Multiple      bool     `yaml:"multiple"`
	Required      bool     `yaml:"required"`
	MimeTypes     []string `yaml:"mime_types"`
}

// MaxBytes returns the slot's size limit in bytes.
func (c SlotConfig) MaxBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Accepts reports whether the mime type is on the slot's allow-list.
func (c SlotConfig) Accepts(mime string) bool {
	for _, m := range c.MimeTypes {
		if m == mime {
			return true
		}
	}
	return false
}

type slotsFile struct {
	Slots map[models.DocumentSlot]SlotConfig `yaml:"slots"`
}

// LoadSlotConfig parses the embedded slot constraint table and checks that
// every known slot is configured.
func LoadSlotConfig() (map[models.DocumentSlot]SlotConfig, error) {
	var f slotsFile
	if err := yaml.Unmarshal(slotsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse slots config: %w", err)
	}

	for _, slot := range models.SlotOrder {
		cfg, ok := f.Slots[slot]
		if !ok {
			return nil, fmt.Errorf("slot %s missing from config", slot)
		}
		if cfg.MaxFileSizeMB <= 0 {
			return nil, fmt.Errorf("slot %s has no size limit", slot)
		}
		if len(cfg.MimeTypes) == 0 {
			return nil, fmt.Errorf("slot %s has no mime allow-list", slot)
		}
	}

	return f.Slots, nil
}

// MustSlotConfig is LoadSlotConfig for wiring paths where the embedded
// config is known good.
func MustSlotConfig() map[models.DocumentSlot]SlotConfig {
	cfg, err := LoadSlotConfig()
	if err != nil {
		panic(err)
	}
	return cfg
}

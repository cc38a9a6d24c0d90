//go:build rp2040 || rp2350

package config

import (
	"machine"

	"stepperhub/core"
)

// FlashStore keeps the settings image in the first erase block of the
// flash data region.
type FlashStore struct {
	maxAxes int
}

// NewFlashStore returns a store sized for maxAxes records.
func NewFlashStore(maxAxes int) *FlashStore {
	return &FlashStore{maxAxes: maxAxes}
}

// Load implements core.ConfigStore. An erased block holds no settings.
func (s *FlashStore) Load() ([]core.AxisSettings, error) {
	buf := make([]byte, ImageSize(s.maxAxes))
	if _, err := machine.Flash.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	settings, err := DecodeSettings(buf)
	if err == ErrNoImage {
		return nil, nil
	}
	return settings, err
}

// Save implements core.ConfigStore.
func (s *FlashStore) Save(settings []core.AxisSettings) error {
	image := EncodeSettings(settings)

	// WriteAt needs whole write blocks.
	wb := int(machine.Flash.WriteBlockSize())
	if pad := len(image) % wb; pad != 0 {
		padded := make([]byte, len(image)+wb-pad)
		copy(padded, image)
		for i := len(image); i < len(padded); i++ {
			padded[i] = 0xFF
		}
		image = padded
	}

	eb := machine.Flash.EraseBlockSize()
	blocks := (int64(len(image)) + eb - 1) / eb
	if err := machine.Flash.EraseBlocks(0, blocks); err != nil {
		return err
	}
	_, err := machine.Flash.WriteAt(image, 0)
	return err
}

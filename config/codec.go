package config

import (
	"encoding/binary"
	"errors"

	"stepperhub/core"
)

// Binary settings image, little endian:
//
//	magic   [4]byte "SHUB"
//	version uint8
//	count   uint8
//	pad     [2]byte
//	count * { name uint8, pad [3]byte, min, max, acc, prescaler int32 }
const (
	imageMagic      = "SHUB"
	imageVersion    = 1
	imageHeaderSize = 8
	imageRecordSize = 20
)

// ErrNoImage means the bytes do not hold saved settings.
var ErrNoImage = errors.New("no settings image")

// ErrImageTruncated means the image is shorter than its header claims.
var ErrImageTruncated = errors.New("settings image truncated")

// ImageSize returns the encoded size for n axes.
func ImageSize(n int) int {
	return imageHeaderSize + n*imageRecordSize
}

// EncodeSettings packs settings into the flash image format.
func EncodeSettings(settings []core.AxisSettings) []byte {
	if len(settings) > 255 {
		settings = settings[:255]
	}
	buf := make([]byte, ImageSize(len(settings)))
	copy(buf, imageMagic)
	buf[4] = imageVersion
	buf[5] = uint8(len(settings))

	for i, s := range settings {
		rec := buf[imageHeaderSize+i*imageRecordSize:]
		rec[0] = s.Name
		binary.LittleEndian.PutUint32(rec[4:], uint32(s.MinSPS))
		binary.LittleEndian.PutUint32(rec[8:], uint32(s.MaxSPS))
		binary.LittleEndian.PutUint32(rec[12:], uint32(s.AccelerationSPS))
		binary.LittleEndian.PutUint32(rec[16:], uint32(s.TickPrescaler))
	}
	return buf
}

// DecodeSettings unpacks a flash image. Erased or foreign data yields
// ErrNoImage.
func DecodeSettings(data []byte) ([]core.AxisSettings, error) {
	if len(data) < imageHeaderSize || string(data[:4]) != imageMagic || data[4] != imageVersion {
		return nil, ErrNoImage
	}
	n := int(data[5])
	if len(data) < ImageSize(n) {
		return nil, ErrImageTruncated
	}

	out := make([]core.AxisSettings, n)
	for i := range out {
		rec := data[imageHeaderSize+i*imageRecordSize:]
		out[i] = core.AxisSettings{
			Name:            rec[0],
			MinSPS:          int32(binary.LittleEndian.Uint32(rec[4:])),
			MaxSPS:          int32(binary.LittleEndian.Uint32(rec[8:])),
			AccelerationSPS: int32(binary.LittleEndian.Uint32(rec[12:])),
			TickPrescaler:   int32(binary.LittleEndian.Uint32(rec[16:])),
		}
	}
	return out, nil
}

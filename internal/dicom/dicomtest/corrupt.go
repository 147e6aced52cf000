package dicomtest

import (
	"encoding/binary"
	"fmt"
	"os"
)

// TruncatePixelData cuts a written file halfway through its PixelData value
// and keeps the declared length, like an interrupted transfer.
func TruncatePixelData(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file for truncation: %w", err)
	}

	i := pixelDataOffset(data)
	if i < 0 {
		return fmt.Errorf("no PixelData element in %s", path)
	}
	// Long form header: tag(4) + VR(2) + reserved(2) + VL(4)
	vl := binary.LittleEndian.Uint32(data[i+8 : i+12])
	cut := i + 12 + int(vl)/2

	return os.WriteFile(path, data[:cut], 0o644)
}

// pixelDataOffset finds the PixelData (7FE0,0010) OW/OB header, explicit VR
// little endian. The search runs backwards since pixel data closes the file.
func pixelDataOffset(data []byte) int {
	for i := len(data) - 12; i >= 0; i-- {
		if data[i] == 0xE0 && data[i+1] == 0x7F && data[i+2] == 0x10 && data[i+3] == 0x00 {
			if vr := string(data[i+4 : i+6]); vr == "OW" || vr == "OB" {
				return i
			}
		}
	}
	return -1
}

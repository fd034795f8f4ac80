package util

import (
	"fmt"
	"strings"
)

func makeCRC16Table(poly uint16) [256]uint16 {
	var tab [256]uint16
	for i := 0; i < 256; i++ {
		var crc uint16 = uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return tab
}

var crc16Tab = makeCRC16Table(0x1021)

func crc16CCITT(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		idx := byte((crc >> 8) ^ uint16(b))
		crc = (crc << 8) ^ crc16Tab[idx]
	}
	return crc
}

// ShortRef derives a short reference code from an alert id, e.g. "LL-3F9A".
// Hospitals read it back over the phone, so it stays four hex digits.
func ShortRef(id string) string {
	id = strings.ReplaceAll(strings.ToLower(id), "-", "")
	return fmt.Sprintf("LL-%04X", crc16CCITT([]byte(id)))
}

package metadata

import (
	"bytes"
	"encoding/binary"
)

// Helpers that assemble minimal little-endian TIFF/EXIF blocks.

const (
	tagExifIFD          = 0x8769
	tagGPSIFD           = 0x8825
	tagDateTimeOriginal = 0x9003
	tagDateTimeDigitzed = 0x9004
	tagGPSLatitudeRef   = 0x0001
	tagGPSLatitude      = 0x0002
	tagGPSLongitudeRef  = 0x0003
	tagGPSLongitude     = 0x0004

	typeASCII    = 2
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return ifdEntry{tag: tag, typ: typeLong, count: 1, data: b}
}

// rationalEntry encodes pairs of numerator, denominator.
func rationalEntry(tag uint16, pairs ...[2]uint32) ifdEntry {
	b := make([]byte, 0, 8*len(pairs))
	for _, p := range pairs {
		b = binary.LittleEndian.AppendUint32(b, p[0])
		b = binary.LittleEndian.AppendUint32(b, p[1])
	}
	return ifdEntry{tag: tag, typ: typeRational, count: uint32(len(pairs)), data: b}
}

func ifdSize(n int) int { return 2 + 12*n + 4 }

// buildTIFF lays out header, IFD0, the EXIF IFD, the GPS IFD and then all
// out-of-line values.
func buildTIFF(exifEntries, gpsEntries []ifdEntry) []byte {
	n0 := 0
	if len(exifEntries) > 0 {
		n0++
	}
	if len(gpsEntries) > 0 {
		n0++
	}
	off := 8 + ifdSize(n0)
	exifOff := off
	if len(exifEntries) > 0 {
		off += ifdSize(len(exifEntries))
	}
	gpsOff := off
	if len(gpsEntries) > 0 {
		off += ifdSize(len(gpsEntries))
	}
	dataOff := off

	var ifd0 []ifdEntry
	if len(exifEntries) > 0 {
		ifd0 = append(ifd0, longEntry(tagExifIFD, uint32(exifOff)))
	}
	if len(gpsEntries) > 0 {
		ifd0 = append(ifd0, longEntry(tagGPSIFD, uint32(gpsOff)))
	}

	var head, data bytes.Buffer
	le := binary.LittleEndian
	head.WriteString("II")
	_ = binary.Write(&head, le, uint16(42))
	_ = binary.Write(&head, le, uint32(8))

	writeIFD := func(entries []ifdEntry) {
		_ = binary.Write(&head, le, uint16(len(entries)))
		for _, e := range entries {
			_ = binary.Write(&head, le, e.tag)
			_ = binary.Write(&head, le, e.typ)
			_ = binary.Write(&head, le, e.count)
			if len(e.data) <= 4 {
				var v [4]byte
				copy(v[:], e.data)
				head.Write(v[:])
				continue
			}
			_ = binary.Write(&head, le, uint32(dataOff+data.Len()))
			data.Write(e.data)
			if data.Len()%2 == 1 {
				data.WriteByte(0)
			}
		}
		_ = binary.Write(&head, le, uint32(0))
	}
	writeIFD(ifd0)
	if len(exifEntries) > 0 {
		writeIFD(exifEntries)
	}
	if len(gpsEntries) > 0 {
		writeIFD(gpsEntries)
	}
	return append(head.Bytes(), data.Bytes()...)
}

// wrapJPEG places a TIFF block in an APP1 segment of an otherwise empty JPEG.
func wrapJPEG(tiffBlock []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiffBlock...)
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	_ = binary.Write(&b, binary.BigEndian, uint16(len(payload)+2))
	b.Write(payload)
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// parisGPS encodes 48.8566 N, 2.3522 E.
func parisGPS() []ifdEntry {
	return []ifdEntry{
		asciiEntry(tagGPSLatitudeRef, "N"),
		rationalEntry(tagGPSLatitude, [2]uint32{488566, 10000}, [2]uint32{0, 1}, [2]uint32{0, 1}),
		asciiEntry(tagGPSLongitudeRef, "E"),
		rationalEntry(tagGPSLongitude, [2]uint32{23522, 10000}, [2]uint32{0, 1}, [2]uint32{0, 1}),
	}
}

package encode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
)

// TIFF field types.
const (
	tiffShort = 3
	tiffLong  = 4
)

// Baseline TIFF tags written for every page.
const (
	tagNewSubfileType  = 254
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPageNumber      = 297
)

const (
	tiffHeaderSize  = 8
	tiffEntries     = 11
	tiffIFDSize     = 2 + tiffEntries*12 + 4
	subfilePage     = 2
	noCompression   = 1
	blackIsZero     = 1
	maxTIFFPageWalk = 1 << 16
)

var errNotTIFF = errors.New("not a TIFF stream")

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value [4]byte
}

func shortEntry(tag uint16, values ...uint16) ifdEntry {
	e := ifdEntry{tag: tag, typ: tiffShort, count: uint32(len(values))}
	for i, v := range values {
		binary.LittleEndian.PutUint16(e.value[i*2:], v)
	}
	return e
}

func longEntry(tag uint16, v uint32) ifdEntry {
	e := ifdEntry{tag: tag, typ: tiffLong, count: 1}
	binary.LittleEndian.PutUint32(e.value[:], v)
	return e
}

// encodeTIFF writes one uncompressed 8-bit BlackIsZero page per frame,
// little endian. Each page is laid out as pixel data followed by its IFD.
func encodeTIFF(w io.Writer, frames []*image.Gray) error {
	if len(frames) > math.MaxUint16 {
		return fmt.Errorf("too many pages: %d", len(frames))
	}
	b := frames[0].Bounds()
	width, height := b.Dx(), b.Dy()
	stripSize := width * height
	pageSize := stripSize + stripSize%2 + tiffIFDSize
	if int64(tiffHeaderSize)+int64(pageSize)*int64(len(frames)) > math.MaxUint32 {
		return fmt.Errorf("output exceeds 4 GiB")
	}

	bw := bufio.NewWriter(w)
	le := binary.LittleEndian

	var header [tiffHeaderSize]byte
	copy(header[:], "II")
	le.PutUint16(header[2:], 42)
	le.PutUint32(header[4:], uint32(tiffHeaderSize+stripSize+stripSize%2))
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}

	offset := uint32(tiffHeaderSize)
	for page, f := range frames {
		dataOffset := offset
		for y := 0; y < height; y++ {
			start := f.PixOffset(f.Rect.Min.X, f.Rect.Min.Y+y)
			if _, err := bw.Write(f.Pix[start : start+width]); err != nil {
				return err
			}
		}
		if stripSize%2 == 1 {
			if err := bw.WriteByte(0); err != nil {
				return err
			}
		}

		next := uint32(0)
		if page < len(frames)-1 {
			next = offset + uint32(pageSize) + uint32(stripSize+stripSize%2)
		}
		entries := []ifdEntry{
			longEntry(tagNewSubfileType, subfilePage),
			longEntry(tagImageWidth, uint32(width)),
			longEntry(tagImageLength, uint32(height)),
			shortEntry(tagBitsPerSample, 8),
			shortEntry(tagCompression, noCompression),
			shortEntry(tagPhotometric, blackIsZero),
			longEntry(tagStripOffsets, dataOffset),
			shortEntry(tagSamplesPerPixel, 1),
			longEntry(tagRowsPerStrip, uint32(height)),
			longEntry(tagStripByteCounts, uint32(stripSize)),
			shortEntry(tagPageNumber, uint16(page), uint16(len(frames))),
		}
		if err := writeIFD(bw, entries, next); err != nil {
			return err
		}
		offset += uint32(pageSize)
	}
	return bw.Flush()
}

func writeIFD(w io.Writer, entries []ifdEntry, next uint32) error {
	buf := make([]byte, 2+len(entries)*12+4)
	le := binary.LittleEndian
	le.PutUint16(buf, uint16(len(entries)))
	for i, e := range entries {
		p := buf[2+i*12:]
		le.PutUint16(p, e.tag)
		le.PutUint16(p[2:], e.typ)
		le.PutUint32(p[4:], e.count)
		copy(p[8:12], e.value[:])
	}
	le.PutUint32(buf[2+len(entries)*12:], next)
	_, err := w.Write(buf)
	return err
}

// CountPages returns the number of pages (IFDs) of a TIFF stream by walking
// the IFD chain. Both byte orders are accepted.
func CountPages(r io.ReaderAt) (int, error) {
	var header [tiffHeaderSize]byte
	if err := readAt(r, header[:], 0); err != nil {
		return 0, fmt.Errorf("%w: %v", errNotTIFF, err)
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, errNotTIFF
	}
	if order.Uint16(header[2:]) != 42 {
		return 0, errNotTIFF
	}

	seen := make(map[uint32]bool)
	pages := 0
	var buf [4]byte
	for off := order.Uint32(header[4:]); off != 0; {
		if seen[off] || pages >= maxTIFFPageWalk {
			return pages, fmt.Errorf("IFD chain loops at offset %d", off)
		}
		seen[off] = true

		if err := readAt(r, buf[:2], int64(off)); err != nil {
			return pages, fmt.Errorf("read IFD at %d: %w", off, err)
		}
		n := int64(order.Uint16(buf[:2]))
		if err := readAt(r, buf[:4], int64(off)+2+n*12); err != nil {
			return pages, fmt.Errorf("read next IFD offset at %d: %w", off, err)
		}
		pages++
		off = order.Uint32(buf[:4])
	}
	return pages, nil
}

// readAt fills p, tolerating io.EOF when the read ends exactly at the end of r.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	return err
}

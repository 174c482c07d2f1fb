package source

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const localFileHeaderSig = 0x04034b50

// zipEntryReader returns a reader over the decompressed bytes of the first
// entry of a zip stream, without seeking. The bulk feed ships exactly one
// TSV file per archive, so the central directory is never consulted and
// parsing can start while the download is still in flight.
func zipEntryReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, 64<<10)

	var hdr [30]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("read zip header: %w", err)
	}
	if binary.LittleEndian.Uint32(hdr[0:4]) != localFileHeaderSig {
		return nil, errors.New("not a zip local file header")
	}

	method := binary.LittleEndian.Uint16(hdr[8:10])
	compSize := binary.LittleEndian.Uint32(hdr[18:22])
	nameLen := binary.LittleEndian.Uint16(hdr[26:28])
	extraLen := binary.LittleEndian.Uint16(hdr[28:30])

	if _, err := io.CopyN(io.Discard, br, int64(nameLen)+int64(extraLen)); err != nil {
		return nil, fmt.Errorf("skip zip entry name: %w", err)
	}

	switch method {
	case 8: // DEFLATE — what the feed actually uses
		return flate.NewReader(br), nil
	case 0: // stored; only decodable when the size is in the local header
		if compSize == 0 {
			return nil, errors.New("stored zip entry with streamed size")
		}
		return io.LimitReader(br, int64(compSize)), nil
	default:
		return nil, fmt.Errorf("unsupported zip compression method %d", method)
	}
}

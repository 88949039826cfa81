package tfevents

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// headerSize is the length prefix plus its checksum.
const headerSize = 8 + 4

// footerSize is the data checksum.
const footerSize = 4

// ErrChecksum is returned when a record's checksum does not match its data.
var ErrChecksum = errors.New("tfevents: bad CRC-32C checksum")

// AppendRecord appends data framed as a tfevents record.
//
// FORMAT: https://github.com/tensorflow/tensorboard/blob/f3f26b46981da5bd46a5bb93fcf02d9eb7608bc1/tensorboard/summary/writer/record_writer.py#L31-L40
//
// (all integers little-endian)
//
//	uint64      length
//	uint32      masked CRC of length
//	byte        data[length]
//	uint32      masked CRC of data
func AppendRecord(dst []byte, data []byte) []byte {
	start := len(dst)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(data)))
	dst = binary.LittleEndian.AppendUint32(dst, MaskedCRC32C(dst[start:]))
	dst = append(dst, data...)
	dst = binary.LittleEndian.AppendUint32(dst, MaskedCRC32C(data))
	return dst
}

// DecodeRecord parses the record at the start of buf.
//
// It returns the record's data and the total number of bytes the record
// occupies. If buf does not hold a complete record yet, it returns n == 0
// and the minimum number of bytes needed in `need`.
func DecodeRecord(buf []byte) (data []byte, n int, need int, err error) {
	if len(buf) < headerSize {
		return nil, 0, headerSize, nil
	}

	lengthBytes := buf[:8]
	if MaskedCRC32C(lengthBytes) != binary.LittleEndian.Uint32(buf[8:12]) {
		return nil, 0, 0, fmt.Errorf("%w in record header", ErrChecksum)
	}

	length := binary.LittleEndian.Uint64(lengthBytes)
	total := uint64(headerSize) + length + footerSize
	if total > uint64(maxRecordSize) {
		return nil, 0, 0, errors.New("tfevents: record too large")
	}
	if uint64(len(buf)) < total {
		return nil, 0, int(total), nil
	}

	data = buf[headerSize : headerSize+length]
	if MaskedCRC32C(data) != binary.LittleEndian.Uint32(buf[headerSize+length:]) {
		return nil, 0, 0, fmt.Errorf("%w in record data", ErrChecksum)
	}

	return data, int(total), 0, nil
}

// maxRecordSize bounds a record so a corrupt length cannot cause a huge
// allocation.
const maxRecordSize = 1 << 30

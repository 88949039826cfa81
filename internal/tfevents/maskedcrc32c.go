package tfevents

import "hash/crc32"

// crc32cTable is the table for CRC-32 with the Castagnoli polynomial,
// which is what tfevents files use.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// MaskedCRC32C computes the "masked" CRC-32C checksum used in tfevents files.
//
// Format: https://github.com/tensorflow/tensorboard/blob/ae7d0b9250f5986dd0f0c238fcaf3c8d7f4312ca/tensorboard/compat/tensorflow_stub/pywrap_tensorflow.py#L39-L41
func MaskedCRC32C(data []byte) uint32 {
	checksum := crc32.Checksum(data, crc32cTable)
	return ((checksum >> 15) | (checksum << 17)) + 0xA282EAD8
}

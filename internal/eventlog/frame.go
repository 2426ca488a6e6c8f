package eventlog

import (
	"encoding/binary"
	"hash/crc32"

	goerrors "github.com/JulianZhan/trading-ledger/internal/errors"
)

// EventType identifies the category of an event frame. 1 is reserved for
// TRADE_CREATED; other values are passed through unvalidated by the codec
// and left for the validator to classify.
type EventType uint8

const (
	EventTypeUnknown      EventType = 0
	EventTypeTradeCreated EventType = 1
)

const (
	fileHeaderMagic   uint32 = 0x54524144 // "TRAD" little-endian
	fileHeaderVersion uint32 = 1

	// FileHeaderSize is the fixed size, in bytes, of the file header.
	FileHeaderSize = 16

	// frameFixedSize is the size of a frame's fixed fields (everything
	// except the payload), including the trailing CRC.
	frameFixedSize = 28
	// frameHeaderSize is the size of the fixed fields preceding the
	// payload: sequence_num, timestamp_ns, event_type, reserved, payload_length.
	frameHeaderSize = 24
)

var (
	// ErrBadHeader is returned by ParseFileHeader when the magic or
	// version fields don't match what this implementation understands.
	ErrBadHeader = goerrors.New("eventlog: bad file header")
	// ErrInsufficientData is returned when a buffer known to represent a
	// single, complete frame does not contain enough bytes to hold it.
	ErrInsufficientData = goerrors.New("eventlog: insufficient data")
	// ErrCorruptedFrame is returned when a frame's stored CRC does not
	// match the recomputed CRC over its preceding bytes.
	ErrCorruptedFrame = goerrors.New("eventlog: corrupted frame")
)

// crc32Table is the IEEE 802.3 polynomial table (zlib-compatible) — the
// same table zlib's crc32() uses, so frames written here checksum
// identically to a zlib-based implementation of this format.
var crc32Table = crc32.MakeTable(crc32.IEEE)

// FileHeader is the 16-byte record written once, at offset 0, when a log
// file is created.
type FileHeader struct {
	Magic    uint32
	Version  uint32
	Reserved uint64
}

// SerializeFileHeader renders a FileHeader as its on-disk 16 bytes.
func SerializeFileHeader() []byte {
	buf := make([]byte, FileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], fileHeaderMagic)
	binary.LittleEndian.PutUint32(buf[4:8], fileHeaderVersion)
	binary.LittleEndian.PutUint64(buf[8:16], 0)
	return buf
}

// ParseFileHeader decodes the first 16 bytes of a log file. It requires at
// least FileHeaderSize bytes and fails with ErrBadHeader if the magic or
// version fields are not recognized.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < FileHeaderSize {
		return FileHeader{}, ErrInsufficientData
	}
	h := FileHeader{
		Magic:    binary.LittleEndian.Uint32(data[0:4]),
		Version:  binary.LittleEndian.Uint32(data[4:8]),
		Reserved: binary.LittleEndian.Uint64(data[8:16]),
	}
	if h.Magic != fileHeaderMagic || h.Version != fileHeaderVersion {
		return FileHeader{}, ErrBadHeader
	}
	return h, nil
}

// Event is a single decoded event frame.
type Event struct {
	SequenceNum uint64
	TimestampNs int64
	EventType   EventType
	Payload     []byte
}

// Serialize renders an event as its on-disk frame: a 24-byte fixed header,
// the payload bytes verbatim, and a trailing 4-byte CRC-32 over everything
// that precedes it.
func Serialize(ev Event) []byte {
	n := len(ev.Payload)
	buf := make([]byte, frameFixedSize+n)
	encodeFrameHeader(buf, ev.SequenceNum, ev.TimestampNs, ev.EventType, uint32(n))
	copy(buf[frameHeaderSize:frameHeaderSize+n], ev.Payload)
	crc := crc32.Checksum(buf[:frameHeaderSize+n], crc32Table)
	binary.LittleEndian.PutUint32(buf[frameHeaderSize+n:], crc)
	return buf
}

// encodeFrameHeader writes the 24-byte fixed header (everything before the
// payload) into dst, which must be at least frameHeaderSize bytes.
func encodeFrameHeader(dst []byte, seq uint64, ts int64, et EventType, payloadLen uint32) {
	binary.LittleEndian.PutUint64(dst[0:8], seq)
	binary.LittleEndian.PutUint64(dst[8:16], uint64(ts))
	dst[16] = byte(et)
	dst[17] = 0
	dst[18] = 0
	dst[19] = 0
	binary.LittleEndian.PutUint32(dst[20:24], payloadLen)
}

// Parse decodes a single frame from data, which must contain at least one
// complete frame starting at offset 0. It fails with ErrInsufficientData
// if data is too short to hold the frame described by its own
// payload_length field, and with ErrCorruptedFrame if the stored CRC does
// not match the recomputed CRC over the preceding bytes.
func Parse(data []byte) (Event, error) {
	if len(data) < frameHeaderSize {
		return Event{}, ErrInsufficientData
	}
	payloadLen := binary.LittleEndian.Uint32(data[20:24])
	total := frameFixedSize + int(payloadLen)
	if len(data) < total {
		return Event{}, ErrInsufficientData
	}

	ev := Event{
		SequenceNum: binary.LittleEndian.Uint64(data[0:8]),
		TimestampNs: int64(binary.LittleEndian.Uint64(data[8:16])),
		EventType:   EventType(data[16]),
	}
	if payloadLen > 0 {
		ev.Payload = make([]byte, payloadLen)
		copy(ev.Payload, data[frameHeaderSize:frameHeaderSize+int(payloadLen)])
	}

	stored := binary.LittleEndian.Uint32(data[frameHeaderSize+int(payloadLen):])
	computed := crc32.Checksum(data[:frameHeaderSize+int(payloadLen)], crc32Table)
	if stored != computed {
		return Event{}, ErrCorruptedFrame
	}
	return ev, nil
}

// frameTotalSize returns the total on-disk size of a frame given its
// payload length, as read from the payload_length field at a known offset
// without needing the rest of the frame present.
func frameTotalSize(payloadLen uint32) int64 {
	return int64(frameFixedSize) + int64(payloadLen)
}

package store

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// Composite index keys are built by appending fixed-order segments. Segment
// encodings preserve the natural ordering of their values under bytewise key
// comparison, which is what makes criteria windows a single range scan.

// Identifier sentinels used as range bounds over the trailing id segment.
var (
	MinID = uuid.UUID{}
	MaxID = uuid.UUID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
)

// AppendString appends a terminator-framed string segment. Values must not
// contain the zero byte; identifiers and status labels never do.
func AppendString(key []byte, s string) []byte {
	key = append(key, s...)
	return append(key, 0x00)
}

// AppendUint64 appends a big-endian fixed-width segment.
func AppendUint64(key []byte, v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return append(key, buf[:]...)
}

// AppendTime appends a timestamp segment ordered by nanosecond precision.
func AppendTime(key []byte, t time.Time) []byte {
	if t.IsZero() {
		return AppendUint64(key, 0)
	}
	return AppendUint64(key, uint64(t.UnixNano()))
}

// MaxTime is the upper timestamp sentinel for unbounded criteria.
var MaxTime = time.Unix(0, 1<<62)

// AppendID appends the raw 16-byte identifier segment.
func AppendID(key []byte, id uuid.UUID) []byte {
	return append(key, id[:]...)
}

// IDFromSuffix extracts the trailing identifier segment of a composite key.
func IDFromSuffix(key []byte) (uuid.UUID, bool) {
	if len(key) < 16 {
		return uuid.UUID{}, false
	}
	var id uuid.UUID
	copy(id[:], key[len(key)-16:])
	return id, true
}

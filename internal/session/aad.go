package session

import (
	"encoding/binary"
	"time"

	"ridecipher/internal/domain"
)

var aadLabel = []byte("ridecipher/v1 record")

// associatedData binds a record to its session, ride, sequence and
// timestamp. Strings are length-prefixed so field boundaries are
// unambiguous. The timestamp is bound at millisecond precision so transports
// that drop sub-millisecond digits still authenticate.
func associatedData(id domain.SessionID, ride domain.RideID, seq uint64, ts time.Time) []byte {
	out := make([]byte, 0, len(aadLabel)+2+len(id)+2+len(ride)+8+8)
	out = append(out, aadLabel...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(id)))
	out = append(out, id...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(ride)))
	out = append(out, ride...)
	out = binary.BigEndian.AppendUint64(out, seq)
	out = binary.BigEndian.AppendUint64(out, uint64(ts.UnixMilli()))
	return out
}

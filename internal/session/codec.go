package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"ridecipher/internal/domain"
)

const codecVersion = 2

const (
	flagAltitude = 1 << iota
	flagAccuracy
	flagSpeed
	flagBearing
)

// fixed part: version, flags, latitude, longitude, unix seconds, nanos.
const codecHeaderLen = 1 + 1 + 8 + 8 + 8 + 4

// Timestamps must fit RFC 3339, the form they take on the wire.
const (
	minYear = 1
	maxYear = 9999
)

var errMalformedPlaintext = errors.New("malformed location plaintext")

// validateLocation rejects fixes that cannot be encoded faithfully.
func validateLocation(loc domain.Location) error {
	switch {
	case !finite(loc.Latitude) || loc.Latitude < -90 || loc.Latitude > 90:
		return fmt.Errorf("%w: latitude %v out of range", domain.ErrInvalidRecord, loc.Latitude)
	case !finite(loc.Longitude) || loc.Longitude < -180 || loc.Longitude > 180:
		return fmt.Errorf("%w: longitude %v out of range", domain.ErrInvalidRecord, loc.Longitude)
	case loc.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", domain.ErrInvalidRecord)
	}
	if y := loc.Timestamp.UTC().Year(); y < minYear || y > maxYear {
		return fmt.Errorf("%w: timestamp year %d out of range", domain.ErrInvalidRecord, y)
	}
	for name, v := range map[string]*float64{
		"altitude": loc.Altitude,
		"bearing":  loc.Bearing,
	} {
		if v != nil && !finite(*v) {
			return fmt.Errorf("%w: %s is not finite", domain.ErrInvalidRecord, name)
		}
	}
	for name, v := range map[string]*float64{
		"accuracy": loc.Accuracy,
		"speed":    loc.Speed,
	} {
		if v != nil && (!finite(*v) || *v < 0) {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidRecord, name)
		}
	}
	return nil
}

// encodeLocation writes the canonical byte form of loc:
//
//	version u8 | flags u8 | lat f64 | lng f64 | unix secs i64 | nanos u32 | optional f64...
//
// Optional fields follow in flag-bit order and are present only when their
// bit is set. All integers and floats are big-endian.
func encodeLocation(loc domain.Location) []byte {
	var flags byte
	opts := make([]float64, 0, 4)
	for _, f := range []struct {
		bit byte
		v   *float64
	}{
		{flagAltitude, loc.Altitude},
		{flagAccuracy, loc.Accuracy},
		{flagSpeed, loc.Speed},
		{flagBearing, loc.Bearing},
	} {
		if f.v != nil {
			flags |= f.bit
			opts = append(opts, *f.v)
		}
	}

	out := make([]byte, 0, codecHeaderLen+8*len(opts))
	out = append(out, codecVersion, flags)
	out = binary.BigEndian.AppendUint64(out, math.Float64bits(loc.Latitude))
	out = binary.BigEndian.AppendUint64(out, math.Float64bits(loc.Longitude))
	out = binary.BigEndian.AppendUint64(out, uint64(loc.Timestamp.Unix()))
	out = binary.BigEndian.AppendUint32(out, uint32(loc.Timestamp.Nanosecond()))
	for _, v := range opts {
		out = binary.BigEndian.AppendUint64(out, math.Float64bits(v))
	}
	return out
}

// decodeLocation is the inverse of encodeLocation.
func decodeLocation(b []byte) (domain.Location, error) {
	if len(b) < codecHeaderLen || b[0] != codecVersion {
		return domain.Location{}, errMalformedPlaintext
	}
	flags := b[1]
	if flags&^(flagAltitude|flagAccuracy|flagSpeed|flagBearing) != 0 {
		return domain.Location{}, errMalformedPlaintext
	}
	want := codecHeaderLen
	for bit := byte(flagAltitude); bit <= flagBearing; bit <<= 1 {
		if flags&bit != 0 {
			want += 8
		}
	}
	if len(b) != want {
		return domain.Location{}, errMalformedPlaintext
	}

	nanos := binary.BigEndian.Uint32(b[26:30])
	if nanos >= 1e9 {
		return domain.Location{}, errMalformedPlaintext
	}
	loc := domain.Location{
		Latitude:  math.Float64frombits(binary.BigEndian.Uint64(b[2:10])),
		Longitude: math.Float64frombits(binary.BigEndian.Uint64(b[10:18])),
		Timestamp: time.Unix(int64(binary.BigEndian.Uint64(b[18:26])), int64(nanos)).UTC(),
	}
	rest := b[codecHeaderLen:]
	next := func() *float64 {
		v := math.Float64frombits(binary.BigEndian.Uint64(rest[:8]))
		rest = rest[8:]
		return &v
	}
	if flags&flagAltitude != 0 {
		loc.Altitude = next()
	}
	if flags&flagAccuracy != 0 {
		loc.Accuracy = next()
	}
	if flags&flagSpeed != 0 {
		loc.Speed = next()
	}
	if flags&flagBearing != 0 {
		loc.Bearing = next()
	}
	return loc, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

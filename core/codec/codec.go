// Package codec converts between the colon separated location frame and
// model.LocationUpdate.
//
// A frame carries nine ordered fields:
//
//	vehicleId:srcLat:srcLon:curLat:curLon:desLat:desLon:status:timestamp
package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/livetrack/core/model"
)

// Delimiter separates the frame fields.
const Delimiter = ":"

// FieldCount is the exact number of fields in a frame.
const FieldCount = 9

var coordFields = [6]string{"srcLat", "srcLon", "curLat", "curLon", "desLat", "desLon"}

// Decode parses a raw frame. It never returns a partially populated update:
// on error the returned value is the zero LocationUpdate.
func Decode(raw []byte) (model.LocationUpdate, error) {
	parts := strings.Split(string(raw), Delimiter)
	if len(parts) != FieldCount {
		return model.LocationUpdate{}, &DecodeError{
			Err:   fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedFrame, FieldCount, len(parts)),
			Value: string(raw),
		}
	}
	if parts[0] == "" {
		return model.LocationUpdate{}, &DecodeError{Field: "vehicleId", Err: ErrMalformedFrame}
	}

	var coords [6]float64
	for i, name := range coordFields {
		v, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.LocationUpdate{}, &DecodeError{Field: name, Value: parts[i+1], Err: ErrInvalidNumber}
		}
		coords[i] = v
	}
	ts, err := strconv.ParseUint(parts[8], 10, 64)
	if err != nil {
		return model.LocationUpdate{}, &DecodeError{Field: "timestamp", Value: parts[8], Err: ErrInvalidNumber}
	}

	return model.LocationUpdate{
		VehicleID:  parts[0],
		SourceLat:  coords[0],
		SourceLon:  coords[1],
		CurrentLat: coords[2],
		CurrentLon: coords[3],
		DestLat:    coords[4],
		DestLon:    coords[5],
		Status:     parts[7],
		Timestamp:  ts,
	}, nil
}

// Encode renders an update as a frame. Floats use the shortest
// representation that parses back to the same value.
func Encode(u model.LocationUpdate) []byte {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []byte(strings.Join([]string{
		u.VehicleID,
		f(u.SourceLat), f(u.SourceLon),
		f(u.CurrentLat), f(u.CurrentLon),
		f(u.DestLat), f(u.DestLon),
		u.Status,
		strconv.FormatUint(u.Timestamp, 10),
	}, Delimiter))
}

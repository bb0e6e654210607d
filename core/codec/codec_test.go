package codec

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/model"
)

func TestDecode_Scenario(t *testing.T) {
	u, err := Decode([]byte("veh1:10.0:20.0:10.5:20.5:12.0:22.0:IN_TRANSIT:1000"))
	require.NoError(t, err)
	assert.Equal(t, model.LocationUpdate{
		VehicleID:  "veh1",
		SourceLat:  10.0,
		SourceLon:  20.0,
		CurrentLat: 10.5,
		CurrentLon: 20.5,
		DestLat:    12.0,
		DestLon:    22.0,
		Status:     "IN_TRANSIT",
		Timestamp:  1000,
	}, u)
}

func TestDecode_EmptyStatus(t *testing.T) {
	u, err := Decode([]byte("veh1:1:2:3:4:5:6::7"))
	require.NoError(t, err)
	assert.Equal(t, "", u.Status)
	assert.Equal(t, uint64(7), u.Timestamp)
}

func TestDecode_StatusWithSpaces(t *testing.T) {
	u, err := Decode([]byte("o1:1:2:3:4:5:6:In Transit:7"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusInTransit, u.Status)
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  error
		field string
	}{
		{"wrong arity", "veh1:10.0:20.0", ErrMalformedFrame, ""},
		{"too many fields", "veh1:1:2:3:4:5:6:S:7:8", ErrMalformedFrame, ""},
		{"empty frame", "", ErrMalformedFrame, ""},
		{"empty vehicle", ":1:2:3:4:5:6:S:7", ErrMalformedFrame, "vehicleId"},
		{"bad latitude", "veh1:x:2:3:4:5:6:S:7", ErrInvalidNumber, "srcLat"},
		{"bad dest lon", "veh1:1:2:3:4:5:abc:S:7", ErrInvalidNumber, "desLon"},
		{"nan", "veh1:1:2:NaN:4:5:6:S:7", ErrInvalidNumber, "curLat"},
		{"negative timestamp", "veh1:1:2:3:4:5:6:S:-7", ErrInvalidNumber, "timestamp"},
		{"float timestamp", "veh1:1:2:3:4:5:6:S:7.5", ErrInvalidNumber, "timestamp"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u, err := Decode([]byte(c.frame))
			require.Error(t, err)
			assert.True(t, errors.Is(err, c.want), "got %v", err)
			assert.Equal(t, model.LocationUpdate{}, u)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, c.field, de.Field)
		})
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		u := model.LocationUpdate{
			VehicleID:  "order-1",
			SourceLat:  r.Float64()*180 - 90,
			SourceLon:  r.Float64()*360 - 180,
			CurrentLat: r.Float64()*180 - 90,
			CurrentLon: r.Float64()*360 - 180,
			DestLat:    r.Float64()*180 - 90,
			DestLon:    r.Float64()*360 - 180,
			Status:     model.StatusInTransit,
			Timestamp:  r.Uint64(),
		}
		got, err := Decode(Encode(u))
		require.NoError(t, err)
		require.Equal(t, u, got)
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/livetrack/core/codec"
	"github.com/kilianp07/livetrack/core/model"
)

func TestDecode_Argument(t *testing.T) {
	frame := codec.Encode(model.LocationUpdate{VehicleID: "o1", CurrentLat: 17.4, Status: model.StatusInTransit, Timestamp: 7})
	var out bytes.Buffer
	decodeCmd.SetOut(&out)
	require.NoError(t, runDecode(decodeCmd, []string{string(frame)}))

	var got model.LocationUpdate
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "o1", got.VehicleID)
	assert.Equal(t, model.StatusInTransit, got.Status)
	assert.Equal(t, uint64(7), got.Timestamp)
}

func TestDecode_StdinReportsLine(t *testing.T) {
	good := codec.Encode(model.LocationUpdate{VehicleID: "o1"})
	var out bytes.Buffer
	decodeCmd.SetOut(&out)
	decodeCmd.SetIn(strings.NewReader(string(good) + "\n\nnot a frame\n"))
	err := runDecode(decodeCmd, nil)

	var de *codec.DecodeError
	assert.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "line 3")
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

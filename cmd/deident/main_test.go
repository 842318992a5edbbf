package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadio"
)

func TestRunRequiresBatchFile(t *testing.T) {
	assert.Equal(t, 1, run([]string{"-roads", "r.csv"}))
}

func TestRunRequiresRoadsFlag(t *testing.T) {
	assert.Equal(t, 1, run([]string{"batch.txt"}))
}

func TestRunVersionFlag(t *testing.T) {
	assert.Equal(t, 0, run([]string{"-version"}))
}

func TestRunMissingRoadFileFails(t *testing.T) {
	assert.Equal(t, 1, run([]string{"-roads", "/no/such/file.csv", "batch.txt"}))
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	line := orb.LineString{{-83.930, 35.955}, {-83.925, 35.955}}
	raw, err := wkb.Marshal(line)
	require.NoError(t, err)
	roadRow := strings.Join([]string{
		"1", "10", "11", "555", "1", "1", "1", "50", "50", "7", "false",
		"0x" + hex.EncodeToString(raw), "true", "",
	}, ",")
	roadPath := filepath.Join(dir, "roads.csv")
	require.NoError(t, os.WriteFile(roadPath, []byte(roadio.Header+"\n"+roadRow+"\n"), 0o644))

	var trip strings.Builder
	trip.WriteString("RxDevice,FileId,TxDevice,Gentime,TxRandom,MsgCount,DSecond,Latitude,Longitude,Elevation,Speed,Heading,Ax,Ay,Az,Yawrate,PathCount,RadiusOfCurve,Confidence\n")
	for i := 0; i < 8; i++ {
		fields := make([]string, 19)
		for j := range fields {
			fields[j] = "0"
		}
		fields[0] = "9"
		fields[1] = "1"
		fields[3] = fmt.Sprintf("%d", (i+1)*1000000)
		fields[7] = "35.9550000"
		fields[8] = fmt.Sprintf("%.7f", -83.930+float64(i)*0.0001)
		fields[10] = "8.00"
		fields[11] = "90.0"
		trip.WriteString(strings.Join(fields, ",") + "\n")
	}
	tripPath := filepath.Join(dir, "trip.csv")
	require.NoError(t, os.WriteFile(tripPath, []byte(trip.String()), 0o644))

	batchPath := filepath.Join(dir, "batch.txt")
	require.NoError(t, os.WriteFile(batchPath, []byte(tripPath+"\n"), 0o644))

	outDir := filepath.Join(dir, "out")
	code := run([]string{"-roads", roadPath, "-out", outDir, "-quiet", batchPath})
	assert.Equal(t, 0, code)

	if _, err := os.Stat(filepath.Join(outDir, "9_1.di.csv")); err != nil {
		t.Fatalf("expected de-identified output: %v", err)
	}
}

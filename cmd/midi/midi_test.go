package midi

import (
	"bytes"
	"testing"

	"github.com/gigurra/beatseek/cmd/common/chart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

// roundTrip writes s to bytes and reads it back so the test goes through the
// same decoder as real files.
func roundTrip(t *testing.T, s *smf.SMF) *smf.SMF {
	t.Helper()
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	read, err := smf.ReadFrom(&buf)
	require.NoError(t, err)
	return read
}

func TestChartFromSMF_TempoAndMeterChange(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(4, 4))
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(2*4*480, smf.MetaMeter(3, 4))
	tr.Add(0, smf.MetaTempo(90))
	tr.Close(3 * 480)
	require.NoError(t, s.Add(tr))

	text, err := ChartFromSMF(roundTrip(t, s))
	require.NoError(t, err)
	assert.Equal(t, "120:4, 120:4, 90:3  # bar 1\n", text)

	tl, err := chart.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, 3, tl.Measures())
	assert.InDelta(t, 6.0, tl.Duration(), 1e-3)
}

func TestChartFromSMF_CompoundMeterAndRows(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var tr smf.Track
	tr.Add(0, smf.MetaMeter(6, 8))
	tr.Add(0, smf.MetaTempo(60))
	tr.Close(5 * 6 * 240)
	require.NoError(t, s.Add(tr))

	text, err := ChartFromSMF(roundTrip(t, s))
	require.NoError(t, err)
	assert.Equal(t, "120:6, 120:6, 120:6, 120:6  # bar 1\n120:6  # bar 5\n", text)
}

func TestChartFromSMF_DefaultsWithoutMeta(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var tr smf.Track
	tr.Close(4 * 96)
	require.NoError(t, s.Add(tr))

	text, err := ChartFromSMF(roundTrip(t, s))
	require.NoError(t, err)
	assert.Equal(t, "120:4  # bar 1\n", text)
}

func TestChartFromSMF_Empty(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)

	var tr smf.Track
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	_, err := ChartFromSMF(roundTrip(t, s))
	assert.Error(t, err)
}

func TestFormatBPM(t *testing.T) {
	assert.Equal(t, "90", formatBPM(89.99995))
	assert.Equal(t, "133.333", formatBPM(133.33333))
	assert.Equal(t, "120", formatBPM(120))
}

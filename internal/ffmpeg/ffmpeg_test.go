package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"format": {"duration": "632.407000"},
		"streams": [
			{"codec_type": "video"},
			{"codec_type": "audio"}
		]
	}`)

	duration, err := parseProbeOutput(data)
	require.NoError(t, err)
	assert.InDelta(t, 632.407, duration, 0.001)
}

func TestParseProbeOutputNoAudioStream(t *testing.T) {
	data := []byte(`{
		"format": {"duration": "10.0"},
		"streams": [{"codec_type": "video"}]
	}`)

	_, err := parseProbeOutput(data)
	require.ErrorIs(t, err, ErrNoAudioTrack)
}

func TestParseProbeOutputMissingDuration(t *testing.T) {
	data := []byte(`{"format": {}, "streams": [{"codec_type": "audio"}]}`)

	_, err := parseProbeOutput(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not retrieve duration")
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	_, err := parseProbeOutput([]byte("not json"))
	require.Error(t, err)
}

func TestParseSilenceOutput(t *testing.T) {
	output := `
[silencedetect @ 0x7f8] silence_start: 42.123
[silencedetect @ 0x7f8] silence_end: 43.456 | silence_duration: 1.333
frame=  100 fps=0.0 q=-0.0 size=N/A time=00:01:00.00 bitrate=N/A
[silencedetect @ 0x7f8] silence_start: 120.5
[silencedetect @ 0x7f8] silence_end: 122.75 | silence_duration: 2.25
`

	intervals := parseSilenceOutput(output)
	require.Len(t, intervals, 2)
	assert.InDelta(t, 42.123, intervals[0].Start, 0.0001)
	assert.InDelta(t, 43.456, intervals[0].End, 0.0001)
	assert.InDelta(t, 120.5, intervals[1].Start, 0.0001)
	assert.InDelta(t, 122.75, intervals[1].End, 0.0001)
}

func TestParseSilenceOutputClampsNegativeStart(t *testing.T) {
	// silencedetect can report a slightly negative start at the head of a file
	output := `
[silencedetect @ 0x7f8] silence_start: -0.01
[silencedetect @ 0x7f8] silence_end: 1.5 | silence_duration: 1.51
`

	intervals := parseSilenceOutput(output)
	require.Len(t, intervals, 1)
	assert.Equal(t, 0.0, intervals[0].Start)
}

func TestParseSilenceOutputUnmatchedStart(t *testing.T) {
	output := `[silencedetect @ 0x7f8] silence_start: 590.0`

	intervals := parseSilenceOutput(output)
	assert.Empty(t, intervals)
}

func TestParseSilenceOutputEmpty(t *testing.T) {
	assert.Empty(t, parseSilenceOutput(""))
}

func TestSilenceIntervalMidpoint(t *testing.T) {
	s := SilenceInterval{Start: 10.0, End: 12.0}
	assert.Equal(t, 11.0, s.Midpoint())
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "90.500", formatSeconds(90.5))
	assert.Equal(t, "0.000", formatSeconds(0))
}

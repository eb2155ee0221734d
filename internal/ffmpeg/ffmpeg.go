package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoAudioTrack is returned when the source file contains no audio stream.
var ErrNoAudioTrack = errors.New("source has no audio track")

// FFProbeOutput defines the structure for ffprobe JSON output.
// We care about format.duration and the stream codec types.
type FFProbeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// SilenceInterval is a time range whose signal stays below the silence
// threshold for at least the minimum silence length. Times are in seconds
// relative to the start of the probed file.
type SilenceInterval struct {
	Start float64
	End   float64
}

// Midpoint returns the center of the interval in seconds.
func (s SilenceInterval) Midpoint() float64 {
	return (s.Start + s.End) / 2
}

// ProbeDuration uses ffprobe to get the duration of a media file in seconds.
// It fails with ErrNoAudioTrack when the file has no audio stream.
func ProbeDuration(ctx context.Context, filePath string) (float64, error) {
	// ffprobe -v quiet -print_format json -show_format -show_streams <input_file>
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v\nStderr: %s", err, stderr.String())
	}

	return parseProbeOutput(out.Bytes())
}

// parseProbeOutput extracts the duration from raw ffprobe JSON and verifies
// that at least one audio stream is present.
func parseProbeOutput(data []byte) (float64, error) {
	var probe FFProbeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("error unmarshalling ffprobe output: %v\nOutput: %s", err, string(data))
	}

	hasAudio := false
	for _, s := range probe.Streams {
		if s.CodecType == "audio" {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		return 0, ErrNoAudioTrack
	}

	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("could not retrieve duration from ffprobe output\nOutput: %s", string(data))
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing duration string '%s': %v", probe.Format.Duration, err)
	}

	return duration, nil
}

// ExtractAudio converts the input media file to a mono PCM WAV at the given
// sample rate, writing the result to outputFile. The transcoder's diagnostic
// output is embedded in the returned error on failure.
func ExtractAudio(ctx context.Context, inputFile, outputFile string, sampleRate int) error {
	// ffmpeg -y -i input -vn -ac 1 -ar 16000 -acodec pcm_s16le -f wav output
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputFile,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		outputFile,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %v\nStderr: %s", err, stderr.String())
	}
	return nil
}

// ExtractSegment writes the [start, end) window of inputFile to outputFile.
// Start and end are in seconds. The segment is re-encoded as PCM so cut
// points are sample-accurate regardless of container framing.
func ExtractSegment(ctx context.Context, inputFile, outputFile string, start, end float64) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputFile,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-ac", "1",
		"-acodec", "pcm_s16le",
		"-f", "wav",
		outputFile,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg segment extraction failed: %v\nStderr: %s", err, stderr.String())
	}
	return nil
}

// DetectSilences runs the silencedetect filter and returns the detected
// silence intervals. noiseDB is the amplitude threshold in dB (e.g. -40) and
// minSilence the minimum silence length in seconds.
//
// ffmpeg reports detections on stderr as:
//
//	[silencedetect @ 0x...] silence_start: 42.123
//	[silencedetect @ 0x...] silence_end: 43.456 | silence_duration: 1.333
func DetectSilences(ctx context.Context, filePath string, noiseDB, minSilence float64) ([]SilenceInterval, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", filePath,
		"-af", fmt.Sprintf("silencedetect=noise=%ddB:d=%.2f", int(noiseDB), minSilence),
		"-f", "null",
		"-",
	)

	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		return nil, fmt.Errorf("ffmpeg silencedetect failed: %v", err)
	}

	return parseSilenceOutput(string(output)), nil
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*([\d.]+)`)
)

// parseSilenceOutput extracts silence intervals from silencedetect stderr
// lines. A trailing silence_start with no matching silence_end is dropped.
func parseSilenceOutput(output string) []SilenceInterval {
	var intervals []SilenceInterval
	var currentStart float64
	hasStart := false

	for _, line := range strings.Split(output, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				if v < 0 {
					v = 0
				}
				currentStart = v
				hasStart = true
			}
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil && hasStart {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > currentStart {
				intervals = append(intervals, SilenceInterval{Start: currentStart, End: v})
			}
			hasStart = false
		}
	}

	return intervals
}

// formatSeconds formats a seconds value for ffmpeg -ss/-to arguments.
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

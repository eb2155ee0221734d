package audio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"videoscribe/transcription-service/internal/ffmpeg"
)

// Extractor converts an input media file into a normalized waveform suitable
// for the speech model: mono PCM WAV at a fixed sample rate.
type Extractor struct {
	SampleRate int
	log        *logrus.Logger

	extractFn func(ctx context.Context, inputFile, outputFile string, sampleRate int) error
}

// NewExtractor creates an Extractor producing audio at the given sample rate.
func NewExtractor(sampleRate int, log *logrus.Logger) *Extractor {
	return &Extractor{
		SampleRate: sampleRate,
		log:        log,
		extractFn:  ffmpeg.ExtractAudio,
	}
}

// Extract writes the normalized waveform for mediaPath into destDir and
// returns its path. Ownership of the artifact passes to the caller.
func (e *Extractor) Extract(ctx context.Context, mediaPath, destDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	outputPath := filepath.Join(destDir, fmt.Sprintf("%s_audio_%dhz.wav", base, e.SampleRate))

	e.log.WithFields(logrus.Fields{
		"source": mediaPath,
		"output": outputPath,
	}).Info("Extracting audio")

	if err := e.extractFn(ctx, mediaPath, outputPath, e.SampleRate); err != nil {
		return "", fmt.Errorf("audio extraction failed for %s: %w", mediaPath, err)
	}

	return outputPath, nil
}

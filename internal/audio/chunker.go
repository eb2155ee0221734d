package audio

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"videoscribe/transcription-service/internal/ffmpeg"
)

// Chunker splits a waveform into bounded-duration chunks, preferring cut
// points inside detected silence so words are not split mid-utterance.
//
// Guarantee: the emitted chunks cover [0, total_duration) contiguously with
// no gaps and no overlaps, in strictly increasing ChunkID order. When no
// silence is found near an ideal cut point the chunker falls back to a
// fixed-length cut.
type Chunker struct {
	// TargetDuration is the ideal chunk length in seconds.
	TargetDuration float64
	// SearchWindow bounds, in seconds, how far from the ideal cut point a
	// silence interval may be to be used as the cut.
	SearchWindow float64
	// SilenceThreshold is the silencedetect amplitude threshold in dB.
	SilenceThreshold float64
	// MinSilence is the minimum silence length in seconds.
	MinSilence float64

	log *logrus.Logger

	// ffmpeg interactions, injectable for tests.
	probeFn  func(ctx context.Context, path string) (float64, error)
	detectFn func(ctx context.Context, path string, noiseDB, minSilence float64) ([]ffmpeg.SilenceInterval, error)
	exportFn func(ctx context.Context, src, dst string, start, end float64) error
}

// NewChunker creates a Chunker with the given policy values.
func NewChunker(targetDuration, searchWindow, silenceThreshold, minSilence float64, log *logrus.Logger) *Chunker {
	return &Chunker{
		TargetDuration:   targetDuration,
		SearchWindow:     searchWindow,
		SilenceThreshold: silenceThreshold,
		MinSilence:       minSilence,
		log:              log,
		probeFn:          ffmpeg.ProbeDuration,
		detectFn:         ffmpeg.DetectSilences,
		exportFn:         ffmpeg.ExtractSegment,
	}
}

// Chunk splits audioPath into chunks, exporting each window as a WAV file
// under destDir. The caller owns the returned chunk files.
func (c *Chunker) Chunk(ctx context.Context, audioPath, destDir string) ([]Chunk, error) {
	totalDuration, err := c.probeFn(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe audio duration: %w", err)
	}
	if totalDuration <= 0 {
		return nil, fmt.Errorf("audio file %s has non-positive duration", audioPath)
	}

	// Short sources become a single chunk spanning the whole waveform.
	if totalDuration <= c.TargetDuration {
		chunk := Chunk{
			ChunkID:   0,
			StartTime: 0,
			EndTime:   totalDuration,
			Duration:  totalDuration,
		}
		if chunk.FilePath, err = c.export(ctx, audioPath, destDir, chunk); err != nil {
			return nil, err
		}
		return []Chunk{chunk}, nil
	}

	silences, err := c.detectFn(ctx, audioPath, c.SilenceThreshold, c.MinSilence)
	if err != nil {
		// Zero detected silence degrades to fixed-length cuts; a failed
		// detection run is treated the same way.
		c.log.WithError(err).Warn("Silence detection failed, falling back to fixed-length cuts")
		silences = nil
	}

	c.log.WithFields(logrus.Fields{
		"duration_s":    totalDuration,
		"silence_count": len(silences),
	}).Info("Planning audio chunks")

	var chunks []Chunk
	offset := 0.0
	for chunkID := 0; offset < totalDuration; chunkID++ {
		ideal := math.Min(offset+c.TargetDuration, totalDuration)
		cut := c.bestCutPoint(silences, offset, ideal)
		if cut > totalDuration {
			cut = totalDuration
		}

		chunk := Chunk{
			ChunkID:   chunkID,
			StartTime: offset,
			EndTime:   cut,
			Duration:  cut - offset,
		}
		if chunk.FilePath, err = c.export(ctx, audioPath, destDir, chunk); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)

		offset = cut
	}

	return chunks, nil
}

// bestCutPoint returns the midpoint of the silence interval closest to the
// ideal cut point within the search window and strictly after offset, or the
// ideal point itself when no silence qualifies.
func (c *Chunker) bestCutPoint(silences []ffmpeg.SilenceInterval, offset, ideal float64) float64 {
	// The final chunk always ends exactly at the total duration.
	best := ideal
	minDistance := math.Inf(1)

	for _, s := range silences {
		mid := s.Midpoint()
		distance := math.Abs(mid - ideal)
		if distance < c.SearchWindow && mid > offset && distance < minDistance {
			minDistance = distance
			best = mid
		}
	}

	return best
}

// export writes the chunk's audio window to a chunk-local artifact and
// returns its path.
func (c *Chunker) export(ctx context.Context, audioPath, destDir string, chunk Chunk) (string, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	chunkPath := filepath.Join(destDir, fmt.Sprintf("%s_chunk_%03d.wav", base, chunk.ChunkID))

	if err := c.exportFn(ctx, audioPath, chunkPath, chunk.StartTime, chunk.EndTime); err != nil {
		return "", fmt.Errorf("failed to export chunk %d: %w", chunk.ChunkID, err)
	}
	return chunkPath, nil
}

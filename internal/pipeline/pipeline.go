// Package pipeline wires the transcription stages together: audio
// extraction, silence-aware chunking, rate-limited concurrent transcription,
// aggregation, and sentence reconstruction. Fatal stage errors are converted
// into a structured error result so callers always receive a uniform
// success/error shape.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"videoscribe/transcription-service/internal/audio"
	"videoscribe/transcription-service/internal/config"
	"videoscribe/transcription-service/internal/transcribe"
)

// rateWindow is the rolling window the request-rate cap applies to.
const rateWindow = time.Minute

// Segment is a chunk-level transcript entry in the output boundary shape.
type Segment struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// Result is the structured outcome handed to external collaborators. Status
// is "success" or "error"; on error the text and segment lists are empty and
// Error explains the failure.
type Result struct {
	Status           string                `json:"status"`
	Error            string                `json:"error,omitempty"`
	FullText         string                `json:"full_text"`
	Segments         []Segment             `json:"segments"`
	SentenceSegments []transcribe.Sentence `json:"sentence_segments,omitempty"`
	Metadata         *transcribe.Metadata  `json:"metadata,omitempty"`
}

// Extractor converts a media file into a normalized waveform in destDir.
type Extractor interface {
	Extract(ctx context.Context, mediaPath, destDir string) (string, error)
}

// Chunker splits a waveform into bounded chunks exported under destDir.
type Chunker interface {
	Chunk(ctx context.Context, audioPath, destDir string) ([]audio.Chunk, error)
}

// Transcriber turns chunks into one ChunkTranscript each.
type Transcriber interface {
	TranscribeChunks(ctx context.Context, chunks []audio.Chunk) ([]transcribe.ChunkTranscript, error)
}

// Pipeline runs the full transcription flow for one media file per Run call.
type Pipeline struct {
	cfg         config.Config
	extractor   Extractor
	chunker     Chunker
	transcriber Transcriber
	log         *logrus.Logger
}

// New builds a Pipeline with the real stage implementations.
func New(cfg config.Config, log *logrus.Logger) *Pipeline {
	client := transcribe.NewClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	limiter := transcribe.NewRateLimiter(cfg.RequestsPerMinute, rateWindow)

	return &Pipeline{
		cfg:       cfg,
		extractor: audio.NewExtractor(cfg.SampleRate, log),
		chunker: audio.NewChunker(
			cfg.ChunkDuration, cfg.SearchWindow, cfg.SilenceThreshold, cfg.MinSilence, log),
		transcriber: transcribe.NewTranscriber(
			client, limiter, cfg.MaxWorkers, cfg.RequestTimeout, cfg.DefaultConfidence, log),
		log: log,
	}
}

// Run transcribes the media file at mediaPath and returns the structured
// result. It never returns a Go error: every failure becomes a Result with
// Status "error".
func (p *Pipeline) Run(ctx context.Context, mediaPath string) *Result {
	// Preconditions, checked before any I/O.
	if p.cfg.APIKey == "" {
		return errorResult("missing API credential: GROQ_API_KEY is not set")
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return errorResult(fmt.Sprintf("source file not found: %v", err))
	}

	runID := uuid.NewString()
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "source": mediaPath})

	// Every temporary artifact of this run lives under one run-scoped
	// directory, reclaimed on all exit paths.
	tempDir := filepath.Join(tempRoot(p.cfg), "transcribe-"+runID)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return errorResult(fmt.Sprintf("failed to create temp dir: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			log.WithError(err).Warn("Failed to clean up temporary artifacts")
		}
	}()

	log.Info("Starting transcription run")

	audioPath, err := p.extractor.Extract(ctx, mediaPath, tempDir)
	if err != nil {
		return errorResult(fmt.Sprintf("audio extraction failed: %v", err))
	}

	chunks, err := p.chunker.Chunk(ctx, audioPath, tempDir)
	if err != nil {
		return errorResult(fmt.Sprintf("audio chunking failed: %v", err))
	}
	log.WithField("chunks", len(chunks)).Info("Audio chunked")

	results, err := p.transcriber.TranscribeChunks(ctx, chunks)
	if err != nil {
		// cancellation: partial results are discarded, never surfaced
		return errorResult(fmt.Sprintf("transcription failed: %v", err))
	}

	agg, err := transcribe.Aggregate(results)
	if err != nil {
		return errorResult(fmt.Sprintf("transcription failed: %v", err))
	}

	sentences := transcribe.ReconstructSentences(agg)

	log.WithFields(logrus.Fields{
		"successful_chunks": agg.Metadata.SuccessfulChunks,
		"total_chunks":      agg.Metadata.TotalChunks,
		"sentences":         agg.Metadata.TotalSentences,
	}).Info("Transcription run completed")

	segments := make([]Segment, len(agg.Chunks))
	for i, c := range agg.Chunks {
		segments[i] = Segment{
			ChunkID:    c.ChunkID,
			Text:       c.Text,
			StartTime:  c.StartTime,
			EndTime:    c.EndTime,
			Confidence: c.Confidence,
			Language:   c.Language,
		}
	}

	metadata := agg.Metadata
	return &Result{
		Status:           "success",
		FullText:         agg.FullText,
		Segments:         segments,
		SentenceSegments: sentences,
		Metadata:         &metadata,
	}
}

func errorResult(msg string) *Result {
	return &Result{
		Status:   "error",
		Error:    msg,
		FullText: "",
		Segments: []Segment{},
	}
}

func tempRoot(cfg config.Config) string {
	if cfg.TempDir != "" {
		return cfg.TempDir
	}
	return os.TempDir()
}

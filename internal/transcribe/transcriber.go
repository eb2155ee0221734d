package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"videoscribe/transcription-service/internal/audio"
	"videoscribe/transcription-service/internal/worker"
)

// Transcriber dispatches one concurrent transcription task per audio chunk
// through a bounded worker pool, throttled by a shared sliding-window rate
// limiter. A chunk's failure is isolated: it becomes an error-marked
// ChunkTranscript and never aborts sibling chunks.
type Transcriber struct {
	backend           Backend
	limiter           *RateLimiter
	workers           int
	requestTimeout    time.Duration
	defaultConfidence float64
	log               *logrus.Logger
}

// NewTranscriber wires a Transcriber.
func NewTranscriber(backend Backend, limiter *RateLimiter, workers int, requestTimeout time.Duration, defaultConfidence float64, log *logrus.Logger) *Transcriber {
	return &Transcriber{
		backend:           backend,
		limiter:           limiter,
		workers:           workers,
		requestTimeout:    requestTimeout,
		defaultConfidence: defaultConfidence,
		log:               log,
	}
}

// chunkJob transcribes a single chunk and reports its result on a channel.
type chunkJob struct {
	chunk   audio.Chunk
	t       *Transcriber
	results chan<- ChunkTranscript
}

func (j *chunkJob) ID() string {
	return fmt.Sprintf("chunk_%03d", j.chunk.ChunkID)
}

func (j *chunkJob) Execute(ctx context.Context) {
	j.results <- j.t.transcribeChunk(ctx, j.chunk)
}

// TranscribeChunks transcribes every chunk and returns one ChunkTranscript
// per chunk. Dispatch follows ChunkID order; completion order is
// unconstrained, so results come back unordered. On cancellation the run is
// aborted and already-gathered partial results are discarded.
func (t *Transcriber) TranscribeChunks(ctx context.Context, chunks []audio.Chunk) ([]ChunkTranscript, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	t.log.WithFields(logrus.Fields{
		"chunks":  len(chunks),
		"workers": t.workers,
	}).Info("Dispatching chunk transcriptions")

	results := make(chan ChunkTranscript, len(chunks))
	pool := worker.NewPool(t.workers, len(chunks), t.log)
	pool.Start(ctx)

	for _, chunk := range chunks {
		if err := pool.Submit(ctx, &chunkJob{chunk: chunk, t: t, results: results}); err != nil {
			break
		}
	}
	pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("transcription aborted: %w", err)
	}

	close(results)
	transcripts := make([]ChunkTranscript, 0, len(chunks))
	for tr := range results {
		transcripts = append(transcripts, tr)
	}
	return transcripts, nil
}

// transcribeChunk runs one backend call under the rate limiter and the
// per-call deadline, converting any failure into an error-marked transcript.
func (t *Transcriber) transcribeChunk(ctx context.Context, chunk audio.Chunk) ChunkTranscript {
	if err := t.limiter.Acquire(ctx); err != nil {
		return t.failedTranscript(chunk, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.requestTimeout)
	defer cancel()

	result, err := t.backend.Transcribe(callCtx, chunk.FilePath)
	if err != nil {
		t.log.WithError(err).WithField("chunk_id", chunk.ChunkID).Warn("Chunk transcription failed")
		return t.failedTranscript(chunk, err)
	}

	confidence := t.defaultConfidence
	if result.Confidence != nil {
		confidence = *result.Confidence
	}

	t.log.WithFields(logrus.Fields{
		"chunk_id": chunk.ChunkID,
		"words":    len(result.Words),
	}).Debug("Chunk transcribed")

	return ChunkTranscript{
		ChunkID:    chunk.ChunkID,
		Text:       result.Text,
		StartTime:  chunk.StartTime,
		EndTime:    chunk.EndTime,
		Confidence: confidence,
		Language:   result.Language,
		Words:      result.Words,
	}
}

func (t *Transcriber) failedTranscript(chunk audio.Chunk, err error) ChunkTranscript {
	return ChunkTranscript{
		ChunkID:   chunk.ChunkID,
		Text:      fmt.Sprintf("%s: %v]", errorSentinel, err),
		StartTime: chunk.StartTime,
		EndTime:   chunk.EndTime,
		Err:       err,
	}
}

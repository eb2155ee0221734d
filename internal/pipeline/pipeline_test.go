package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoscribe/transcription-service/internal/audio"
	"videoscribe/transcription-service/internal/config"
	"videoscribe/transcription-service/internal/transcribe"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeExtractor struct {
	path string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _, destDir string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(destDir, f.path)
	if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type fakeChunker struct {
	chunks []audio.Chunk
	err    error
}

func (f *fakeChunker) Chunk(context.Context, string, string) ([]audio.Chunk, error) {
	return f.chunks, f.err
}

type fakeTranscriber struct {
	results []transcribe.ChunkTranscript
	err     error
}

func (f *fakeTranscriber) TranscribeChunks(context.Context, []audio.Chunk) ([]transcribe.ChunkTranscript, error) {
	return f.results, f.err
}

func writeMediaFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp4")
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	return path
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Defaults()
	cfg.APIKey = "test-key"
	cfg.TempDir = t.TempDir()
	return cfg
}

func newTestPipeline(cfg config.Config, e Extractor, c Chunker, tr Transcriber) *Pipeline {
	p := New(cfg, testLogger())
	p.extractor = e
	p.chunker = c
	p.transcriber = tr
	return p
}

func twoChunks() []audio.Chunk {
	return []audio.Chunk{
		{ChunkID: 0, StartTime: 0, EndTime: 300, Duration: 300, FilePath: "/tmp/c0.wav"},
		{ChunkID: 1, StartTime: 300, EndTime: 420, Duration: 120, FilePath: "/tmp/c1.wav"},
	}
}

func TestRunSuccess(t *testing.T) {
	results := []transcribe.ChunkTranscript{
		{ChunkID: 1, Text: "Second chunk.", StartTime: 300, EndTime: 420, Confidence: 0.7},
		{ChunkID: 0, Text: "First chunk.", StartTime: 0, EndTime: 300, Confidence: 0.9, Language: "en"},
	}

	p := newTestPipeline(testConfig(t),
		&fakeExtractor{path: "talk_audio.wav"},
		&fakeChunker{chunks: twoChunks()},
		&fakeTranscriber{results: results},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	require.Equal(t, "success", res.Status)
	assert.Empty(t, res.Error)
	assert.Equal(t, "First chunk. Second chunk.", res.FullText)

	require.Len(t, res.Segments, 2)
	assert.Equal(t, 0, res.Segments[0].ChunkID)
	assert.Equal(t, "en", res.Segments[0].Language)
	assert.Equal(t, 1, res.Segments[1].ChunkID)

	require.NotNil(t, res.Metadata)
	assert.Equal(t, 2, res.Metadata.TotalChunks)
	assert.Equal(t, 2, res.Metadata.SuccessfulChunks)
	assert.InDelta(t, 0.8, res.Metadata.AvgConfidence, 1e-9)
	assert.Equal(t, 4, res.Metadata.TotalWords)

	require.NotEmpty(t, res.SentenceSegments)
	assert.Equal(t, res.Metadata.TotalSentences, len(res.SentenceSegments))
}

func TestRunMissingAPIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = ""
	p := newTestPipeline(cfg, &fakeExtractor{}, &fakeChunker{}, &fakeTranscriber{})

	res := p.Run(context.Background(), writeMediaFile(t))
	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Error, "missing API credential")
	assert.Empty(t, res.FullText)
	assert.Empty(t, res.Segments)
}

func TestRunMissingSourceFile(t *testing.T) {
	p := newTestPipeline(testConfig(t), &fakeExtractor{}, &fakeChunker{}, &fakeTranscriber{})

	res := p.Run(context.Background(), "/nonexistent/talk.mp4")
	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Error, "source file not found")
}

func TestRunExtractionFailure(t *testing.T) {
	p := newTestPipeline(testConfig(t),
		&fakeExtractor{err: errors.New("ffmpeg audio extraction failed: exit status 1\nStderr: moov atom not found")},
		&fakeChunker{}, &fakeTranscriber{},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	assert.Equal(t, "error", res.Status)
	// the transcoder diagnostic is carried through to the caller
	assert.Contains(t, res.Error, "moov atom not found")
}

func TestRunAllChunksFailed(t *testing.T) {
	results := []transcribe.ChunkTranscript{
		{ChunkID: 0, Text: "[ERROR: boom]", Err: errors.New("boom")},
		{ChunkID: 1, Text: "[ERROR: boom]", Err: errors.New("boom")},
	}
	p := newTestPipeline(testConfig(t),
		&fakeExtractor{path: "talk_audio.wav"},
		&fakeChunker{chunks: twoChunks()},
		&fakeTranscriber{results: results},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	assert.Equal(t, "error", res.Status)
	assert.Equal(t, "", res.FullText)
	assert.Empty(t, res.Segments)
}

func TestRunPartialFailureStillSucceeds(t *testing.T) {
	results := []transcribe.ChunkTranscript{
		{ChunkID: 0, Text: "Only survivor.", StartTime: 0, EndTime: 300, Confidence: 0.9},
		{ChunkID: 1, Text: "[ERROR: timeout]", Err: errors.New("timeout")},
	}
	p := newTestPipeline(testConfig(t),
		&fakeExtractor{path: "talk_audio.wav"},
		&fakeChunker{chunks: twoChunks()},
		&fakeTranscriber{results: results},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	require.Equal(t, "success", res.Status)
	assert.Equal(t, "Only survivor.", res.FullText)
	assert.Equal(t, 1, res.Metadata.SuccessfulChunks)
	assert.Equal(t, 2, res.Metadata.TotalChunks)
}

func TestRunCancellationIsError(t *testing.T) {
	p := newTestPipeline(testConfig(t),
		&fakeExtractor{path: "talk_audio.wav"},
		&fakeChunker{chunks: twoChunks()},
		&fakeTranscriber{err: fmt.Errorf("transcription aborted: %w", context.Canceled)},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Error, "aborted")
}

func TestRunCleansUpTempDir(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(cfg,
		&fakeExtractor{path: "talk_audio.wav"},
		&fakeChunker{chunks: twoChunks()},
		&fakeTranscriber{results: []transcribe.ChunkTranscript{
			{ChunkID: 0, Text: "hi.", Confidence: 1},
		}},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	require.Equal(t, "success", res.Status)

	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "run-scoped temp artifacts were not reclaimed")
}

func TestRunCleansUpTempDirOnFailure(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(cfg,
		&fakeExtractor{path: "talk_audio.wav"},
		&fakeChunker{err: errors.New("chunking blew up")},
		&fakeTranscriber{},
	)

	res := p.Run(context.Background(), writeMediaFile(t))
	require.Equal(t, "error", res.Status)

	entries, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

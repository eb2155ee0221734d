package transcribe

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoValidTranscripts signals that every chunk failed and no transcript
// could be assembled. The pipeline reports it as a structured error result.
var ErrNoValidTranscripts = errors.New("no chunks were transcribed successfully")

// Aggregate filters out failed chunks, restores ChunkID order, and merges
// the survivors into one transcript with aggregate quality metrics. The
// result is deterministic for a given survivor set regardless of input
// order.
func Aggregate(results []ChunkTranscript) (*Aggregated, error) {
	valid := make([]ChunkTranscript, 0, len(results))
	for _, r := range results {
		if !r.Failed() {
			valid = append(valid, r)
		}
	}

	if len(valid) == 0 {
		return nil, ErrNoValidTranscripts
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].ChunkID < valid[j].ChunkID })

	texts := make([]string, len(valid))
	confidenceSum := 0.0
	for i, r := range valid {
		texts[i] = r.Text
		confidenceSum += r.Confidence
	}
	fullText := strings.Join(texts, " ")

	return &Aggregated{
		FullText: fullText,
		Chunks:   valid,
		Metadata: Metadata{
			TotalChunks:      len(results),
			SuccessfulChunks: len(valid),
			AvgConfidence:    confidenceSum / float64(len(valid)),
			TotalWords:       len(strings.Fields(fullText)),
		},
	}, nil
}

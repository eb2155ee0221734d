package transcribe

import "strings"

// errorSentinel marks the text of a chunk whose transcription failed. Kept
// alongside the Err field so downstream filtering survives serialization.
const errorSentinel = "[ERROR"

// Word is a single transcribed word with timing data in seconds. Inside a
// ChunkTranscript the timestamps are relative to the chunk start; inside a
// Sentence they are absolute.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ChunkTranscript is the transcription of one audio chunk. Produced
// one-to-one from a chunk and immutable afterwards.
type ChunkTranscript struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
	// Words holds word-level timestamps relative to the chunk start, when
	// the backend supplied them.
	Words []Word `json:"words,omitempty"`
	Err   error  `json:"-"`
}

// Failed reports whether this chunk's transcription failed.
func (t ChunkTranscript) Failed() bool {
	return t.Err != nil || strings.HasPrefix(t.Text, errorSentinel)
}

// Metadata carries aggregate quality metrics for one transcription run.
type Metadata struct {
	TotalChunks         int     `json:"total_chunks"`
	SuccessfulChunks    int     `json:"successful_chunks"`
	AvgConfidence       float64 `json:"avg_confidence"`
	TotalWords          int     `json:"total_words"`
	TotalSentences      int     `json:"total_sentences"`
	AvgSentenceDuration float64 `json:"avg_sentence_duration"`
}

// Aggregated is the merged, ordered transcript of all successful chunks.
type Aggregated struct {
	FullText string            `json:"full_text"`
	Chunks   []ChunkTranscript `json:"chunks"`
	Metadata Metadata          `json:"metadata"`
}

// Sentence is a sentence-level segment with absolute, source-file-relative
// timestamps. This is the pipeline's terminal artifact.
type Sentence struct {
	// SentenceID concatenates the originating chunk ID and a zero-based
	// per-chunk ordinal, keeping identifiers unique and sortable.
	SentenceID string  `json:"sentence_id"`
	Text       string  `json:"text"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	WordCount  int     `json:"word_count"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
	// Estimated is set when timing was distributed proportionally because
	// word timestamps were unavailable.
	Estimated bool `json:"estimated,omitempty"`
}

package audio

// Chunk is a bounded-duration slice of the source audio, the unit of work
// submitted to the transcription backend. Chunks are produced in increasing
// ChunkID order; across one source the [StartTime, EndTime) windows cover
// the full duration with no gaps and no overlaps.
type Chunk struct {
	ChunkID   int     `json:"chunk_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
	// FilePath is the chunk-local audio artifact. Owned by the pipeline run;
	// reclaimed after aggregation.
	FilePath string `json:"-"`
}

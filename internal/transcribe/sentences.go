package transcribe

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// sentenceEndRe matches a word that terminates a sentence.
	sentenceEndRe = regexp.MustCompile(`[.!?]+$`)
	// punctuationRunRe locates sentence-ending punctuation runs inside chunk
	// text when no word timestamps are available.
	punctuationRunRe = regexp.MustCompile(`[.!?]+`)
)

// ReconstructSentences regroups every chunk's text into sentence-level
// segments with absolute timestamps and attaches sentence metrics to the
// aggregate metadata. Chunks with word timestamps get precise sentence
// times; the rest fall back to proportional estimation flagged via
// Sentence.Estimated.
func ReconstructSentences(agg *Aggregated) []Sentence {
	var sentences []Sentence
	for _, chunk := range agg.Chunks {
		if len(chunk.Words) > 0 {
			sentences = append(sentences, preciseSentences(chunk)...)
		} else {
			sentences = append(sentences, estimatedSentences(chunk)...)
		}
	}

	agg.Metadata.TotalSentences = len(sentences)
	if len(sentences) > 0 {
		total := 0.0
		for _, s := range sentences {
			total += s.Duration
		}
		agg.Metadata.AvgSentenceDuration = total / float64(len(sentences))
	}

	return sentences
}

// preciseSentences walks the chunk's words in order, closing a sentence on
// every word that ends with terminal punctuation. A trailing buffer without
// terminal punctuation is still emitted as a final run-on sentence.
func preciseSentences(chunk ChunkTranscript) []Sentence {
	var sentences []Sentence
	var buffer []Word
	ordinal := 0

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		parts := make([]string, len(buffer))
		for i, w := range buffer {
			parts[i] = strings.TrimSpace(w.Word)
		}
		first, last := buffer[0], buffer[len(buffer)-1]
		sentences = append(sentences, Sentence{
			SentenceID: sentenceID(chunk.ChunkID, ordinal),
			Text:       strings.TrimSpace(strings.Join(parts, " ")),
			StartTime:  first.Start,
			EndTime:    last.End,
			Duration:   last.End - first.Start,
			WordCount:  len(buffer),
			Confidence: chunk.Confidence,
			Words:      buffer,
		})
		buffer = nil
		ordinal++
	}

	for _, w := range chunk.Words {
		// shift word timestamps from chunk-relative to absolute
		buffer = append(buffer, Word{
			Word:  w.Word,
			Start: chunk.StartTime + w.Start,
			End:   chunk.StartTime + w.End,
		})
		if sentenceEndRe.MatchString(strings.TrimSpace(w.Word)) {
			flush()
		}
	}
	flush()

	return sentences
}

// estimatedSentences splits the chunk text on sentence-ending punctuation
// and distributes the chunk's duration across the fragments proportionally
// to each fragment's share of the total character count. Every emitted
// sentence is flagged Estimated.
func estimatedSentences(chunk ChunkTranscript) []Sentence {
	fragments := splitSentenceFragments(chunk.Text)

	// No detectable sentences: the whole chunk becomes a single sentence
	// spanning the original chunk window.
	if len(fragments) == 0 {
		return []Sentence{{
			SentenceID: sentenceID(chunk.ChunkID, 0),
			Text:       strings.TrimSpace(chunk.Text),
			StartTime:  chunk.StartTime,
			EndTime:    chunk.EndTime,
			Duration:   chunk.EndTime - chunk.StartTime,
			WordCount:  len(strings.Fields(chunk.Text)),
			Confidence: chunk.Confidence,
			Estimated:  true,
		}}
	}

	totalChars := 0
	for _, frag := range fragments {
		totalChars += len(frag)
	}
	totalDuration := chunk.EndTime - chunk.StartTime

	sentences := make([]Sentence, 0, len(fragments))
	current := chunk.StartTime
	for i, frag := range fragments {
		ratio := float64(len(frag)) / float64(totalChars)
		end := current + totalDuration*ratio
		if i == len(fragments)-1 {
			// absorb float drift so spans sum exactly to the chunk window
			end = chunk.EndTime
		}
		sentences = append(sentences, Sentence{
			SentenceID: sentenceID(chunk.ChunkID, i),
			Text:       frag,
			StartTime:  current,
			EndTime:    end,
			Duration:   end - current,
			WordCount:  len(strings.Fields(frag)),
			Confidence: chunk.Confidence,
			Estimated:  true,
		})
		current = end
	}

	return sentences
}

// splitSentenceFragments cuts text after each sentence-ending punctuation
// run, keeping the punctuation with its fragment and discarding empties.
func splitSentenceFragments(text string) []string {
	var fragments []string
	prev := 0
	for _, loc := range punctuationRunRe.FindAllStringIndex(text, -1) {
		frag := strings.TrimSpace(text[prev:loc[1]])
		if frag != "" {
			fragments = append(fragments, frag)
		}
		prev = loc[1]
	}
	if tail := strings.TrimSpace(text[prev:]); tail != "" {
		fragments = append(fragments, tail)
	}
	return fragments
}

func sentenceID(chunkID, ordinal int) string {
	return fmt.Sprintf("%d_%d", chunkID, ordinal)
}

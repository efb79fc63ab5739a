package poller

// Chunk is one bounded sub-range of the requested epoch window.
type Chunk struct {
	Start int64
	End   int64
}

// PlanChunks carves [startEpoch, endEpoch] into windows of at most
// chunkDurationSeconds, walking backward from endEpoch so any undersized
// remainder sits at the start of the range, then reverses into
// chronological order. A zero-width range still yields one chunk.
func PlanChunks(startEpoch, endEpoch, chunkDurationSeconds int64) []Chunk {
	if startEpoch == endEpoch {
		return []Chunk{{Start: startEpoch, End: endEpoch}}
	}

	var chunks []Chunk
	currentEnd := endEpoch
	for currentEnd > startEpoch {
		currentStart := currentEnd - chunkDurationSeconds
		if currentStart < startEpoch {
			currentStart = startEpoch
		}
		chunks = append(chunks, Chunk{Start: currentStart, End: currentEnd})
		currentEnd = currentStart
	}

	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}
	return chunks
}

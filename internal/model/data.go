package model

import (
	"time"
)

// LineBatch is the set of raw lines one transport poll returned
type LineBatch struct {
	SourceID  string
	Records   []Record
	Timestamp time.Time
}

// NewLineBatch creates an empty batch for the given transport
func NewLineBatch(sourceID string) *LineBatch {
	return &LineBatch{
		SourceID:  sourceID,
		Records:   make([]Record, 0),
		Timestamp: time.Now(),
	}
}

// AddLine appends a raw line received at the given time
func (b *LineBatch) AddLine(line string, receivedAt time.Time) {
	b.Records = append(b.Records, Record{
		Source:    b.SourceID,
		Timestamp: receivedAt,
		Line:      line,
	})
}

// Size returns the number of lines in the batch
func (b *LineBatch) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Records)
}

// ToMap converts the batch to a map representation
func (b *LineBatch) ToMap() map[string]interface{} {
	lines := make([]string, len(b.Records))
	for i, record := range b.Records {
		lines[i] = record.Line
	}

	return map[string]interface{}{
		"source_id": b.SourceID,
		"timestamp": b.Timestamp,
		"lines":     lines,
	}
}

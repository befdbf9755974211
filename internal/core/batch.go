package core

// DefaultBatchSize is the number of pending readings that triggers a flush.
const DefaultBatchSize = 10

// ReadingSink receives flushed readings in generation order.
type ReadingSink interface {
	WriteReadings(readings []Reading) error
}

// PendingBatch buffers expanded readings until they are flushed to a sink.
type PendingBatch struct {
	sink      ReadingSink
	threshold int
	items     []Reading
	flushed   int
}

// NewPendingBatch creates a batch that flushes into sink. A non-positive
// threshold falls back to DefaultBatchSize.
func NewPendingBatch(sink ReadingSink, threshold int) *PendingBatch {
	if threshold <= 0 {
		threshold = DefaultBatchSize
	}
	return &PendingBatch{
		sink:      sink,
		threshold: threshold,
		items:     make([]Reading, 0, threshold),
	}
}

// Append adds readings to the end of the buffer.
func (b *PendingBatch) Append(readings ...Reading) {
	b.items = append(b.items, readings...)
}

// Len returns the number of buffered readings.
func (b *PendingBatch) Len() int {
	return len(b.items)
}

// Flushed returns the number of readings handed to the sink so far.
func (b *PendingBatch) Flushed() int {
	return b.flushed
}

// ShouldFlush reports whether the buffer has reached its threshold.
func (b *PendingBatch) ShouldFlush() bool {
	return len(b.items) >= b.threshold
}

// Flush hands the whole buffer to the sink in one call and clears it.
// Flushing an empty buffer does nothing. On a sink error the buffer is
// left intact.
func (b *PendingBatch) Flush() error {
	if len(b.items) == 0 {
		return nil
	}
	if err := b.sink.WriteReadings(b.items); err != nil {
		return err
	}
	b.flushed += len(b.items)
	// fresh backing array: the sink may retain the slice it was given
	b.items = make([]Reading, 0, b.threshold)
	return nil
}

package systems

// DelayBuffer is a fixed-size circular buffer that returns samples a fixed
// number of pushes late. Until it has filled, Push returns the oldest sample
// seen so far.
type DelayBuffer[T any] struct {
	buf   []T
	head  int // next write slot
	count int
}

// NewDelayBuffer creates a buffer with the given delay in ticks.
// Negative delays are treated as zero.
func NewDelayBuffer[T any](delay int) *DelayBuffer[T] {
	if delay < 0 {
		delay = 0
	}
	return &DelayBuffer[T]{buf: make([]T, delay+1)}
}

// Push stores x and returns the sample from Delay() pushes ago.
func (d *DelayBuffer[T]) Push(x T) T {
	d.buf[d.head] = x
	d.head = (d.head + 1) % len(d.buf)
	if d.count < len(d.buf) {
		d.count++
	}
	if d.count < len(d.buf) {
		return d.buf[0]
	}
	return d.buf[d.head]
}

// Delay returns the configured delay in ticks.
func (d *DelayBuffer[T]) Delay() int { return len(d.buf) - 1 }

// Len returns how many samples are held.
func (d *DelayBuffer[T]) Len() int { return d.count }

// Reset drops every sample.
func (d *DelayBuffer[T]) Reset() {
	clear(d.buf)
	d.head = 0
	d.count = 0
}

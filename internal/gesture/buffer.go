package gesture

// Point2D is one wrist position sample in normalized image coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultBufferSize is the number of samples kept while recording.
const DefaultBufferSize = 60

// MotionBuffer is a fixed-capacity ring of motion samples. When full, the
// oldest sample is overwritten.
type MotionBuffer struct {
	points []Point2D
	start  int
	size   int
}

// NewMotionBuffer creates a buffer holding at most capacity samples.
// A non-positive capacity falls back to DefaultBufferSize.
func NewMotionBuffer(capacity int) *MotionBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &MotionBuffer{points: make([]Point2D, capacity)}
}

// Append adds a sample, evicting the oldest one if the buffer is full.
func (b *MotionBuffer) Append(p Point2D) {
	capacity := len(b.points)
	if b.size < capacity {
		b.points[(b.start+b.size)%capacity] = p
		b.size++
		return
	}
	b.points[b.start] = p
	b.start = (b.start + 1) % capacity
}

// Clear empties the buffer without releasing storage.
func (b *MotionBuffer) Clear() {
	b.start = 0
	b.size = 0
}

// Len returns the number of samples held.
func (b *MotionBuffer) Len() int {
	return b.size
}

// Cap returns the buffer capacity.
func (b *MotionBuffer) Cap() int {
	return len(b.points)
}

// Points returns a copy of the samples, oldest first.
func (b *MotionBuffer) Points() []Point2D {
	return b.Recent(b.size)
}

// Recent returns a copy of the newest n samples, oldest first.
func (b *MotionBuffer) Recent(n int) []Point2D {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	capacity := len(b.points)
	out := make([]Point2D, n)
	offset := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.points[(b.start+offset+i)%capacity]
	}
	return out
}

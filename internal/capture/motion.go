package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change counted as motion.
	DiffThreshold = 25
)

// MotionDetector compares consecutive frames and reports the share of pixels
// that changed. The recognizer runs only while the scene is moving.
type MotionDetector struct {
	threshold   float64
	mu          sync.Mutex
	prevGray    gocv.Mat
	initialized bool

	// scratch buffers reused across frames
	gray, blurred, diff, mask gocv.Mat
}

// NewMotionDetector creates a detector that fires when more than threshold
// percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	m := &MotionDetector{threshold: threshold}
	m.alloc()
	return m
}

func (m *MotionDetector) alloc() {
	m.prevGray = gocv.NewMat()
	m.gray = gocv.NewMat()
	m.blurred = gocv.NewMat()
	m.diff = gocv.NewMat()
	m.mask = gocv.NewMat()
}

func (m *MotionDetector) release() {
	for _, mat := range []*gocv.Mat{&m.prevGray, &m.gray, &m.blurred, &m.diff, &m.mask} {
		mat.Close()
	}
}

// Detect reports whether frame differs from the previous frame by more than
// the threshold, and the changed percentage. The first frame after creation
// or Reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &m.gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&m.gray)
	}
	gocv.GaussianBlur(m.gray, &m.blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || m.prevGray.Rows() != m.blurred.Rows() || m.prevGray.Cols() != m.blurred.Cols() {
		m.blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	gocv.AbsDiff(m.blurred, m.prevGray, &m.diff)
	gocv.Threshold(m.diff, &m.mask, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(m.mask)) / float64(m.mask.Rows()*m.mask.Cols()) * 100.0
	m.blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline; the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.initialized = false
}

// Close releases the OpenCV buffers. The detector stays usable: a later
// Detect starts from a fresh baseline.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.release()
	m.alloc()
	m.initialized = false
}

// SetThreshold changes the changed-pixel percentage. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}

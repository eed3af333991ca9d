package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame differencing parameters.
const (
	blurKernel    = 21
	diffLevel     = 25
	DefaultMotion = 1.0 // percent of pixels
	DefaultLinger = 2 * time.Second
)

// MotionGate decides whether a frame is worth running landmark inference on.
// It stays open while the scene changes and for Linger after it settles, so a
// hand that holds still mid-gesture keeps being tracked briefly.
type MotionGate struct {
	mu        sync.Mutex
	threshold float64
	linger    time.Duration
	prev      gocv.Mat
	primed    bool
	lastMove  time.Time
	now       func() time.Time
}

// NewMotionGate creates a gate that opens when more than threshold percent of
// pixels change between frames. The gate starts open.
func NewMotionGate(threshold float64, linger time.Duration) *MotionGate {
	if threshold <= 0 {
		threshold = DefaultMotion
	}
	if linger <= 0 {
		linger = DefaultLinger
	}
	g := &MotionGate{
		threshold: threshold,
		linger:    linger,
		prev:      gocv.NewMat(),
		now:       time.Now,
	}
	g.lastMove = g.now()
	return g
}

// Open feeds frame to the gate and reports whether inference should run.
func (g *MotionGate) Open(frame *gocv.Mat) bool {
	changed := g.ChangedPercent(frame)

	g.mu.Lock()
	defer g.mu.Unlock()
	if changed > g.threshold {
		g.lastMove = g.now()
	}
	return g.now().Sub(g.lastMove) <= g.linger
}

// ChangedPercent returns the share of pixels, in percent, that differ
// noticeably from the previous frame. The first frame primes the gate and
// reports 0.
func (g *MotionGate) ChangedPercent(frame *gocv.Mat) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !g.primed || blurred.Rows() != g.prev.Rows() || blurred.Cols() != g.prev.Cols() {
		blurred.CopyTo(&g.prev)
		g.primed = true
		return 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, g.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, diffLevel, 255, gocv.ThresholdBinary)

	blurred.CopyTo(&g.prev)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total) * 100
}

// Reset forgets the reference frame and reopens the gate.
func (g *MotionGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.primed = false
	g.lastMove = g.now()
}

// Close releases the reference frame.
func (g *MotionGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prev.Close()
	g.prev = gocv.NewMat()
	g.primed = false
}

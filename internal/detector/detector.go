package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrScriptNotFound is returned when the MediaPipe service script cannot be located.
var ErrScriptNotFound = errors.New("mediapipe_service.py not found")

// Detector is the landmark source consumed by the tracker.
type Detector interface {
	// Detect analyzes a video frame and returns every hand it observed.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	// Hands scored below it are dropped before they reach the tracker.
	MinConfidence float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      2,
		MinConfidence: 0.5,
	}
}

// filterHands applies the MaxHands and MinConfidence limits in model order.
func (c Config) filterHands(hands []HandLandmarks) []HandLandmarks {
	out := make([]HandLandmarks, 0, len(hands))
	for _, h := range hands {
		if h.Score < c.MinConfidence {
			continue
		}
		if c.MaxHands > 0 && len(out) >= c.MaxHands {
			break
		}
		out = append(out, h)
	}
	return out
}

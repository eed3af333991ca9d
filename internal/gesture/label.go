// Package gesture turns hand landmarks into discrete gesture labels and a
// screen cursor.
package gesture

// Label is the discrete gesture recognized for one hand on one tick.
type Label string

const (
	Idle     Label = "IDLE"
	Point    Label = "POINT"
	Pinch    Label = "PINCH"
	Clutch   Label = "CLUTCH"
	Fist     Label = "FIST"
	OpenPalm Label = "OPEN_PALM"
)

// Labels lists every label in classification priority order, IDLE last.
var Labels = []Label{Fist, Clutch, Pinch, Point, OpenPalm, Idle}

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	for _, known := range Labels {
		if l == known {
			return true
		}
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

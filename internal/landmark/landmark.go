// Package landmark defines the body and hand landmark types produced by
// pose detection and consumed by gesture recognition.
package landmark

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Fingertips lists the five fingertip landmark indices.
var Fingertips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Knuckles lists the four finger MCP knuckle indices. The thumb MCP sits too
// close to the wrist to discriminate between poses and is not included.
var Knuckles = [4]int{IndexMCP, MiddleMCP, RingMCP, PinkyMCP}

// ErrLandmarkCount is returned when a hand arrives with the wrong number of
// landmark points.
var ErrLandmarkCount = errors.New("wrong landmark count")

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected for a single hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Distance returns the Euclidean distance between two 3D points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HandFromPoints builds a HandLandmarks from a decoded point slice,
// validating the landmark count at the boundary so downstream code can rely
// on the fixed shape.
func HandFromPoints(points []Point3D, handedness string, score float64) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(points), NumLandmarks)
	}
	h := &HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(h.Points[:], points)
	return h, nil
}

// Normalize translates the hand landmarks so that the wrist sits exactly at
// the origin. Scale differences between hands are divided out at comparison
// time using Size, so normalization itself does not rescale.
// Returns a new HandLandmarks instance; the receiver is not modified.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i] = Point3D{
			X: h.Points[i].X - wrist.X,
			Y: h.Points[i].Y - wrist.Y,
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	return normalized
}

// Size returns the spread of the hand: the largest distance from the wrist
// to any other landmark. A hand close to the camera and the same hand far
// away differ only by this factor. Returns 0 for a nil or degenerate hand.
func (h *HandLandmarks) Size() float64 {
	if h == nil {
		return 0
	}

	wrist := h.Points[Wrist]
	var max float64
	for i := 0; i < NumLandmarks; i++ {
		if d := Distance(h.Points[i], wrist); d > max {
			max = d
		}
	}
	return max
}

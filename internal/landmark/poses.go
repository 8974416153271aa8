package landmark

// Preset hand poses used by the mock detector, seed data, and tests. All
// poses share the same wrist and knuckle base so they differ the way real
// poses do: only in how the fingers and thumb sit.

// basePalm fills the wrist, thumb CMC and the four finger knuckles common to
// every preset pose.
func basePalm() HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}
	h.Points[Wrist] = Point3D{X: 0.50, Y: 0.88, Z: 0.0}
	h.Points[ThumbCMC] = Point3D{X: 0.57, Y: 0.80, Z: 0.01}
	h.Points[IndexMCP] = Point3D{X: 0.56, Y: 0.58, Z: -0.01}
	h.Points[MiddleMCP] = Point3D{X: 0.51, Y: 0.56, Z: -0.01}
	h.Points[RingMCP] = Point3D{X: 0.46, Y: 0.58, Z: -0.01}
	h.Points[PinkyMCP] = Point3D{X: 0.41, Y: 0.61, Z: -0.01}
	return h
}

// OpenPalm returns a hand with all five fingers extended.
func OpenPalm() *HandLandmarks {
	h := basePalm()

	// Thumb spread to the side
	h.Points[ThumbMCP] = Point3D{X: 0.63, Y: 0.72, Z: 0.02}
	h.Points[ThumbIP] = Point3D{X: 0.67, Y: 0.67, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: 0.70, Y: 0.62, Z: 0.03}

	// Index finger extended
	h.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.46, Z: -0.01}
	h.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.38, Z: -0.02}
	h.Points[IndexTip] = Point3D{X: 0.58, Y: 0.30, Z: -0.02}

	// Middle finger extended
	h.Points[MiddlePIP] = Point3D{X: 0.51, Y: 0.43, Z: -0.01}
	h.Points[MiddleDIP] = Point3D{X: 0.51, Y: 0.34, Z: -0.02}
	h.Points[MiddleTip] = Point3D{X: 0.51, Y: 0.26, Z: -0.02}

	// Ring finger extended
	h.Points[RingPIP] = Point3D{X: 0.45, Y: 0.45, Z: -0.01}
	h.Points[RingDIP] = Point3D{X: 0.44, Y: 0.37, Z: -0.02}
	h.Points[RingTip] = Point3D{X: 0.44, Y: 0.29, Z: -0.02}

	// Pinky extended
	h.Points[PinkyPIP] = Point3D{X: 0.39, Y: 0.50, Z: -0.01}
	h.Points[PinkyDIP] = Point3D{X: 0.38, Y: 0.43, Z: -0.02}
	h.Points[PinkyTip] = Point3D{X: 0.37, Y: 0.37, Z: -0.02}

	return &h
}

// Fist returns a hand with all fingers curled into the palm and the thumb
// wrapped across them.
func Fist() *HandLandmarks {
	h := basePalm()

	// Thumb wrapped over the curled fingers
	h.Points[ThumbMCP] = Point3D{X: 0.61, Y: 0.72, Z: 0.02}
	h.Points[ThumbIP] = Point3D{X: 0.60, Y: 0.64, Z: 0.04}
	h.Points[ThumbTip] = Point3D{X: 0.56, Y: 0.60, Z: 0.05}

	curlFingers(&h)
	return &h
}

// ThumbsUp returns a fist with the thumb extended straight up.
func ThumbsUp() *HandLandmarks {
	h := basePalm()

	// Thumb pointing up
	h.Points[ThumbMCP] = Point3D{X: 0.59, Y: 0.70, Z: 0.01}
	h.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.61, Z: 0.01}
	h.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.52, Z: 0.01}

	curlFingers(&h)
	return &h
}

// Victory returns a hand with index and middle fingers extended in a V,
// ring and pinky curled, thumb folded across them.
func Victory() *HandLandmarks {
	h := basePalm()

	// Thumb folded across the curled fingers
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.72, Z: 0.02}
	h.Points[ThumbIP] = Point3D{X: 0.57, Y: 0.66, Z: 0.04}
	h.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.63, Z: 0.05}

	// Index finger extended, angled outward
	h.Points[IndexPIP] = Point3D{X: 0.59, Y: 0.46, Z: -0.01}
	h.Points[IndexDIP] = Point3D{X: 0.61, Y: 0.38, Z: -0.02}
	h.Points[IndexTip] = Point3D{X: 0.63, Y: 0.31, Z: -0.02}

	// Middle finger extended, angled inward
	h.Points[MiddlePIP] = Point3D{X: 0.49, Y: 0.44, Z: -0.01}
	h.Points[MiddleDIP] = Point3D{X: 0.48, Y: 0.35, Z: -0.02}
	h.Points[MiddleTip] = Point3D{X: 0.47, Y: 0.27, Z: -0.02}

	// Ring finger curled
	h.Points[RingPIP] = Point3D{X: 0.46, Y: 0.50, Z: -0.07}
	h.Points[RingDIP] = Point3D{X: 0.46, Y: 0.58, Z: -0.09}
	h.Points[RingTip] = Point3D{X: 0.46, Y: 0.67, Z: -0.07}

	// Pinky curled
	h.Points[PinkyPIP] = Point3D{X: 0.41, Y: 0.53, Z: -0.06}
	h.Points[PinkyDIP] = Point3D{X: 0.41, Y: 0.60, Z: -0.08}
	h.Points[PinkyTip] = Point3D{X: 0.42, Y: 0.68, Z: -0.06}

	return &h
}

// curlFingers folds all four fingers back toward the palm.
func curlFingers(h *HandLandmarks) {
	h.Points[IndexPIP] = Point3D{X: 0.56, Y: 0.50, Z: -0.07}
	h.Points[IndexDIP] = Point3D{X: 0.56, Y: 0.58, Z: -0.09}
	h.Points[IndexTip] = Point3D{X: 0.56, Y: 0.66, Z: -0.07}

	h.Points[MiddlePIP] = Point3D{X: 0.51, Y: 0.48, Z: -0.07}
	h.Points[MiddleDIP] = Point3D{X: 0.51, Y: 0.57, Z: -0.09}
	h.Points[MiddleTip] = Point3D{X: 0.51, Y: 0.66, Z: -0.07}

	h.Points[RingPIP] = Point3D{X: 0.46, Y: 0.50, Z: -0.07}
	h.Points[RingDIP] = Point3D{X: 0.46, Y: 0.58, Z: -0.09}
	h.Points[RingTip] = Point3D{X: 0.46, Y: 0.67, Z: -0.07}

	h.Points[PinkyPIP] = Point3D{X: 0.41, Y: 0.53, Z: -0.06}
	h.Points[PinkyDIP] = Point3D{X: 0.41, Y: 0.60, Z: -0.08}
	h.Points[PinkyTip] = Point3D{X: 0.42, Y: 0.68, Z: -0.06}
}

// Scaled returns a copy of the hand scaled about its wrist by factor, as if
// the hand moved closer to or farther from the camera.
func Scaled(h *HandLandmarks, factor float64) *HandLandmarks {
	if h == nil {
		return nil
	}
	out := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	wrist := h.Points[Wrist]
	for i := 0; i < NumLandmarks; i++ {
		out.Points[i] = Point3D{
			X: wrist.X + (h.Points[i].X-wrist.X)*factor,
			Y: wrist.Y + (h.Points[i].Y-wrist.Y)*factor,
			Z: wrist.Z + (h.Points[i].Z-wrist.Z)*factor,
		}
	}
	return out
}

// Translated returns a copy of the hand shifted by the given offsets.
func Translated(h *HandLandmarks, dx, dy, dz float64) *HandLandmarks {
	if h == nil {
		return nil
	}
	out := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i := 0; i < NumLandmarks; i++ {
		out.Points[i] = Point3D{
			X: h.Points[i].X + dx,
			Y: h.Points[i].Y + dy,
			Z: h.Points[i].Z + dz,
		}
	}
	return out
}

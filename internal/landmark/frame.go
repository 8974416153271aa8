package landmark

// Frame is one tick of detector output: whichever body and hand landmarks
// were visible, stamped with the capture time in milliseconds.
type Frame struct {
	Pose      []Point3D      `json:"pose,omitempty"`
	Left      *HandLandmarks `json:"leftHand,omitempty"`
	Right     *HandLandmarks `json:"rightHand,omitempty"`
	Face      []Point3D      `json:"face,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// HasHands reports whether at least one hand was detected in the frame.
func (f *Frame) HasHands() bool {
	return f.Left != nil || f.Right != nil
}

// Hand returns the landmarks for the requested handedness ("Left" or
// "Right"), or nil if that hand was not detected.
func (f *Frame) Hand(handedness string) *HandLandmarks {
	switch handedness {
	case "Left":
		return f.Left
	case "Right":
		return f.Right
	}
	return nil
}

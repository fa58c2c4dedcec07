package systems

// frameTimeHistory is the number of samples shown in the frame time plot.
const frameTimeHistory = 50

// UISettings is the state edited through the overlay. The application reads
// it back every frame.
type UISettings struct {
	DisplayModels bool
	AnimateLight  bool
	LightSpeed    float32

	// FrameTimes holds the most recent frame times in milliseconds, oldest
	// first.
	FrameTimes   [frameTimeHistory]float32
	FrameTimeMin float32
	FrameTimeMax float32
}

func DefaultUISettings() *UISettings {
	return &UISettings{
		DisplayModels: true,
		AnimateLight:  true,
		LightSpeed:    0.25,
		FrameTimeMin:  9999,
		FrameTimeMax:  0,
	}
}

// PushFrameTime appends a sample, dropping the oldest.
func (s *UISettings) PushFrameTime(ms float32) {
	copy(s.FrameTimes[:], s.FrameTimes[1:])
	s.FrameTimes[len(s.FrameTimes)-1] = ms
	if ms < s.FrameTimeMin {
		s.FrameTimeMin = ms
	}
	if ms > s.FrameTimeMax {
		s.FrameTimeMax = ms
	}
}

func (s *UISettings) LastFrameTime() float32 {
	return s.FrameTimes[len(s.FrameTimes)-1]
}

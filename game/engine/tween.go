package engine

// tween interpolates a scalar over a fixed duration as time is fed to it.
// A non-positive duration completes on the first step.
type tween struct {
	from     float64
	to       float64
	duration float64
	elapsed  float64
	active   bool
}

func newTween(from, to, duration float64) tween {
	return tween{from: from, to: to, duration: duration, active: true}
}

// step advances the tween by dt and returns the current value
func (tw *tween) step(dt float64) (float64, bool) {
	if !tw.active {
		return tw.to, true
	}
	tw.elapsed += dt
	if tw.duration <= 0 || tw.elapsed >= tw.duration {
		tw.active = false
		return tw.to, true
	}
	return lerpFloat(tw.from, tw.to, tw.elapsed/tw.duration), false
}

func (tw *tween) stop() {
	tw.active = false
}

package service

import (
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// DefaultInterstitialDuration is how long a simulated ad stays on screen
const DefaultInterstitialDuration = 2.0

// Interstitial simulates a full-screen ad. Showing it publishes paused=true;
// after Duration seconds of game time it publishes paused=false, unless the
// pause was someone else's: the bus was already paused when the ad opened,
// or another publisher paused it while the ad was up. It does not touch the
// time scale, so replay timers keep running.
type Interstitial struct {
	Duration float64

	bus        *engine.PauseBus
	log        logrus.FieldLogger
	remaining  float64
	showing    bool
	ownsPause  bool
	publishing bool
	unsub      func()
	shown      int
}

// NewInterstitial creates an ad simulator publishing on bus
func NewInterstitial(bus *engine.PauseBus, duration float64, log logrus.FieldLogger) *Interstitial {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Interstitial{Duration: duration, bus: bus, log: log}
}

// ShowInterstitial implements engine.Ads
func (a *Interstitial) ShowInterstitial() {
	a.shown++
	if a.Duration <= 0 {
		return
	}
	a.remaining = a.Duration
	if a.showing {
		return
	}
	a.showing = true
	a.ownsPause = !a.bus.Paused()
	a.log.WithFields(logrus.Fields{"duration": a.Duration, "owns_pause": a.ownsPause}).Debug("Interstitial shown")
	if a.ownsPause {
		a.publish(true)
	}
	a.unsub = a.bus.Subscribe(a.onPause)
}

// onPause drops ownership when another publisher pauses during the ad
func (a *Interstitial) onPause(paused bool) {
	if paused && !a.publishing {
		a.ownsPause = false
	}
}

func (a *Interstitial) publish(paused bool) {
	a.publishing = true
	a.bus.Publish(paused)
	a.publishing = false
}

// Update counts down the visible ad
func (a *Interstitial) Update(dt float64) {
	if !a.showing {
		return
	}
	a.remaining -= dt
	if a.remaining > 0 {
		return
	}
	a.showing = false
	a.remaining = 0
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	a.log.WithField("owns_pause", a.ownsPause).Debug("Interstitial closed")
	if a.ownsPause && a.bus.Paused() {
		a.publish(false)
	}
	a.ownsPause = false
}

// Showing reports whether an ad is on screen
func (a *Interstitial) Showing() bool { return a.showing }

// Shown returns how many ads were requested
func (a *Interstitial) Shown() int { return a.shown }

// effectRelay forwards cosmetic effects to the session event stream so
// remote clients can render them
type effectRelay struct {
	observer engine.Observer
	level    func() int
}

// Effect event types raised by effectRelay
const (
	EventBreakEffect   engine.EventType = "break_effect"
	EventSuccessEffect engine.EventType = "success_effect"
	EventCameraShake   engine.EventType = "camera_shake"
)

func (e *effectRelay) SpawnBreakEffect(at engine.Vec2, rotation float64) {
	e.observer.OnEvent(engine.Event{Type: EventBreakEffect, Level: e.level(), Position: &at, Detail: formatRotation(rotation)})
}

func (e *effectRelay) SpawnSuccessEffect(at engine.Vec2) {
	e.observer.OnEvent(engine.Event{Type: EventSuccessEffect, Level: e.level(), Position: &at})
}

func (e *effectRelay) ShakeCamera() {
	e.observer.OnEvent(engine.Event{Type: EventCameraShake, Level: e.level()})
}

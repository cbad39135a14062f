package engine

import (
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
)

var scenarioLayout = []string{
	"#####",
	"#S.##",
	"##.##",
	"#####",
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeAudio struct {
	oneShots  []string
	played    []string
	callbacks []func()
	loops     map[string]float64
	stopped   []string
	immediate bool
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{loops: make(map[string]float64)}
}

func (a *fakeAudio) PlayOneShot(clip string, volume float64) {
	a.oneShots = append(a.oneShots, clip)
}

func (a *fakeAudio) PlaySoundByName(name string) {
	a.played = append(a.played, name)
}

func (a *fakeAudio) PlaySoundByNameWithCallback(name string, onComplete func()) {
	a.played = append(a.played, name)
	if a.immediate {
		onComplete()
		return
	}
	a.callbacks = append(a.callbacks, onComplete)
}

func (a *fakeAudio) PlayLoop(name string, pitch float64) {
	a.loops[name] = pitch
}

func (a *fakeAudio) StopLoop(name string) {
	delete(a.loops, name)
	a.stopped = append(a.stopped, name)
}

// finish completes every pending sound
func (a *fakeAudio) finish() {
	cbs := a.callbacks
	a.callbacks = nil
	for _, cb := range cbs {
		cb()
	}
}

func (a *fakeAudio) count(name string, list []string) int {
	n := 0
	for _, s := range list {
		if s == name {
			n++
		}
	}
	return n
}

type fakeAds struct{ shown int }

func (f *fakeAds) ShowInterstitial() { f.shown++ }

type fakeEffects struct {
	rotations []float64
	successes []Vec2
	shakes    int
}

func (f *fakeEffects) SpawnBreakEffect(at Vec2, rotation float64) {
	f.rotations = append(f.rotations, rotation)
}

func (f *fakeEffects) SpawnSuccessEffect(at Vec2) { f.successes = append(f.successes, at) }

func (f *fakeEffects) ShakeCamera() { f.shakes++ }

type memProgress struct {
	index  int
	saved  []int
	resets int
}

func (m *memProgress) LoadProgress() int { return m.index }

func (m *memProgress) SaveProgress(index int) error {
	m.index = index
	m.saved = append(m.saved, index)
	return nil
}

func (m *memProgress) ResetProgress() error {
	m.index = 0
	m.resets++
	return nil
}

type recorder struct{ events []Event }

func (r *recorder) OnEvent(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) count(t EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func mustLevel(t *testing.T, index int, layout ...string) *Level {
	t.Helper()
	l, err := BuildLevel(&LevelConfig{Name: "test", Layout: layout}, index)
	if err != nil {
		t.Fatalf("BuildLevel: %v", err)
	}
	return l
}

type harness struct {
	game     *Game
	audio    *fakeAudio
	ads      *fakeAds
	effects  *fakeEffects
	progress *memProgress
	camera   *ViewCamera
	hud      *PanelHUD
	events   *recorder
}

func newHarness(t *testing.T, levels ...*Level) *harness {
	t.Helper()
	h := &harness{
		audio:    newFakeAudio(),
		ads:      &fakeAds{},
		effects:  &fakeEffects{},
		progress: &memProgress{},
		camera:   &ViewCamera{},
		hud:      NewPanelHUD(),
		events:   &recorder{},
	}
	g, err := NewGame(Options{
		Tuning:   DefaultTuning(),
		Levels:   levels,
		Audio:    h.audio,
		Ads:      h.ads,
		Camera:   h.camera,
		HUD:      h.hud,
		Effects:  h.effects,
		Progress: h.progress,
		Observer: h.events,
		Logger:   quietLogger(),
		Rand:     rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	h.game = g
	return h
}

const tickDT = 0.05

// runUntil ticks until cond holds, failing after max ticks
func (h *harness) runUntil(t *testing.T, max int, cond func() bool) int {
	t.Helper()
	for i := 0; i < max; i++ {
		if cond() {
			return i
		}
		h.game.Tick(tickDT)
	}
	if !cond() {
		t.Fatalf("condition not met after %d ticks", max)
	}
	return max
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	h.runUntil(t, 400, func() bool { return h.game.Mover().Idle() })
}

func (h *harness) replayState() ReplayState {
	return h.game.Sequencer().Replay().State()
}

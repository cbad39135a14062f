package engine

// Audio plays sound effects by clip or by name. Implementations must
// tolerate unknown names. PlaySoundByNameWithCallback must invoke onComplete
// on the simulation thread once the sound finishes, or immediately when the
// sound cannot be played.
type Audio interface {
	PlayOneShot(clip string, volume float64)
	PlaySoundByName(name string)
	PlaySoundByNameWithCallback(name string, onComplete func())
}

// LoopingAudio is implemented by audio backends that can hold a looped voice
// at a given pitch.
type LoopingAudio interface {
	PlayLoop(name string, pitch float64)
	StopLoop(name string)
}

// Ads shows interstitial advertisements
type Ads interface {
	ShowInterstitial()
}

// FollowTarget is anything the camera can track
type FollowTarget interface {
	Position() Vec2
}

// Camera is an orthographic camera with a view size (half the visible
// height) and a follow target.
type Camera interface {
	ViewSize() float64
	SetViewSize(size float64)
	Follow() FollowTarget
	SetFollow(target FollowTarget)
}

// HUD is the in-game panel group faded out during replays
type HUD interface {
	Alpha() float64
	SetAlpha(alpha float64)
	SetInteractable(interactable bool)
	SetSkipVisible(visible bool)
}

// Effects spawns visual effects
type Effects interface {
	SpawnBreakEffect(at Vec2, rotation float64)
	SpawnSuccessEffect(at Vec2)
	ShakeCamera()
}

// ProgressStore persists the index of the level to resume from
type ProgressStore interface {
	LoadProgress() int
	SaveProgress(index int) error
	ResetProgress() error
}

// Updater is a collaborator that needs the frame delta, e.g. an audio player
// delivering completion callbacks.
type Updater interface {
	Update(dt float64)
}

// ViewCamera is an in-memory Camera
type ViewCamera struct {
	Size   float64
	Target FollowTarget
}

func (c *ViewCamera) ViewSize() float64             { return c.Size }
func (c *ViewCamera) SetViewSize(size float64)      { c.Size = size }
func (c *ViewCamera) Follow() FollowTarget          { return c.Target }
func (c *ViewCamera) SetFollow(target FollowTarget) { c.Target = target }

// Focus returns the point the camera is centred on
func (c *ViewCamera) Focus() (Vec2, bool) {
	if c.Target == nil {
		return Vec2{}, false
	}
	return c.Target.Position(), true
}

// PanelHUD is an in-memory HUD
type PanelHUD struct {
	Opacity      float64
	Interactable bool
	SkipVisible  bool
}

// NewPanelHUD returns a fully visible, interactable HUD
func NewPanelHUD() *PanelHUD {
	return &PanelHUD{Opacity: 1, Interactable: true}
}

func (h *PanelHUD) Alpha() float64              { return h.Opacity }
func (h *PanelHUD) SetAlpha(alpha float64)      { h.Opacity = alpha }
func (h *PanelHUD) SetInteractable(v bool)      { h.Interactable = v }
func (h *PanelHUD) SetSkipVisible(visible bool) { h.SkipVisible = visible }

// Anchor is a fixed follow target
type Anchor struct {
	At Vec2
}

func (a *Anchor) Position() Vec2 { return a.At }

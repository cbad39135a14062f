package engine

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoLevels          = errors.New("no levels configured")
	ErrInvalidLevelIndex = errors.New("invalid level index")
	ErrNoSpawnMarker     = errors.New("level has no start marker")
	ErrTornDown          = errors.New("game torn down")
	ErrReplayInProgress  = errors.New("level-complete sequence in progress")
	ErrNoPiece           = errors.New("no active piece")
)

// SequencerDeps are the collaborators of a Sequencer. Everything except
// Mover is optional.
type SequencerDeps struct {
	Mover    *Mover
	Camera   Camera
	HUD      HUD
	Audio    Audio
	Effects  Effects
	Ads      Ads
	Progress ProgressStore
	Observer Observer
	Logger   logrus.FieldLogger
	Rand     *rand.Rand
}

// Sequencer owns the level list and the per-level runtime objects: the
// active piece, tile registry and stop history. It activates levels, hands
// completed ones to the replay orchestrator and advances through the pack.
type Sequencer struct {
	tuning   Tuning
	levels   []*Level
	mover    *Mover
	replay   *Orchestrator
	camera   Camera
	audio    Audio
	effects  Effects
	ads      Ads
	progress ProgressStore
	observer Observer
	log      logrus.FieldLogger
	rng      *rand.Rand

	current          int
	instance         string
	registry         *TileRegistry
	history          *PathHistory
	piece            *Piece
	anchor           *Anchor
	originalViewSize float64
	advances         int
	closed           bool
}

// NewSequencer creates a sequencer with no active level
func NewSequencer(tuning Tuning, levels []*Level, deps SequencerDeps) *Sequencer {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	s := &Sequencer{
		tuning:   tuning,
		levels:   levels,
		mover:    deps.Mover,
		camera:   deps.Camera,
		audio:    deps.Audio,
		effects:  deps.Effects,
		ads:      deps.Ads,
		progress: deps.Progress,
		observer: deps.Observer,
		log:      log.WithField("component", "sequencer"),
		rng:      rng,
		current:  -1,
		history:  NewPathHistory(Vec2{}),
	}
	s.replay = NewOrchestrator(tuning, s, ReplayDeps{
		Camera:   deps.Camera,
		HUD:      deps.HUD,
		Audio:    deps.Audio,
		Effects:  deps.Effects,
		Observer: deps.Observer,
		Logger:   log,
	})
	return s
}

// Replay returns the level-complete orchestrator
func (s *Sequencer) Replay() *Orchestrator { return s.replay }

// Levels returns the level list
func (s *Sequencer) Levels() []*Level { return s.levels }

// Level returns the active level or nil
func (s *Sequencer) Level() *Level {
	if s.current < 0 || s.current >= len(s.levels) {
		return nil
	}
	return s.levels[s.current]
}

// Registry returns the tile registry of the active level instance
func (s *Sequencer) Registry() *TileRegistry { return s.registry }

// Start resumes from the persisted level, or the first level when the saved
// index is out of range.
func (s *Sequencer) Start() error {
	if len(s.levels) == 0 {
		s.log.Error("cannot start: no levels")
		return ErrNoLevels
	}
	index := 0
	if s.progress != nil {
		index = s.progress.LoadProgress()
	}
	if index < 0 || index >= len(s.levels) {
		s.log.WithField("index", index).Warn("saved level out of range; starting from the first level")
		index = 0
	}
	return s.ActivateLevel(index)
}

// ActivateLevel tears down the current level and brings up level index.
// Invalid requests are rejected before any state changes.
func (s *Sequencer) ActivateLevel(index int) error {
	if s.closed {
		return ErrTornDown
	}
	if len(s.levels) == 0 {
		s.log.Error("cannot activate: no levels")
		return ErrNoLevels
	}
	if index < 0 || index >= len(s.levels) {
		s.log.WithFields(logrus.Fields{"index": index, "count": len(s.levels)}).Error("level index out of range")
		return fmt.Errorf("%w: %d (have %d levels)", ErrInvalidLevelIndex, index, len(s.levels))
	}
	level := s.levels[index]
	spawn, ok := level.Spawn()
	if !ok {
		s.log.WithField("level", level.Name).Error("level has no start marker")
		return fmt.Errorf("%w: %s", ErrNoSpawnMarker, level.Name)
	}

	s.replay.Cancel()
	s.discardPiece()
	if prev := s.Level(); prev != nil {
		prev.active = false
	}

	s.current = index
	s.instance = uuid.NewString()
	level.active = true
	level.ResetTiles()

	s.piece = NewPiece(spawn)
	s.history.Reset(spawn)
	instance := s.instance
	s.registry = NewTileRegistry(func() { s.levelCompleted(instance) }, s.tileBroken, s.log)
	if s.mover != nil {
		s.mover.Attach(index, s.piece, NewGridPhysics(level), s.history)
		s.mover.SetInputEnabled(true)
	}

	if level.Background != nil && len(s.tuning.BackgroundVariants) > 0 {
		level.Background.Variant = s.tuning.BackgroundVariants[s.rng.Intn(len(s.tuning.BackgroundVariants))]
	}

	s.anchor = &Anchor{At: level.Bounds.Center()}
	if s.camera != nil {
		s.camera.SetViewSize(LevelViewSize(level, s.tuning.ScreenAspect))
		s.camera.SetFollow(s.anchor)
		s.originalViewSize = s.camera.ViewSize()
	}

	for _, t := range level.Tiles {
		s.registry.Register(t)
	}

	s.log.WithFields(logrus.Fields{
		"index": index,
		"level": level.Name,
		"tiles": s.registry.Remaining(),
	}).Info("level activated")
	emit(s.observer, Event{Type: EventLevelActivated, Level: index, Position: posPtr(spawn), Detail: level.Name, Count: s.registry.Remaining()})

	if s.registry.Remaining() == 0 {
		s.levelCompleted(instance)
	}
	return nil
}

// ActivateNext persists and activates the level after the current one,
// wrapping to the first, and shows an interstitial every AdCadence advances.
func (s *Sequencer) ActivateNext() error {
	if s.closed {
		return ErrTornDown
	}
	if len(s.levels) == 0 {
		s.log.Error("cannot advance: no levels")
		return ErrNoLevels
	}
	next := (s.current + 1) % len(s.levels)
	if s.progress != nil {
		if err := s.progress.SaveProgress(next); err != nil {
			s.log.WithError(err).Warn("failed to save progress")
		}
	}

	s.advances++
	if s.tuning.AdCadence > 0 && s.advances%s.tuning.AdCadence == 0 {
		if s.ads != nil {
			s.log.WithField("advances", s.advances).Info("showing interstitial")
			s.ads.ShowInterstitial()
			emit(s.observer, Event{Type: EventAdShown, Level: next, Count: s.advances})
		} else {
			s.log.Warn("interstitial due but no ad collaborator")
		}
	}

	emit(s.observer, Event{Type: EventLevelAdvanced, Level: next, Count: s.advances})
	return s.ActivateLevel(next)
}

// ResetProgress clears the persisted level index
func (s *Sequencer) ResetProgress() error {
	if s.progress == nil {
		return nil
	}
	if err := s.progress.ResetProgress(); err != nil {
		return err
	}
	emit(s.observer, Event{Type: EventProgressReset, Level: s.current})
	return nil
}

// ReplacePiece respawns the piece at its current position and reseeds the
// stop history there.
func (s *Sequencer) ReplacePiece() error {
	if s.closed {
		return ErrTornDown
	}
	if s.replay.Active() {
		return ErrReplayInProgress
	}
	if s.piece == nil {
		return ErrNoPiece
	}
	at := s.piece.Position()
	s.discardPiece()
	s.piece = NewPiece(at)
	s.history.Reset(at)
	if s.mover != nil {
		s.mover.Attach(s.current, s.piece, NewGridPhysics(s.levels[s.current]), s.history)
	}
	emit(s.observer, Event{Type: EventPieceReplaced, Level: s.current, Position: posPtr(at)})
	return nil
}

// Close tears the sequencer down. In-flight sequences are abandoned without
// their completion side effects.
func (s *Sequencer) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.replay.Abort()
	s.discardPiece()
	if l := s.Level(); l != nil {
		l.active = false
	}
	s.instance = ""
}

func (s *Sequencer) levelCompleted(instance string) {
	if s.closed || instance != s.instance {
		return
	}
	s.log.WithField("index", s.current).Info("level completed")
	emit(s.observer, Event{Type: EventLevelCompleted, Level: s.current})
	s.replay.Begin(instance)
}

func (s *Sequencer) tileBroken(t *PathTile, dir Direction) {
	if s.effects != nil {
		s.effects.SpawnBreakEffect(t.Center, dir.Angle())
	}
	if s.audio != nil {
		s.audio.PlayOneShot(SoundTileBreak, s.tuning.TileBreakVolume)
	}
	emit(s.observer, Event{Type: EventTileBroken, Level: s.current, Position: posPtr(t.Center), Direction: dir.String(), Count: s.registry.Remaining() - 1})
}

func (s *Sequencer) discardPiece() {
	if s.piece == nil {
		return
	}
	s.piece.DeactivateTrail()
	s.piece.halt()
	s.piece.retired = true
	s.piece = nil
	if s.mover != nil {
		s.mover.Detach()
	}
}

// Stage implementation

func (s *Sequencer) IsCurrent(instance string) bool {
	return !s.closed && instance != "" && instance == s.instance
}

func (s *Sequencer) CurrentIndex() int { return s.current }

func (s *Sequencer) Piece() *Piece { return s.piece }

func (s *Sequencer) History() []Vec2 { return s.history.Snapshot() }

func (s *Sequencer) Background() *Background {
	if l := s.Level(); l != nil {
		return l.Background
	}
	return nil
}

func (s *Sequencer) OriginalViewSize() float64 { return s.originalViewSize }

func (s *Sequencer) MoverIdle() bool {
	return s.mover == nil || s.mover.Idle()
}

func (s *Sequencer) SetInputEnabled(enabled bool) {
	if s.mover != nil {
		s.mover.SetInputEnabled(enabled)
	}
}

func (s *Sequencer) RetirePiece() { s.discardPiece() }

func (s *Sequencer) Advance() {
	if err := s.ActivateNext(); err != nil {
		s.log.WithError(err).Error("failed to advance to next level")
	}
}

// Instance returns the live level instance token
func (s *Sequencer) Instance() string { return s.instance }

// Anchor returns the level framing anchor the camera follows between replays
func (s *Sequencer) Anchor() *Anchor { return s.anchor }

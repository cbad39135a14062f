package engine

import "github.com/sirupsen/logrus"

// PathTile is a destructible cell. Every unbroken tile of the active level is
// counted by its registry; breaking the last one completes the level.
type PathTile struct {
	ID     int
	Cell   Cell
	Center Vec2

	broken   bool
	counted  bool
	registry *TileRegistry
}

// Broken reports whether the tile has been broken or deactivated
func (t *PathTile) Broken() bool { return t.broken }

// Break breaks the tile in response to the piece passing over it while
// travelling in dir. It reports false when the tile was already broken.
func (t *PathTile) Break(dir Direction) bool {
	if t.broken {
		return false
	}
	t.broken = true
	if r := t.registry; r != nil {
		r.notifyBreak(t, dir)
		r.Deregister(t)
	}
	return true
}

// Deactivate removes the tile without a break effect. It deregisters at most
// once, sharing the guard with Break.
func (t *PathTile) Deactivate() bool {
	if t.broken {
		return false
	}
	t.broken = true
	if t.registry != nil {
		t.registry.Deregister(t)
	}
	return true
}

func (t *PathTile) reset() {
	t.broken = false
	t.counted = false
	t.registry = nil
}

// TileRegistry counts the unbroken tiles of one level instance and fires its
// completion callback exactly once, when the count crosses to zero.
type TileRegistry struct {
	remaining  int
	total      int
	completed  bool
	onComplete func()
	onBreak    func(t *PathTile, dir Direction)
	log        logrus.FieldLogger
}

// NewTileRegistry creates an empty registry. Either callback may be nil.
func NewTileRegistry(onComplete func(), onBreak func(t *PathTile, dir Direction), log logrus.FieldLogger) *TileRegistry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TileRegistry{onComplete: onComplete, onBreak: onBreak, log: log}
}

// Register counts t. Broken or already counted tiles are ignored.
func (r *TileRegistry) Register(t *PathTile) {
	if t.broken || t.counted {
		r.log.WithField("tile", t.ID).Debug("ignoring registration of inactive or counted tile")
		return
	}
	t.registry = r
	t.counted = true
	r.remaining++
	r.total++
}

// Deregister uncounts t. It is a no-op for tiles this registry does not
// count or once the count is already zero.
func (r *TileRegistry) Deregister(t *PathTile) {
	if t.registry != r || !t.counted {
		return
	}
	if r.remaining <= 0 {
		r.log.WithField("tile", t.ID).Warn("deregister with no remaining tiles")
		return
	}
	t.counted = false
	r.remaining--
	if r.remaining == 0 && !r.completed {
		r.completed = true
		if r.onComplete != nil {
			r.onComplete()
		}
	}
}

func (r *TileRegistry) notifyBreak(t *PathTile, dir Direction) {
	if r.onBreak != nil {
		r.onBreak(t, dir)
	}
}

// Remaining returns the number of tiles still counted
func (r *TileRegistry) Remaining() int { return r.remaining }

// Total returns the number of tiles ever registered
func (r *TileRegistry) Total() int { return r.total }

// Completed reports whether the completion callback has fired
func (r *TileRegistry) Completed() bool { return r.completed }

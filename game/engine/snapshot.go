package engine

// PieceState is a read-only view of the piece
type PieceState struct {
	Position      Vec2   `json:"position"`
	Target        Vec2   `json:"target"`
	Moving        bool   `json:"moving"`
	LastDirection string `json:"last_direction,omitempty"`
	Trail         Trail  `json:"trail"`
}

// Snapshot is a read-only view of a whole game, safe to serialise
type Snapshot struct {
	LevelIndex     int          `json:"level_index"`
	LevelName      string       `json:"level_name"`
	LevelTitle     string       `json:"level_title"`
	LevelCount     int          `json:"level_count"`
	Instance       string       `json:"instance"`
	RemainingTiles int          `json:"remaining_tiles"`
	TotalTiles     int          `json:"total_tiles"`
	Piece          *PieceState  `json:"piece,omitempty"`
	History        []Vec2       `json:"history"`
	Replay         ReplayStatus `json:"replay"`
	ViewSize       float64      `json:"view_size"`
	CameraFocus    *Vec2        `json:"camera_focus,omitempty"`
	HUDAlpha       float64      `json:"hud_alpha"`
	Background     *Background  `json:"background,omitempty"`
	Paused         bool         `json:"paused"`
	PanelOpen      bool         `json:"panel_open"`
	TimeScale      float64      `json:"time_scale"`
	InputEnabled   bool         `json:"input_enabled"`
	Elapsed        float64      `json:"elapsed"`
	Grid           []string     `json:"grid,omitempty"`
}

// Snapshot captures the current game state
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		LevelIndex:   g.seq.current,
		LevelCount:   len(g.seq.levels),
		Instance:     g.seq.instance,
		History:      g.seq.History(),
		Replay:       g.seq.replay.Status(),
		Paused:       g.pause.Paused(),
		PanelOpen:    g.panelOpen,
		TimeScale:    g.timeScale,
		InputEnabled: g.mover.InputEnabled(),
		Elapsed:      g.elapsed,
		HUDAlpha:     1,
	}
	if l := g.seq.Level(); l != nil {
		s.LevelName = l.Name
		s.LevelTitle = l.Title
		s.Background = l.Background
		s.TotalTiles = len(l.Tiles)
		var at *Vec2
		if p := g.seq.piece; p != nil {
			at = posPtr(p.position)
		}
		s.Grid = l.Render(at)
	}
	if r := g.seq.registry; r != nil {
		s.RemainingTiles = r.Remaining()
	}
	if p := g.seq.piece; p != nil {
		ps := &PieceState{
			Position: p.position,
			Target:   p.target,
			Moving:   p.moving,
			Trail:    p.trail,
		}
		if p.lastDir != DirNone {
			ps.LastDirection = p.lastDir.String()
		}
		s.Piece = ps
	}
	if g.camera != nil {
		s.ViewSize = g.camera.ViewSize()
		if f := g.camera.Follow(); f != nil {
			s.CameraFocus = posPtr(f.Position())
		}
	}
	if g.hud != nil {
		s.HUDAlpha = g.hud.Alpha()
	}
	return s
}

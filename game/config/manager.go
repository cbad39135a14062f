package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
	"github.com/wricardo/mcp-training/tileslide/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = errors.New("invalid level")
)

// Manager handles level file loading and caching
type Manager struct {
	levelDir string
	schema   *jsonschema.Schema
	levels   map[string]*engine.LevelConfig
	log      logrus.FieldLogger
	mu       sync.RWMutex
}

// NewManager creates a level manager over levelDir
func NewManager(levelDir string, log logrus.FieldLogger) (*Manager, error) {
	// Ensure level directory exists
	if info, err := os.Stat(levelDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}
	schema, err := CompileLevelSchema()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		levelDir: levelDir,
		schema:   schema,
		levels:   make(map[string]*engine.LevelConfig),
		log:      log.WithField("component", "levels"),
	}, nil
}

// LoadLevel loads a level by file name, with or without the .json suffix
func (m *Manager) LoadLevel(name string) (*engine.LevelConfig, error) {
	id := levelID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
	}

	m.mu.RLock()
	// Check cache first
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level, nil
	}

	data, err := os.ReadFile(filepath.Join(m.levelDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	level, err := m.parse(id, data)
	if err != nil {
		return nil, err
	}
	m.levels[id] = level
	return level, nil
}

// ParseLevel validates raw level file contents without caching them
func (m *Manager) ParseLevel(id string, data []byte) (*engine.LevelConfig, error) {
	return m.parse(id, data)
}

func (m *Manager) parse(id string, data []byte) (*engine.LevelConfig, error) {
	return ParseLevel(m.schema, id, data)
}

// ParseLevel checks data against schema and the layout rules and decodes it.
// id names the level in errors and stands in for a missing name.
func ParseLevel(schema *jsonschema.Schema, id string, data []byte) (*engine.LevelConfig, error) {
	if err := ValidateLevelJSON(schema, data); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidLevel, id, err)
	}
	var level engine.LevelConfig
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidLevel, id, err)
	}
	if level.Name == "" {
		level.Name = id
	}
	if err := engine.ValidateLevelConfig(&level); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidLevel, id, err)
	}
	return &level, nil
}

// ListLevels returns every valid level file ordered by order, then file name.
// Invalid files are logged and skipped.
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var levels []*service.LevelInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := levelID(entry.Name())
		level, err := m.LoadLevel(id)
		if err != nil {
			m.log.WithError(err).WithField("file", entry.Name()).Warn("Skipping level")
			continue
		}
		levels = append(levels, &service.LevelInfo{
			Filename:    entry.Name(),
			LevelID:     id,
			Name:        level.Name,
			Description: level.Description,
			Order:       level.Order,
			Width:       len(level.Layout[0]),
			Height:      len(level.Layout),
			Tiles:       countTiles(level.Layout),
		})
	}

	sort.SliceStable(levels, func(i, j int) bool {
		if levels[i].Order != levels[j].Order {
			return levels[i].Order < levels[j].Order
		}
		return levels[i].Filename < levels[j].Filename
	})
	return levels, nil
}

// Pack returns the ordered level sequence a game plays through
func (m *Manager) Pack() ([]*engine.LevelConfig, error) {
	infos, err := m.ListLevels()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w in %s", engine.ErrNoLevels, m.levelDir)
	}
	pack := make([]*engine.LevelConfig, 0, len(infos))
	for _, info := range infos {
		level, err := m.LoadLevel(info.LevelID)
		if err != nil {
			return nil, err
		}
		pack = append(pack, level)
	}
	return pack, nil
}

// RefreshCache drops cached levels so the next load rereads the files
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels = make(map[string]*engine.LevelConfig)
}

// Dir returns the level directory
func (m *Manager) Dir() string { return m.levelDir }

func levelID(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), ".json")
}

func countTiles(layout []string) int {
	n := 0
	for _, row := range layout {
		for _, c := range row {
			if c == engine.CellPath || c == engine.CellStart {
				n++
			}
		}
	}
	return n
}

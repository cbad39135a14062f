package session

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// LastLevelIndexKey is the key suffix the level index is stored under
const LastLevelIndexKey = "LastLevelIndex"

// Progress is the typed level-progress view of a Store for one profile.
// It implements engine.ProgressStore.
type Progress struct {
	store   Store
	profile string
	log     logrus.FieldLogger
}

// NewProgress scopes store to profile
func NewProgress(store Store, profile string, log logrus.FieldLogger) *Progress {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Progress{store: store, profile: strings.ToLower(profile), log: log}
}

// Key returns the store key holding the level index
func (p *Progress) Key() string {
	if p.profile == "" {
		return LastLevelIndexKey
	}
	return p.profile + "/" + LastLevelIndexKey
}

// LoadProgress returns the persisted level index, 0 when none
func (p *Progress) LoadProgress() int {
	return p.store.GetInt(p.Key(), 0)
}

// SaveProgress persists index and flushes the store
func (p *Progress) SaveProgress(index int) error {
	if err := p.store.SetInt(p.Key(), index); err != nil {
		return err
	}
	return p.store.Save()
}

// ResetProgress deletes the persisted index
func (p *Progress) ResetProgress() error {
	if err := p.store.DeleteKey(p.Key()); err != nil {
		return err
	}
	p.log.WithField("profile", p.profile).Info("Progress reset")
	return p.store.Save()
}

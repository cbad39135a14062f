package audio

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestBank_StockClips(t *testing.T) {
	b := NewBank()
	for _, name := range []string{engine.SoundMove, engine.SoundTileBreak, engine.SoundRewind, engine.SoundSuccess} {
		require.True(t, b.Has(name), name)
		d, ok := b.Duration(name)
		require.True(t, ok)
		assert.Greater(t, d.Seconds(), 0.0, name)
	}

	d, _ := b.Duration(engine.SoundSuccess)
	assert.InDelta(t, 0.72, d.Seconds(), 0.01)

	_, ok := b.Duration("missing")
	assert.False(t, ok)
	assert.Len(t, b.Names(), 4)
}

func TestPlayer_CallbackFiresAfterClipLength(t *testing.T) {
	p := NewPlayer(NewBank(), nil, quietLogger())
	fired := 0
	p.PlaySoundByNameWithCallback(engine.SoundSuccess, func() { fired++ })

	assert.Equal(t, 1, p.Pending())
	p.Update(0.5)
	assert.Equal(t, 0, fired, "callback must wait for the clip")
	p.Update(0.5)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, p.Pending())

	p.Update(1)
	assert.Equal(t, 1, fired, "callback fires once")
}

func TestPlayer_UnknownClipCompletesImmediately(t *testing.T) {
	p := NewPlayer(NewBank(), nil, quietLogger())
	fired := false
	p.PlaySoundByNameWithCallback("missing", func() { fired = true })
	assert.True(t, fired)
	assert.Equal(t, 0, p.Pending())
}

func TestPlayer_CallbackMayPlayAgain(t *testing.T) {
	p := NewPlayer(NewBank(), nil, quietLogger())
	var chain func()
	count := 0
	chain = func() {
		count++
		if count < 2 {
			p.PlaySoundByNameWithCallback(engine.SoundTileBreak, chain)
		}
	}
	p.PlaySoundByNameWithCallback(engine.SoundTileBreak, chain)
	for i := 0; i < 10; i++ {
		p.Update(0.05)
	}
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, p.Played(engine.SoundTileBreak))
}

func TestPlayer_Loops(t *testing.T) {
	p := NewPlayer(NewBank(), nil, quietLogger())

	p.PlayLoop(engine.SoundRewind, 1)
	pitch, ok := p.LoopPitch(engine.SoundRewind)
	require.True(t, ok)
	assert.Equal(t, 1.0, pitch)

	p.PlayLoop(engine.SoundRewind, 1.5)
	pitch, _ = p.LoopPitch(engine.SoundRewind)
	assert.Equal(t, 1.5, pitch)
	assert.Equal(t, 1, p.Played(engine.SoundRewind), "retuning does not restart the loop")

	p.StopLoop(engine.SoundRewind)
	_, ok = p.LoopPitch(engine.SoundRewind)
	assert.False(t, ok)
	p.StopLoop(engine.SoundRewind)
}

func TestPlayer_MutedStillKeepsTime(t *testing.T) {
	p := NewPlayer(NewBank(), nil, quietLogger())
	p.SetMuted(true)
	fired := false
	p.PlaySoundByNameWithCallback(engine.SoundMove, func() { fired = true })
	p.Update(1)
	assert.True(t, fired)
	p.PlayOneShot(engine.SoundMove, 0.5)
	assert.Equal(t, 2, p.Played(engine.SoundMove))
}

func TestPlayer_SatisfiesEngineContracts(t *testing.T) {
	var _ engine.Audio = (*Player)(nil)
	var _ engine.LoopingAudio = (*Player)(nil)
	var _ engine.Updater = (*Player)(nil)
}

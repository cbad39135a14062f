package audio

import (
	"sort"
	"time"

	"github.com/gopxl/beep"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// SampleRate is the rate every clip is rendered at
const SampleRate = beep.SampleRate(44100)

// Bank holds pre-rendered clips keyed by sound name
type Bank struct {
	format beep.Format
	clips  map[string]*beep.Buffer
}

// NewBank renders the stock clips: the slide, tile break, rewind whoosh and
// level success sounds.
func NewBank() *Bank {
	b := &Bank{
		format: beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2},
		clips:  make(map[string]*beep.Buffer),
	}
	rate := SampleRate

	// soft upward glide
	b.Add(engine.SoundMove, newVolume(newEnvelope(
		newOscillator(220, 330, 120*time.Millisecond, WaveSine, rate),
		120*time.Millisecond, 10*time.Millisecond, 60*time.Millisecond, rate), 0.6))

	// short noise crack
	b.Add(engine.SoundTileBreak, newEnvelope(
		newOscillator(0, 0, 80*time.Millisecond, WaveNoise, rate),
		80*time.Millisecond, 2*time.Millisecond, 70*time.Millisecond, rate))

	// falling noise sweep mixed with a descending tone; looped during rewind
	whoosh := 600 * time.Millisecond
	b.Add(engine.SoundRewind, beep.Take(rate.N(whoosh), beep.Mix(
		newVolume(newEnvelope(newOscillator(0, 0, whoosh, WaveNoise, rate), whoosh, 100*time.Millisecond, 150*time.Millisecond, rate), 0.3),
		newVolume(newEnvelope(newOscillator(660, 220, whoosh, WaveSine, rate), whoosh, 100*time.Millisecond, 150*time.Millisecond, rate), 0.4),
	)))

	// rising three-note arpeggio
	note := 180 * time.Millisecond
	b.Add(engine.SoundSuccess, beep.Seq(
		newEnvelope(newOscillator(523.25, 523.25, note, WaveSquare, rate), note, 5*time.Millisecond, 60*time.Millisecond, rate),
		newEnvelope(newOscillator(659.25, 659.25, note, WaveSquare, rate), note, 5*time.Millisecond, 60*time.Millisecond, rate),
		newEnvelope(newOscillator(783.99, 783.99, 2*note, WaveSquare, rate), 2*note, 5*time.Millisecond, 200*time.Millisecond, rate),
	))
	return b
}

// Add renders s into the bank under name, replacing any existing clip
func (b *Bank) Add(name string, s beep.Streamer) {
	buf := beep.NewBuffer(b.format)
	buf.Append(s)
	b.clips[name] = buf
}

// Has reports whether name is in the bank
func (b *Bank) Has(name string) bool {
	_, ok := b.clips[name]
	return ok
}

// Duration returns the clip length at normal pitch
func (b *Bank) Duration(name string) (time.Duration, bool) {
	buf, ok := b.clips[name]
	if !ok {
		return 0, false
	}
	return b.format.SampleRate.D(buf.Len()), true
}

// Streamer returns a fresh seekable reader over the clip
func (b *Bank) Streamer(name string) (beep.StreamSeeker, bool) {
	buf, ok := b.clips[name]
	if !ok {
		return nil, false
	}
	return buf.Streamer(0, buf.Len()), true
}

// Names lists the clips in the bank
func (b *Bank) Names() []string {
	names := make([]string, 0, len(b.clips))
	for n := range b.clips {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

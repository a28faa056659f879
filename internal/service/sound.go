package service

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

// Tone - one sine tone the client should play, Offset is counted from the cue start.
type Tone struct {
	Frequency float64
	Duration  time.Duration
	Volume    float64
	Offset    time.Duration
}

// MarshalJSON - durations go out in milliseconds, the unit browsers schedule audio with.
func (that Tone) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Frequency  float64 `json:"frequency"`
		DurationMS int64   `json:"duration_ms"`
		Volume     float64 `json:"volume"`
		OffsetMS   int64   `json:"offset_ms"`
	}{
		Frequency:  that.Frequency,
		DurationMS: that.Duration.Milliseconds(),
		Volume:     that.Volume,
		OffsetMS:   that.Offset.Milliseconds(),
	})
}

type Cue string

const (
	CueMove Cue = "move"
	CueWin  Cue = "win"
	CueDraw Cue = "draw"
)

var cueTones = map[Cue][]Tone{
	CueMove: {
		{Frequency: 800, Duration: 100 * time.Millisecond, Volume: 0.05},
	},
	// C E G C
	CueWin: {
		{Frequency: 523, Duration: 200 * time.Millisecond, Volume: 0.1},
		{Frequency: 659, Duration: 200 * time.Millisecond, Volume: 0.1, Offset: 100 * time.Millisecond},
		{Frequency: 784, Duration: 200 * time.Millisecond, Volume: 0.1, Offset: 200 * time.Millisecond},
		{Frequency: 1047, Duration: 400 * time.Millisecond, Volume: 0.1, Offset: 300 * time.Millisecond},
	},
	CueDraw: {
		{Frequency: 400, Duration: 300 * time.Millisecond, Volume: 0.08},
		{Frequency: 300, Duration: 300 * time.Millisecond, Volume: 0.08, Offset: 150 * time.Millisecond},
	},
}

// ToneSink - receives the tones of a cue. Errors are logged and otherwise ignored.
type ToneSink interface {
	Play(cue Cue, tones []Tone) error
}

type SoundService interface {
	MoveApplied()
	GameWon()
	GameDrawn()

	SetEnabled(enabled bool)
	Enabled() bool
}

type soundService struct {
	logger  *slog.Logger
	sink    ToneSink
	enabled atomic.Bool
}

func NewSoundService(logger *slog.Logger, sink ToneSink, enabled bool) SoundService {
	service := &soundService{
		logger: logger.With("component", "sound"),
		sink:   sink,
	}
	service.enabled.Store(enabled)

	return service
}

func (that *soundService) MoveApplied() {
	that.play(CueMove)
}

func (that *soundService) GameWon() {
	that.play(CueWin)
}

func (that *soundService) GameDrawn() {
	that.play(CueDraw)
}

func (that *soundService) SetEnabled(enabled bool) {
	that.enabled.Store(enabled)
}

func (that *soundService) Enabled() bool {
	return that.enabled.Load()
}

// play - a broken sink must never affect the game, panics included.
func (that *soundService) play(cue Cue) {
	if !that.enabled.Load() || that.sink == nil {
		return
	}

	log := that.logger.With("method", "play", "cue", cue)

	defer func() {
		if err := recover(); err != nil {
			log.Error("recovered from panic in tone sink", "error", err)
		}
	}()

	tones := append([]Tone(nil), cueTones[cue]...)
	if err := that.sink.Play(cue, tones); err != nil {
		log.Warn("failed to play cue", "error", err)
	}
}

// LogSink - writes cues to the log, used when no client is listening.
type LogSink struct {
	Logger *slog.Logger
}

func (that LogSink) Play(cue Cue, tones []Tone) error {
	that.Logger.Debug("sound cue", "cue", cue, "tones", len(tones))
	return nil
}

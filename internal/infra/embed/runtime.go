// Package embed provides a simulated provider runtime. It stands in for
// the real embedded player in headless deployments and in tests: instances
// become ready after a delay, advance position on a ticker while playing,
// and report ended when the configured duration elapses.
package embed

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/tonearm/tonearm/internal/app/player"
)

// Settings configure the simulated runtime.
type Settings struct {
	ReadyDelayMs       int      `mapstructure:"ready_delay_ms"`
	DefaultDurationSec int      `mapstructure:"default_duration_sec"`
	FailVideoIDs       []string `mapstructure:"fail_video_ids"`
	TickMs             int      `mapstructure:"tick_ms"`
}

// Runtime is a player.Factory producing simulated instances.
type Runtime struct {
	settings Settings
}

// NewRuntime creates a simulated runtime from raw provider settings.
func NewRuntime(raw map[string]any) (*Runtime, error) {
	settings := Settings{
		ReadyDelayMs:       200,
		DefaultDurationSec: 180,
		TickMs:             100,
	}
	if raw != nil {
		if err := mapstructure.Decode(raw, &settings); err != nil {
			return nil, errors.Wrap(err, "failed to decode provider settings")
		}
	}
	if settings.ReadyDelayMs < 0 || settings.DefaultDurationSec <= 0 || settings.TickMs <= 0 {
		return nil, errors.Newf("invalid provider settings: %+v", settings)
	}
	return &Runtime{settings: settings}, nil
}

// Create builds a simulated instance for the video. Videos listed in
// fail_video_ids are rejected synchronously, mimicking an unavailable
// embed.
func (r *Runtime) Create(ctx context.Context, videoID string, cb player.Callbacks) (player.Instance, error) {
	if lo.Contains(r.settings.FailVideoIDs, videoID) {
		return nil, errors.Newf("video is not embeddable: %s", videoID)
	}

	inst := &instance{
		videoID:  videoID,
		duration: time.Duration(r.settings.DefaultDurationSec) * time.Second,
		cb:       cb,
		signals:  make(chan signal, 8),
		done:     make(chan struct{}),
	}
	go inst.run(r.settings)

	zlog.Debug().Msgf("embed: instance created: video_id=%s", videoID)
	return inst, nil
}

type signal int

const (
	signalPlay signal = iota
	signalPause
)

// instance simulates one embedded player. All callbacks fire from the run
// goroutine, never from the calling goroutine of a method.
type instance struct {
	videoID  string
	duration time.Duration
	cb       player.Callbacks
	signals  chan signal
	done     chan struct{}
	destroy  sync.Once

	mu       sync.Mutex
	position time.Duration
	volume   int
	muted    bool
}

func (i *instance) run(settings Settings) {
	select {
	case <-time.After(time.Duration(settings.ReadyDelayMs) * time.Millisecond):
	case <-i.done:
		return
	}

	if i.cb.OnReady != nil {
		i.cb.OnReady()
	}

	tick := time.Duration(settings.TickMs) * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	playing := false
	for {
		select {
		case sig := <-i.signals:
			switch sig {
			case signalPlay:
				playing = true
				if i.cb.OnStateChange != nil {
					i.cb.OnStateChange(player.InstancePlaying)
				}
			case signalPause:
				playing = false
				if i.cb.OnStateChange != nil {
					i.cb.OnStateChange(player.InstancePaused)
				}
			}
		case <-ticker.C:
			if !playing {
				continue
			}
			i.mu.Lock()
			i.position += tick
			ended := i.position >= i.duration
			if ended {
				i.position = i.duration
			}
			i.mu.Unlock()
			if ended {
				playing = false
				if i.cb.OnStateChange != nil {
					i.cb.OnStateChange(player.InstanceEnded)
				}
			}
		case <-i.done:
			return
		}
	}
}

func (i *instance) Play() {
	select {
	case i.signals <- signalPlay:
	case <-i.done:
	}
}

func (i *instance) Pause() {
	select {
	case i.signals <- signalPause:
	case <-i.done:
	}
}

func (i *instance) SetVolume(percent int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.volume = percent
}

func (i *instance) Mute() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.muted = true
}

func (i *instance) Unmute() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.muted = false
}

func (i *instance) Position() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.position
}

func (i *instance) Duration() time.Duration {
	return i.duration
}

func (i *instance) Destroy() {
	i.destroy.Do(func() {
		close(i.done)
		zlog.Debug().Msgf("embed: instance destroyed: video_id=%s", i.videoID)
	})
}

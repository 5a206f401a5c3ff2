package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/tonearm/tonearm/internal/app/ingest"
	"github.com/tonearm/tonearm/internal/app/player"
	"github.com/tonearm/tonearm/internal/app/progress"
	"github.com/tonearm/tonearm/internal/app/queue"
	"github.com/tonearm/tonearm/internal/domain/track"
)

// ErrSessionClosed is returned by transport calls made after Close.
var ErrSessionClosed = errors.New("session closed")

// Config holds controller configuration.
type Config struct {
	TickInterval     time.Duration // Progress tick interval
	LocalStepPercent float64       // Percent step per tick for catalog tracks
	InitialVolume    int           // Volume at session start (0-100)
}

// Controller owns the playback session. All mutation goes through it: the
// queue, the adapter handle and the synchronizer are private, and the UI
// talks to the controller exclusively through transport calls and the
// event/snapshot surfaces.
type Controller struct {
	mu sync.Mutex

	cfg      Config
	queue    *queue.Queue
	ingestor *ingest.Ingestor
	adapter  *player.Adapter
	sync     *progress.Synchronizer

	// Session state
	state       State
	progressPct float64
	epoch       uint64 // Progress epoch for the current track, 0 when none
	handle      *player.Handle
	wantPlaying bool // Play intent, preserved across track changes

	// Preferences, persist across track changes
	volume int
	muted  bool
	liked  map[string]struct{}

	// Consecutive external-track faults, for the full-lap idle guard
	failStreak int

	// Events and snapshot subscriptions
	events chan Event
	subsMu sync.RWMutex
	subs   map[string]chan Snapshot

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a controller over the given queue. The registry may be nil
// to use the process-wide player factory registry; the ingestor may be nil
// to disable AddTrack enrichment.
func New(cfg Config, q *queue.Queue, ing *ingest.Ingestor, reg *player.Registry) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = progress.DefaultInterval
	}
	if cfg.LocalStepPercent <= 0 {
		cfg.LocalStepPercent = 0.5
	}
	cfg.InitialVolume = clampVolume(cfg.InitialVolume)

	if ing == nil {
		ing = ingest.New(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		cfg:      cfg,
		queue:    q,
		ingestor: ing,
		adapter:  player.NewAdapter(reg),
		sync:     progress.New(cfg.TickInterval),
		state:    StateIdle,
		volume:   cfg.InitialVolume,
		liked:    make(map[string]struct{}),
		events:   make(chan Event, 32),
		subs:     make(map[string]chan Snapshot),
		ctx:      ctx,
		cancel:   cancel,
	}

	go c.run()
	return c
}

// Events returns the session event channel.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Subscribe registers a snapshot subscriber. Every observable change
// pushes a fresh snapshot to the returned channel; slow subscribers miss
// intermediate snapshots rather than blocking the session.
func (c *Controller) Subscribe() (string, <-chan Snapshot) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := uuid.New().String()
	ch := make(chan Snapshot, 8)
	c.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a snapshot subscriber.
func (c *Controller) Unsubscribe(id string) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

// Play starts or resumes playback. From idle it loads the current queue
// track; while loading it records the intent so playback starts as soon as
// the player reports ready.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wantPlaying = true
	switch c.state {
	case StatePlaying, StateEnded:
		// Nothing to do; Ended means the session is torn down.
	case StateIdle:
		c.startCurrentLocked()
	case StateLoading:
		if c.handle != nil {
			c.adapter.Command(c.handle, player.Command{Action: player.ActionPlay})
		}
	case StatePaused:
		cur := c.queue.Current()
		if cur.IsExternal() {
			c.adapter.Command(c.handle, player.Command{Action: player.ActionPlay})
		} else {
			c.sync.Resume()
		}
		c.setStateLocked(StatePlaying)
	}
}

// Pause pauses playback.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.wantPlaying = false
	switch c.state {
	case StatePlaying:
		cur := c.queue.Current()
		if cur.IsExternal() {
			c.adapter.Command(c.handle, player.Command{Action: player.ActionPause})
		} else {
			c.sync.Pause()
		}
		c.setStateLocked(StatePaused)
	case StateLoading:
		// A play is already buffered on the pre-ready queue; line a pause
		// up behind it so the replay leaves the instance paused.
		if c.handle != nil {
			c.adapter.Command(c.handle, player.Command{Action: player.ActionPause})
		}
	default:
	}
}

// SkipNext advances to the next queue track, preserving the play intent.
func (c *Controller) SkipNext() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateEnded {
		return
	}
	c.advanceLocked(true)
}

// SkipPrevious moves to the previous queue track, preserving the play intent.
func (c *Controller) SkipPrevious() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateEnded {
		return
	}
	c.advanceLocked(false)
}

// JumpTo makes the track with the given ID current. Unknown IDs fail with
// queue.ErrTrackNotFound and mutate nothing; after Close it fails with
// ErrSessionClosed.
func (c *Controller) JumpTo(trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEnded {
		return ErrSessionClosed
	}
	t, err := c.queue.JumpTo(trackID)
	if err != nil {
		return err
	}
	if err := c.loadLocked(t); err != nil {
		zlog.Warn().Msgf("session: jumped track unplayable, skipping: title=%s error=%v", t.Title, err)
		c.advanceLocked(true)
	}
	return nil
}

// AddTrack ingests an external media URL and appends the result to the
// queue. On ingestion failure the queue is untouched and the typed error
// is returned to the caller.
func (c *Controller) AddTrack(ctx context.Context, rawURL, titleHint, artistHint string) (track.Track, error) {
	// Parse and enrich outside the lock; ingestion is pure and may touch
	// the network for metadata.
	t, err := c.ingestor.Ingest(ctx, rawURL, titleHint, artistHint)
	if err != nil {
		return track.Track{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Append(t)
	zlog.Info().Msgf("session: track added: title=%s video_id=%s", t.Title, t.External.VideoID)
	c.emitLocked(Event{Type: EventQueueChanged})
	return t, nil
}

// ToggleLike toggles the liked flag for the current track and returns the
// new value.
func (c *Controller) ToggleLike() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.queue.Current().ID
	_, isLiked := c.liked[id]
	if isLiked {
		delete(c.liked, id)
	} else {
		c.liked[id] = struct{}{}
	}
	c.emitLocked(Event{Type: EventPreferencesChanged})
	return !isLiked
}

// SetVolume sets the playback volume, clamped to 0-100.
func (c *Controller) SetVolume(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clampVolume(v)
	if c.handle != nil {
		c.adapter.Command(c.handle, player.Command{Action: player.ActionSetVolume, Volume: c.volume})
	}
	c.emitLocked(Event{Type: EventPreferencesChanged})
}

// ToggleMute toggles mute and returns the new value.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.muted = !c.muted
	if c.handle != nil {
		action := player.ActionUnmute
		if c.muted {
			action = player.ActionMute
		}
		c.adapter.Command(c.handle, player.Command{Action: action})
	}
	c.emitLocked(Event{Type: EventPreferencesChanged})
	return c.muted
}

// Snapshot returns the current observable session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Upcoming returns the next n tracks after the current one for display.
func (c *Controller) Upcoming(n int) []track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Collect(c.queue.Upcoming(n))
}

// Close tears the session down: the live player instance is destroyed, the
// synchronizer stops and subscribers are closed. Idempotent.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.Lock()
		c.sync.Stop()
		c.epoch = 0
		if c.handle != nil {
			h := c.handle
			c.handle = nil
			c.adapter.Destroy(h)
		}
		c.state = StateEnded
		c.mu.Unlock()

		c.subsMu.Lock()
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
		c.subsMu.Unlock()
	})
}

// run consumes adapter events and progress ticks until the session closes.
func (c *Controller) run() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.adapter.Events():
			c.handleAdapterEvent(ev)
		case tk := <-c.sync.Ticks():
			c.handleTick(tk)
		}
	}
}

func (c *Controller) handleAdapterEvent(ev player.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Stale-handle guard: events from superseded or destroyed handles are
	// discarded by identity, never applied.
	if ev.Handle != c.handle {
		zlog.Debug().Msgf("session: discarding stale player event: type=%s handle=%s", ev.Type, ev.Handle.ID())
		return
	}

	switch ev.Type {
	case player.EventReady:
		c.failStreak = 0
		if d := c.handle.Duration(); d > 0 {
			c.queue.UpdateDuration(c.queue.Current().ID, d)
		}
		c.epoch = c.sync.Start(progress.NewAdapterPoll(c.handle))
		if c.wantPlaying {
			c.setStateLocked(StatePlaying)
		} else {
			c.sync.Pause()
			c.setStateLocked(StatePaused)
		}
	case player.EventPlaying:
		if !c.wantPlaying {
			// A replayed play landing after the user paused; push the
			// instance back down instead of surfacing the playback.
			c.adapter.Command(c.handle, player.Command{Action: player.ActionPause})
			return
		}
		c.sync.Resume()
		c.setStateLocked(StatePlaying)
	case player.EventPaused:
		c.sync.Pause()
		c.setStateLocked(StatePaused)
	case player.EventEnded:
		// The ended event wins over polling; auto-advance keeps the play
		// intent across the track boundary.
		c.advanceLocked(true)
	case player.EventError:
		cur := c.queue.Current()
		zlog.Warn().Msgf("session: track unplayable, auto-advancing: title=%s code=%d", cur.Title, ev.Code)
		c.emitLocked(Event{Type: EventTrackUnplayable})
		c.failStreak++
		if c.failStreak >= c.queue.Len() {
			zlog.Warn().Msg("session: no playable track in queue, going idle")
			c.becomeIdleLocked()
			return
		}
		c.advanceLocked(true)
	}
}

func (c *Controller) handleTick(tk progress.Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tk.Epoch != c.epoch {
		zlog.Debug().Msgf("session: discarding stale progress tick: epoch=%d current=%d", tk.Epoch, c.epoch)
		return
	}
	c.progressPct = tk.Percent
	c.emitLocked(Event{Type: EventProgress})
	if tk.Complete {
		c.advanceLocked(true)
	}
}

// startCurrentLocked begins playback of the current queue track, falling
// back to auto-advance when it cannot be loaded.
func (c *Controller) startCurrentLocked() {
	if err := c.loadLocked(c.queue.Current()); err != nil {
		zlog.Warn().Msgf("session: current track unplayable: error=%v", err)
		c.advanceLocked(true)
	}
}

// advanceLocked moves through the queue (wrap-aware) until a track loads,
// preserving the play intent. If a full lap yields nothing playable the
// session settles in idle rather than looping.
func (c *Controller) advanceLocked(forward bool) {
	for i := 0; i < c.queue.Len(); i++ {
		var t track.Track
		if forward {
			t = c.queue.Next()
		} else {
			t = c.queue.Previous()
		}
		if err := c.loadLocked(t); err != nil {
			zlog.Warn().Msgf("session: track unplayable, skipping: title=%s error=%v", t.Title, err)
			continue
		}
		return
	}
	zlog.Warn().Msg("session: no playable track in queue, going idle")
	c.becomeIdleLocked()
}

// loadLocked performs one atomic track change: stop the synchronizer,
// reset progress, tear down the old handle, then bind the new source.
// The caller observes no intermediate state. A non-nil error means the
// track cannot even begin loading (player factory unavailable).
func (c *Controller) loadLocked(t track.Track) error {
	c.sync.Stop()
	c.epoch = 0
	c.progressPct = 0
	if c.handle != nil {
		h := c.handle
		c.handle = nil
		c.adapter.Destroy(h)
	}

	c.setStateLocked(StateLoading)
	c.emitLocked(Event{Type: EventTrackChanged})

	if !t.IsExternal() {
		c.failStreak = 0
		c.epoch = c.sync.Start(progress.NewLocalClock(c.cfg.LocalStepPercent))
		if c.wantPlaying {
			c.setStateLocked(StatePlaying)
		} else {
			c.sync.Pause()
			c.setStateLocked(StatePaused)
		}
		return nil
	}

	h, err := c.adapter.Create(c.ctx, t.External.VideoID)
	if err != nil {
		return err
	}
	c.handle = h

	// Preferences and the play intent ride the pre-ready command queue.
	c.adapter.Command(h, player.Command{Action: player.ActionSetVolume, Volume: c.volume})
	if c.muted {
		c.adapter.Command(h, player.Command{Action: player.ActionMute})
	}
	if c.wantPlaying {
		c.adapter.Command(h, player.Command{Action: player.ActionPlay})
	}
	return nil
}

// becomeIdleLocked tears down playback state without ending the session.
func (c *Controller) becomeIdleLocked() {
	c.sync.Stop()
	c.epoch = 0
	c.progressPct = 0
	c.wantPlaying = false
	c.failStreak = 0
	if c.handle != nil {
		h := c.handle
		c.handle = nil
		c.adapter.Destroy(h)
	}
	c.setStateLocked(StateIdle)
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	c.emitLocked(Event{Type: EventStateChanged})
}

func (c *Controller) snapshotLocked() Snapshot {
	liked := lo.Keys(c.liked)
	slices.Sort(liked)
	return Snapshot{
		State:           c.state,
		ProgressPercent: c.progressPct,
		Current:         c.queue.Current(),
		LikedTrackIDs:   liked,
		Volume:          c.volume,
		Muted:           c.muted,
	}
}

// emitLocked publishes an event and a snapshot without blocking.
func (c *Controller) emitLocked(e Event) {
	cur := c.queue.Current()
	e.Track = &cur
	e.State = c.state
	e.Progress = c.progressPct

	select {
	case c.events <- e:
	case <-c.ctx.Done():
	default:
	}

	snap := c.snapshotLocked()
	c.subsMu.RLock()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	c.subsMu.RUnlock()
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Package main provides the tonearm player entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/tonearm/tonearm/internal/app/ingest"
	"github.com/tonearm/tonearm/internal/app/player"
	"github.com/tonearm/tonearm/internal/app/queue"
	"github.com/tonearm/tonearm/internal/app/session"
	"github.com/tonearm/tonearm/internal/domain/track"
	"github.com/tonearm/tonearm/internal/infra/config"
	"github.com/tonearm/tonearm/internal/infra/embed"
	"github.com/tonearm/tonearm/internal/infra/logger"
	"github.com/tonearm/tonearm/internal/infra/oembed"
)

var (
	app        = kingpin.New("tonearm", "tonearm playback engine")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	validateCmd = app.Command("validate-config", "Validate the config file and exit")
)

func init() {
	// start command (default)
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == validateCmd.FullCommand() {
		fmt.Printf("Config OK: %d catalog entries, provider=%s\n", len(cfg.Catalog), cfg.Provider.Type)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run executes the main player logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	ingestor := ingest.New(oembed.New())

	seed, err := buildSeed(ctx, cfg, ingestor)
	if err != nil {
		return fmt.Errorf("failed to build seed queue: %w", err)
	}

	q, err := queue.New(seed)
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}
	zlog.Info().Msgf("Queue seeded: tracks=%d total=%v", q.Len(), q.TotalDuration())

	player.OnFactoryReady(func() {
		zlog.Info().Msg("Provider runtime ready")
	})

	switch cfg.Provider.Type {
	case "simulated":
		runtime, err := embed.NewRuntime(cfg.Provider.Settings)
		if err != nil {
			return fmt.Errorf("failed to create provider runtime: %w", err)
		}
		player.SetFactory(runtime)
	default:
		// External tracks stay unplayable until a runtime is installed.
		zlog.Warn().Msgf("Unknown provider type, runtime not installed: type=%s", cfg.Provider.Type)
	}

	ctrl := session.New(session.Config{
		TickInterval:     cfg.Playback.TickInterval(),
		LocalStepPercent: cfg.Playback.LocalStepPercent,
		InitialVolume:    cfg.Playback.InitialVolume,
	}, q, ingestor, player.DefaultRegistry())
	defer ctrl.Close()

	go logEvents(ctrl)

	ctrl.Play()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	replDone := make(chan struct{})
	go func() {
		defer close(replDone)
		repl(ctx, ctrl)
	}()

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-replDone:
		zlog.Info().Msg("Input closed, shutting down...")
	}

	zlog.Info().Msg("Player stopped")
	return nil
}

// buildSeed converts catalog entries into tracks. External entries are
// ingested from their source URL; an entry that fails ingestion aborts
// startup so a broken config is caught immediately.
func buildSeed(ctx context.Context, cfg *config.Config, ingestor *ingest.Ingestor) ([]track.Track, error) {
	seed := make([]track.Track, 0, len(cfg.Catalog))
	for i, entry := range cfg.Catalog {
		if entry.IsExternal() {
			t, err := ingestor.Ingest(ctx, entry.SourceURL, entry.Title, entry.Artist)
			if err != nil {
				return nil, fmt.Errorf("catalog entry %d (%s): %w", i, entry.SourceURL, err)
			}
			seed = append(seed, t)
			continue
		}
		seed = append(seed, track.NewCatalogTrack(entry.Title, entry.Artist, entry.Album, entry.CoverArtURL, entry.Duration()))
	}
	return seed, nil
}

// logEvents drains the session event channel into the log.
func logEvents(ctrl *session.Controller) {
	for ev := range ctrl.Events() {
		switch ev.Type {
		case session.EventTrackChanged:
			zlog.Info().Msgf("Track changed: title=%s artist=%s", ev.Track.Title, ev.Track.Artist)
		case session.EventStateChanged:
			zlog.Info().Msgf("State changed: state=%s", ev.State)
		case session.EventTrackUnplayable:
			zlog.Warn().Msgf("Track unplayable, skipping: title=%s", ev.Track.Title)
		case session.EventProgress:
			zlog.Debug().Msgf("Progress: percent=%.1f", ev.Progress)
		}
	}
}

// repl reads transport commands from stdin until EOF or quit.
func repl(ctx context.Context, ctrl *session.Controller) {
	fmt.Println("Commands: play pause next prev jump <id> add <url> like vol <0-100> mute up [n] status quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "play":
			ctrl.Play()
		case "pause":
			ctrl.Pause()
		case "next":
			ctrl.SkipNext()
		case "prev":
			ctrl.SkipPrevious()
		case "jump":
			if len(fields) < 2 {
				fmt.Println("usage: jump <track-id>")
				continue
			}
			if err := ctrl.JumpTo(fields[1]); err != nil {
				fmt.Printf("jump failed: %v\n", err)
			}
		case "add":
			if len(fields) < 2 {
				fmt.Println("usage: add <url>")
				continue
			}
			t, err := ctrl.AddTrack(ctx, fields[1], "", "")
			if err != nil {
				fmt.Printf("add failed: %v\n", err)
				continue
			}
			fmt.Printf("added: %s - %s\n", t.Artist, t.Title)
		case "like":
			if ctrl.ToggleLike() {
				fmt.Println("liked")
			} else {
				fmt.Println("unliked")
			}
		case "vol":
			if len(fields) < 2 {
				fmt.Println("usage: vol <0-100>")
				continue
			}
			v, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Printf("invalid volume: %s\n", fields[1])
				continue
			}
			ctrl.SetVolume(v)
		case "mute":
			if ctrl.ToggleMute() {
				fmt.Println("muted")
			} else {
				fmt.Println("unmuted")
			}
		case "up":
			n := 5
			if len(fields) > 1 {
				if parsed, err := strconv.Atoi(fields[1]); err == nil {
					n = parsed
				}
			}
			for i, t := range ctrl.Upcoming(n) {
				fmt.Printf("%2d. %s - %s [%s]\n", i+1, t.Artist, t.Title, t.ID)
			}
		case "status":
			printStatus(ctrl.Snapshot())
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}

func printStatus(snap session.Snapshot) {
	fmt.Printf("state: %s\n", snap.State)
	fmt.Printf("track: %s - %s\n", snap.Current.Artist, snap.Current.Title)
	fmt.Printf("progress: %.1f%%\n", snap.ProgressPercent)
	fmt.Printf("volume: %d (muted: %v)\n", snap.Volume, snap.Muted)
	if len(snap.LikedTrackIDs) > 0 {
		fmt.Printf("liked: %s\n", strings.Join(snap.LikedTrackIDs, ", "))
	}
}

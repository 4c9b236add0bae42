package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/luvatrix/planops/internal/ledger"
	"github.com/luvatrix/planops/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate artifacts whenever the ledger changes",
	Long: `Watch the planning directory and rerun the render pipeline after each
change, debounced so editors that write multiple files trigger one
regeneration. Stops on Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	opts := pipelineOptions(cfg)
	debounce := time.Duration(cfg.WatchDebounceMS) * time.Millisecond

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.PlanningDir); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.PlanningDir, err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	regenerate := func() {
		snap, err := ledger.Load(cfg.PlanningDir)
		if err != nil {
			logger.Error("loading ledger", "err", err)
			return
		}
		res, err := pipeline.Regenerate(ctx, snap, opts)
		if err != nil {
			logger.Error("regenerating artifacts", "err", err)
			return
		}
		logger.Info("artifacts regenerated", "count", len(res.Paths), "hash", res.ContentHash[:12])
	}

	regenerate()
	logger.Info("watching for ledger changes", "dir", cfg.PlanningDir, "debounce", debounce)

	return watchLoop(ctx, watcher, debounce, regenerate)
}

// watchLoop coalesces bursts of filesystem events into one regeneration
// per quiet period.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration, regenerate func()) error {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			regenerate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// relevantEvent keeps ledger document writes and drops lock files, temp
// files, and unrelated noise.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasSuffix(name, ".tmp") || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".json")
}

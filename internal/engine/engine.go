// Package engine orchestrates a single decision cycle: enumerate and
// hash the tracked files, compare against the persisted baseline, and
// run the configured command only when something changed.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"ifchanged/internal/config"
	"ifchanged/internal/detect"
	"ifchanged/internal/executor"
	"ifchanged/internal/fileset"
	"ifchanged/internal/snapshot"
)

// ciEnvVar enables CI-bypass mode when set to an affirmative value.
const ciEnvVar = "CI"

// Engine runs the change-detection cycle
type Engine struct {
	cfg    *config.Config
	runner executor.Runner
	logger *slog.Logger
}

// New creates a new engine
func New(cfg *config.Config, runner executor.Runner, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// Run executes one full cycle and returns the process exit code.
//
// On the changed branch the snapshot is persisted after the command runs,
// regardless of the command's exit code: a failing build is remembered
// and will not be retried until its inputs change again or force is set.
// The store is not touched when the command cannot be spawned at all.
func (e *Engine) Run(ctx context.Context) (int, error) {
	if ciBypass() {
		e.status("CI environment detected, running command unconditionally", "command", e.cfg.Command)
		code, err := e.runner.Run(ctx, e.cfg.Command, e.cfg.BaseDir)
		if err != nil {
			return 0, err
		}
		return code, nil
	}

	baseline, current, err := e.loadAndBuild(ctx)
	if err != nil {
		return 0, err
	}

	changed := detect.Changed(current, baseline, e.cfg.Force, e.cfg.ChunkSize)
	if !changed {
		e.status("no changes detected, skipping command", "files", current.Len())
		return 0, nil
	}

	e.status("changes detected, running command",
		"files", current.Len(),
		"command", e.cfg.Command)

	code, err := e.runner.Run(ctx, e.cfg.Command, e.cfg.BaseDir)
	if err != nil {
		return 0, err
	}

	if err := snapshot.SaveStore(e.cfg.StoreFilePath(), current); err != nil {
		return 0, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if code != 0 {
		e.status("command exited nonzero, snapshot recorded anyway", "exit_code", code)
	}
	return code, nil
}

// Check computes the run/skip decision without executing the command or
// touching the store.
func (e *Engine) Check(ctx context.Context) (bool, error) {
	baseline, current, err := e.loadAndBuild(ctx)
	if err != nil {
		return false, err
	}
	return detect.Changed(current, baseline, e.cfg.Force, e.cfg.ChunkSize), nil
}

// loadAndBuild loads the baseline and builds the current snapshot
// concurrently; neither depends on the other's result. A corrupt or
// unreadable store downgrades to an absent baseline, while any
// enumeration or hashing failure aborts the run.
func (e *Engine) loadAndBuild(ctx context.Context) (baseline, current *snapshot.Snapshot, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		snap, err := snapshot.LoadStore(e.cfg.StoreFilePath())
		if err != nil {
			e.logger.Warn("failed to load baseline snapshot (treating as fresh run)", "error", err)
			snap = nil
		}
		baseline = snap
		return nil
	})

	g.Go(func() error {
		files, err := fileset.Resolve(e.cfg.BaseDir, e.cfg.Include, e.trackingExcludes())
		if err != nil {
			return fmt.Errorf("failed to enumerate tracked files: %w", err)
		}
		snap, err := snapshot.Build(ctx, e.cfg.BaseDir, files)
		if err != nil {
			return fmt.Errorf("failed to build snapshot: %w", err)
		}
		current = snap
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return baseline, current, nil
}

// trackingExcludes extends the configured excludes with the snapshot
// store itself, so writing a new baseline never counts as a change on
// the next run.
func (e *Engine) trackingExcludes() []string {
	excludes := append([]string{}, e.cfg.Exclude...)
	if rel, err := filepath.Rel(e.cfg.BaseDir, e.cfg.StoreFilePath()); err == nil {
		excludes = append(excludes, filepath.ToSlash(rel))
	}
	return excludes
}

// status logs a human-readable status line unless silent mode is on.
func (e *Engine) status(msg string, args ...any) {
	if e.cfg.Silent {
		return
	}
	e.logger.Info(msg, args...)
}

// ciBypass reports whether the CI indicator variable is set to an
// affirmative value.
func ciBypass() bool {
	switch strings.ToLower(os.Getenv(ciEnvVar)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shekified/life-tracker/internal/block"
	"github.com/shekified/life-tracker/internal/clock"
	"github.com/shekified/life-tracker/internal/config"
	"github.com/shekified/life-tracker/internal/logging"
	"github.com/shekified/life-tracker/internal/model"
	"github.com/shekified/life-tracker/internal/recurrence"
	"github.com/shekified/life-tracker/internal/snapshot"
	"github.com/shekified/life-tracker/internal/telemetry"
	"github.com/shekified/life-tracker/internal/tracker"
)

var errAmbiguousRef = errors.New("ambiguous block reference")

// loadConfig resolves the config file, environment, and flag overrides in
// that order.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = filepath.Join(config.DefaultDataDir(), "config.yaml")
	}
	cfg, err := config.FromEnv(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.storage != "" {
		cfg.Storage.Backend = strings.ToLower(opts.storage)
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	return logging.New(cfg.Logging, cmd.ErrOrStderr())
}

// session wires one tracker over the configured snapshot backend.
type session struct {
	cfg     *config.Config
	log     zerolog.Logger
	tracker *tracker.Tracker
	events  telemetry.Repository
	closers []func() error
}

func openSession(cmd *cobra.Command, opts *globalOptions) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log := newLogger(cmd, cfg)
	s := &session{cfg: cfg, log: log}

	repo, err := s.openRepo(ctx)
	if err != nil {
		return nil, err
	}
	store, err := block.Open(ctx, repo, block.WithLogger(log))
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.events = telemetry.NewMemoryRepository()
	if cfg.Telemetry.ActivityEnabled() && cfg.Storage.Backend != config.BackendMemory {
		fileEvents, err := telemetry.NewFileRepository(cfg.DataDir)
		if err != nil {
			log.Warn().Err(err).Msg("activity log unavailable, keeping events in memory")
		} else {
			s.events = fileEvents
		}
	}

	mode, err := recurrence.ParseMode(cfg.Recurrence.Mode)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.tracker, err = tracker.New(tracker.Options{
		Store:          store,
		Clock:          clock.RealClock{},
		RecurrenceMode: mode,
		StreakLookback: cfg.Metrics.StreakLookbackDays,
		Events:         s.events,
		Logger:         log,
	})
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) openRepo(ctx context.Context) (snapshot.Repo, error) {
	switch s.cfg.Storage.Backend {
	case config.BackendMemory:
		return snapshot.NewMemoryRepo(), nil
	case config.BackendSQLite:
		repo, err := snapshot.OpenSQLiteRepo(ctx, s.cfg.DataDir, s.cfg.Storage.SQLiteName)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, repo.Close)
		s.log.Debug().Str("path", repo.Path()).Msg("using sqlite snapshot")
		return repo, nil
	default:
		repo, err := snapshot.NewFileRepo(s.cfg.DataDir, s.cfg.Storage.FileName)
		if err != nil {
			return nil, err
		}
		s.log.Debug().Str("path", repo.Path()).Msg("using file snapshot")
		return repo, nil
	}
}

func (s *session) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	s.closers = nil
	return errors.Join(errs...)
}

// resolve maps a user reference to a block id in today's list. A reference
// is a full id, a 1-based position (up to three digits), or a unique id
// prefix.
func (s *session) resolve(cmd *cobra.Command, ref string) (model.BlockID, error) {
	today := s.tracker.TodaysBlocks(cmd.Context())
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", block.ErrNotFound)
	}

	for _, b := range today {
		if string(b.ID) == ref {
			return b.ID, nil
		}
	}

	if n, err := strconv.Atoi(ref); err == nil && len(ref) <= 3 {
		if n >= 1 && n <= len(today) {
			return today[n-1].ID, nil
		}
		return "", fmt.Errorf("%w: no block at position %d", block.ErrNotFound, n)
	}

	var match model.BlockID
	for _, b := range today {
		if !strings.HasPrefix(string(b.ID), ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q", errAmbiguousRef, ref)
		}
		match = b.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %q", block.ErrNotFound, ref)
	}
	return match, nil
}

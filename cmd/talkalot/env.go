package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/talkalot/internal/account"
	"github.com/san-kum/talkalot/internal/backend"
	"github.com/san-kum/talkalot/internal/config"
	"github.com/san-kum/talkalot/internal/logging"
	"github.com/san-kum/talkalot/internal/motion"
	"github.com/san-kum/talkalot/internal/recorder"
	"github.com/san-kum/talkalot/internal/storage"
)

// appEnv is what every backend-facing command needs.
type appEnv struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *storage.Store
	accounts *account.Service
}

func setup(cmd *cobra.Command) (*appEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{
		File:       cfg.LogFile(),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, err
	}

	store := storage.New(cfg.DataDir)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	client, err := newBackend(cfg, log.Named("backend"))
	if err != nil {
		return nil, err
	}
	log.Info("starting",
		zap.String("command", cmd.Name()),
		zap.String("backend", cfg.Backend.Kind),
		zap.String("data", cfg.DataDir),
	)

	return &appEnv{
		cfg:      cfg,
		log:      log,
		store:    store,
		accounts: account.NewService(client, client, account.WithLogger(log.Named("account"))),
	}, nil
}

func newBackend(cfg *config.Config, log *zap.Logger) (backend.Client, error) {
	switch cfg.Backend.Kind {
	case config.BackendFirebase:
		return backend.NewFirebase(backend.FirebaseOptions{
			APIKey:       cfg.Backend.APIKey,
			ProjectID:    cfg.Backend.ProjectID,
			AuthURL:      cfg.Backend.AuthURL,
			FirestoreURL: cfg.Backend.FirestoreURL,
			Timeout:      cfg.Backend.Timeout,
			Logger:       log,
		}), nil
	case config.BackendMemory:
		return backend.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
}

func (e *appEnv) callContext() (context.Context, context.CancelFunc) {
	if t := e.cfg.Backend.Timeout; t > 0 {
		return context.WithTimeout(context.Background(), t)
	}
	return context.WithCancel(context.Background())
}

func (e *appEnv) close() {
	_ = e.log.Sync()
}

func animationConfig(cfg *config.Config) motion.Config {
	m := motion.DefaultConfig()
	m.Divisor = cfg.Animation.Divisor
	m.MinScale = cfg.Animation.MinScale
	m.MaxScale = cfg.Animation.MaxScale
	return m
}

// clipIndex writes metadata for each new latest recording, crediting whoever
// is signed in when the recording lands.
type clipIndex struct {
	store      *storage.Store
	sampleRate int
	log        *zap.Logger

	mu   sync.Mutex
	last string
}

func (c *clipIndex) StateChanged(s recorder.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Latest == nil || s.Latest.ID == c.last {
		return
	}
	c.last = s.Latest.ID
	clip := storage.Clip{Artifact: *s.Latest, SampleRate: c.sampleRate, Owner: c.owner()}
	if err := c.store.SaveClip(clip); err != nil {
		c.log.Warn("save clip metadata", zap.String("id", clip.ID), zap.Error(err))
	}
}

func (c *clipIndex) Level(float64) {}

func (c *clipIndex) owner() string {
	u, err := c.store.LoadSession()
	if err != nil {
		if !errors.Is(err, storage.ErrNoSession) {
			c.log.Warn("load session for clip owner", zap.Error(err))
		}
		return ""
	}
	return u.ID
}

type tee []recorder.Listener

func (t tee) StateChanged(s recorder.Snapshot) {
	for _, l := range t {
		l.StateChanged(s)
	}
}

func (t tee) Level(level float64) {
	for _, l := range t {
		l.Level(level)
	}
}

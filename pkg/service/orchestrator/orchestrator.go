// Package orchestrator owns the engine's mode state machine: it binds
// cassettes to sessions, installs and removes interceptors on the configured
// stubs, and persists recordings at session end.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stubtape/stubtape/config"
	"github.com/stubtape/stubtape/pkg/matcher"
	"github.com/stubtape/stubtape/pkg/models"
	"github.com/stubtape/stubtape/pkg/service/record"
	"github.com/stubtape/stubtape/pkg/service/replay"
	"github.com/stubtape/stubtape/pkg/stub"
	"github.com/stubtape/stubtape/utils"
)

// Mode is the engine-wide interception state.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeRecording Mode = "recording"
	ModePlaying   Mode = "playing"
)

// Orchestrator drives sessions across the registered stubs. At most one
// cassette is bound at a time; session entry and exit are the only points
// that mutate mode state and both are guarded by one lock.
type Orchestrator struct {
	logger   *zap.Logger
	db       CassetteDB
	registry *stub.Registry

	mu             sync.RWMutex
	config         config.Config
	mode           Mode
	active         *models.Cassette
	sessionID      string
	sessionIgnored matcher.IgnoreSet
}

func New(logger *zap.Logger, cfg config.Config, db CassetteDB, registry *stub.Registry) *Orchestrator {
	return &Orchestrator{
		logger:   logger,
		db:       db,
		registry: registry,
		config:   cfg,
		mode:     ModeIdle,
	}
}

// SessionOption adjusts one session at entry time.
type SessionOption func(*sessionOpts)

type sessionOpts struct {
	ignored []string
}

// WithIgnoredFields adds field names to the ignore list for this session
// only, unioned with the globally configured list.
func WithIgnoredFields(fields ...string) SessionOption {
	return func(o *sessionOpts) {
		o.ignored = append(o.ignored, fields...)
	}
}

// Mode returns the current interception state.
func (o *Orchestrator) Mode() Mode {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.mode
}

// Active returns the cassette bound to the current session, or nil.
func (o *Orchestrator) Active() *models.Cassette {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.active
}

// Ignored returns the union of the configured and session ignore lists.
func (o *Orchestrator) Ignored() matcher.IgnoreSet {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return matcher.NewIgnoreSet(o.config.IgnoredFields...).Union(o.sessionIgnored)
}

// SetConfig replaces the engine configuration. Fails while a session is
// bound so matching rules cannot change under a live recording.
func (o *Orchestrator) SetConfig(cfg config.Config) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mode != ModeIdle {
		return models.ErrSessionRunning
	}
	o.config = cfg
	return nil
}

// EnterRecording starts a recording session for the named cassette and
// installs the recording interceptor on every registered stub. Entering
// again for the same cassette is a no-op; entering while another session is
// bound fails with ErrSessionRunning.
func (o *Orchestrator) EnterRecording(_ context.Context, name string, opts ...SessionOption) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == ModeRecording && o.active != nil && o.active.Name == name {
		return nil
	}
	if err := o.checkSessionStart(); err != nil {
		return err
	}

	o.bind(ModeRecording, models.NewCassette(name), opts)
	for _, s := range o.registry.Stubs() {
		s.Intercept(record.NewInterceptor(o.logger, o, s))
	}
	o.logger.Info("entered recording mode",
		zap.String("cassette", name),
		zap.String("session", o.sessionID),
		zap.Int("stubs", o.registry.Len()))
	return nil
}

// ExitRecording removes interception from every stub, persists the bound
// cassette and returns to idle. A no-op when already idle. The cassette is
// unbound even when persisting fails.
func (o *Orchestrator) ExitRecording(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == ModeIdle {
		return nil
	}
	if o.mode != ModeRecording {
		return fmt.Errorf("cannot exit recording: engine is %s", o.mode)
	}

	o.restoreStubs()
	cassette := o.active
	o.unbind()

	if err := o.db.Save(ctx, cassette); err != nil {
		utils.LogError(o.logger, err, "failed to persist the recorded cassette",
			zap.String("cassette", cassette.Name))
		return err
	}
	o.logger.Info("exited recording mode",
		zap.String("cassette", cassette.Name),
		zap.Int("entries", cassette.Len()))
	return nil
}

// EnterPlaying loads the named cassette eagerly — a load failure fails the
// whole session start — and installs the playing interceptor on every
// registered stub. Entering again for the same cassette is a no-op.
func (o *Orchestrator) EnterPlaying(ctx context.Context, name string, opts ...SessionOption) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == ModePlaying && o.active != nil && o.active.Name == name {
		return nil
	}
	if err := o.checkSessionStart(); err != nil {
		return err
	}

	cassette, err := o.db.Load(ctx, name)
	if err != nil {
		utils.LogError(o.logger, err, "failed to load the cassette, not entering playing mode",
			zap.String("cassette", name))
		return err
	}

	o.bind(ModePlaying, cassette, opts)
	for _, s := range o.registry.Stubs() {
		s.Intercept(replay.NewInterceptor(o.logger, o, s))
	}
	o.logger.Info("entered playing mode",
		zap.String("cassette", name),
		zap.String("session", o.sessionID),
		zap.Int("entries", cassette.Len()))
	return nil
}

// ExitPlaying removes interception and returns to idle. Playing never
// mutates the cassette, so nothing is persisted. A no-op when already idle.
func (o *Orchestrator) ExitPlaying(_ context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.mode == ModeIdle {
		return nil
	}
	if o.mode != ModePlaying {
		return fmt.Errorf("cannot exit playing: engine is %s", o.mode)
	}

	o.restoreStubs()
	name := o.active.Name
	o.unbind()
	o.logger.Info("exited playing mode", zap.String("cassette", name))
	return nil
}

// WithCassette runs body inside a session: playing when the named cassette
// already exists, recording (and persisting at the end) otherwise. The
// session always exits to idle, including when body fails or panics.
func (o *Orchestrator) WithCassette(ctx context.Context, name string, body func(ctx context.Context) error, opts ...SessionOption) (err error) {
	playing := o.db.Exists(name)

	if playing {
		if err := o.EnterPlaying(ctx, name, opts...); err != nil {
			return err
		}
	} else {
		if err := o.EnterRecording(ctx, name, opts...); err != nil {
			return err
		}
	}

	defer func() {
		var exitErr error
		if playing {
			exitErr = o.ExitPlaying(ctx)
		} else {
			exitErr = o.ExitRecording(ctx)
		}
		if err == nil {
			err = exitErr
		}
	}()

	return body(ctx)
}

// DeleteAllCassettes removes every persisted cassette in the configured
// directory.
func (o *Orchestrator) DeleteAllCassettes(ctx context.Context) error {
	deleted, err := o.db.DeleteAll(ctx)
	if err != nil {
		utils.LogError(o.logger, err, "failed to delete the persisted cassettes")
		return err
	}
	o.logger.Info("deleted all cassettes", zap.Strings("cassettes", deleted))
	return nil
}

// checkSessionStart validates the preconditions common to both session
// kinds. Callers hold the lock.
func (o *Orchestrator) checkSessionStart() error {
	if o.mode != ModeIdle {
		return models.ErrSessionRunning
	}
	if o.config.Path == "" {
		return models.ErrNoCassetteDir
	}
	if o.registry.Len() == 0 {
		return models.ErrNoStubs
	}
	return nil
}

func (o *Orchestrator) bind(mode Mode, cassette *models.Cassette, opts []SessionOption) {
	var so sessionOpts
	for _, opt := range opts {
		opt(&so)
	}
	o.mode = mode
	o.active = cassette
	o.sessionID = uuid.NewString()
	o.sessionIgnored = matcher.NewIgnoreSet(so.ignored...)
}

func (o *Orchestrator) unbind() {
	o.mode = ModeIdle
	o.active = nil
	o.sessionID = ""
	o.sessionIgnored = nil
}

// restoreStubs puts every stub's original transport back. Restore is
// idempotent, so stubs registered mid-session are handled too.
func (o *Orchestrator) restoreStubs() {
	for _, s := range o.registry.Stubs() {
		s.Restore()
	}
}

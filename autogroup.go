// Package autogroup keeps browser tabs in groups chosen by URL patterns.
//
// An Engine loads the persisted group configurations from a store, keeps
// them compiled, and resolves which group a URL belongs to. Changes written
// to the store by anyone are picked up and published to watchers.
//
// # Basic Usage
//
//	s, err := store.New(store.Config{Path: "autogroup.db"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	engine, err := autogroup.Load(ctx, s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
//
//	if g := engine.Resolve("https://github.com/golang/go"); g != nil {
//	    fmt.Println(g.Title)
//	}
package autogroup

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pkt.systems/pslog"

	"github.com/praetorian-inc/autogroup/pkg/group"
	"github.com/praetorian-inc/autogroup/pkg/normalize"
	"github.com/praetorian-inc/autogroup/pkg/pattern"
	"github.com/praetorian-inc/autogroup/pkg/resolver"
	"github.com/praetorian-inc/autogroup/pkg/store"
	"github.com/praetorian-inc/autogroup/pkg/types"
)

// Re-export commonly used types for convenience.
type (
	// GroupConfiguration is one named, colored group and its URL matchers.
	GroupConfiguration = types.GroupConfiguration

	// Matcher is a single URL pattern or regex literal.
	Matcher = types.Matcher

	// SaveOptions are the per-group options.
	SaveOptions = types.SaveOptions

	// Color is a tab group color.
	Color = types.Color

	// Candidate is a group and matcher that claimed a URL.
	Candidate = types.Candidate
)

// GroupsKey is the store key group configurations are persisted under.
const GroupsKey = "groups"

type engineConfig struct {
	area     store.Area
	key      string
	logger   pslog.Logger
	compiler *pattern.Compiler
}

// Option configures an Engine.
type Option func(*engineConfig)

// WithArea selects the storage area. Default is store.AreaSync.
func WithArea(area store.Area) Option {
	return func(c *engineConfig) {
		c.area = area
	}
}

// WithKey overrides the storage key. Default is GroupsKey.
func WithKey(key string) Option {
	return func(c *engineConfig) {
		c.key = key
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger pslog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithCompiler shares a pattern compiler cache with other components.
func WithCompiler(compiler *pattern.Compiler) Option {
	return func(c *engineConfig) {
		c.compiler = compiler
	}
}

// snapshot is one decoded configuration together with its compiled form.
type snapshot struct {
	groups   []GroupConfiguration
	report   *normalize.Report
	compiled []pattern.CompiledGroup
}

// Engine is the configuration repository and resolver.
type Engine struct {
	registry *store.Registry
	handle   *store.Handle[*snapshot]
	resolver *resolver.Resolver
	log      pslog.Logger
}

// Load opens the configuration stored in s and follows its changes. s is
// not closed by the engine.
func Load(ctx context.Context, s store.Store, opts ...Option) (*Engine, error) {
	cfg := &engineConfig{area: store.AreaSync, key: GroupsKey}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = pslog.Ctx(ctx)
	}

	r, err := resolver.New(cfg.compiler)
	if err != nil {
		return nil, fmt.Errorf("creating resolver: %w", err)
	}

	e := &Engine{
		registry: store.NewRegistry(s, cfg.logger),
		resolver: r,
		log:      cfg.logger.With("area", cfg.area, "key", cfg.key),
	}
	e.handle, err = store.Open(ctx, e.registry, cfg.area, cfg.key, e.decode)
	if err != nil {
		e.registry.Close()
		return nil, fmt.Errorf("loading group configurations: %w", err)
	}

	snap := e.handle.Value()
	e.log.Debug("configurations loaded", "groups", len(snap.groups), "format", snap.report.Format)
	return e, nil
}

func (e *Engine) decode(raw json.RawMessage, exists bool) (*snapshot, error) {
	if !exists {
		raw = nil
	}
	groups, report := normalize.DecodeWithReport(raw)
	if err := report.Err(); err != nil {
		e.log.Warn("configuration has problems", "err", err)
	}
	return &snapshot{
		groups:   groups,
		report:   report,
		compiled: e.resolver.Compile(groups),
	}, nil
}

// Groups returns a copy of the current configurations.
func (e *Engine) Groups() []GroupConfiguration {
	return types.CloneGroups(e.handle.Value().groups)
}

// Report describes how the current configuration was decoded.
func (e *Engine) Report() *normalize.Report {
	return e.handle.Value().report
}

// Compiled returns the current configurations in compiled form. The
// result is shared and must not be modified.
func (e *Engine) Compiled() []pattern.CompiledGroup {
	return e.handle.Value().compiled
}

// Resolve returns a copy of the group url belongs to, or nil.
func (e *Engine) Resolve(url string) *GroupConfiguration {
	g := resolver.ResolveCompiled(url, e.Compiled())
	if g == nil {
		return nil
	}
	out := g.Clone()
	return &out
}

// Candidates lists every group and matcher that claims url.
func (e *Engine) Candidates(url string) []Candidate {
	return resolver.Candidates(url, e.Compiled())
}

// Save validates groups, strips stale conflict markers and writes the
// compressed configuration to the store.
func (e *Engine) Save(ctx context.Context, groups []GroupConfiguration) error {
	prepared := normalize.PrepareForSave(groups)
	if err := group.Validate(prepared).Err(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	encoded, err := normalize.Encode(prepared)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	if err := e.handle.Set(ctx, raw); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	e.log.Info("configurations saved", "groups", len(prepared), "bytes", len(raw))
	return nil
}

// Watch delivers the configurations each time the stored value changes.
// Call cancel to stop; the channel is closed afterwards.
func (e *Engine) Watch() (<-chan []GroupConfiguration, func()) {
	snaps, unsubscribe := e.handle.Subscribe()
	out := make(chan []GroupConfiguration, 1)
	done := make(chan struct{})
	cancel := sync.OnceFunc(func() {
		close(done)
		unsubscribe()
	})

	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- types.CloneGroups(snap.groups):
			case <-done:
				return
			}
		}
	}()
	return out, cancel
}

// Close stops following the store.
func (e *Engine) Close() error {
	e.registry.Close()
	return nil
}

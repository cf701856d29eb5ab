// Package registry provides a catalog of analysis models indexed by id and
// capability, with fallback chains for failure recovery. A Registry is an
// explicitly constructed value; independent registries share no state.
package registry

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-analysis/pkg/analysis/model"
)

type registration struct {
	model       model.Analyzer
	priority    int
	fallbackFor string
	enabled     bool
}

// Registry maps model ids to registrations and maintains the fallback
// chain of every primary. All operations are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registration
	order   []string
	// chains holds fallback ids per primary id, in registration insertion
	// order. Entries are filtered at lookup time, never at registration
	// time, so a chain survives its members being disabled or removed
	// and its primary being registered late.
	chains map[string][]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*registration),
		chains:  make(map[string][]string),
	}
}

// Option configures a registration.
type Option func(*registration)

// WithPriority sets the priority used for capability-based ranking. It has
// no influence on fallback ordering. Default is 1.
func WithPriority(priority int) Option {
	return func(r *registration) {
		r.priority = priority
	}
}

// FallbackFor marks the model as a fallback for the given primary id. The
// primary does not need to be registered yet.
func FallbackFor(primaryID string) Option {
	return func(r *registration) {
		r.fallbackFor = primaryID
	}
}

// Disabled registers the model in a disabled state.
func Disabled() Option {
	return func(r *registration) {
		r.enabled = false
	}
}

// Register inserts or replaces the registration for id. Re-registering
// replaces in place: the id keeps its original registration order, never
// appears twice in a chain, and moves between chains when its FallbackFor
// target changes. Last write wins.
func (r *Registry) Register(id string, m model.Analyzer, opts ...Option) {
	reg := &registration{
		model:    m,
		priority: 1,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, exists := r.entries[id]
	if exists && prev.fallbackFor != reg.fallbackFor {
		r.removeFromChain(prev.fallbackFor, id)
	}
	if !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = reg

	if reg.fallbackFor != "" && !r.chainContains(reg.fallbackFor, id) {
		r.chains[reg.fallbackFor] = append(r.chains[reg.fallbackFor], id)
	}
}

// Unregister removes the registration for id and purges id from every
// fallback chain it participates in. Removing an absent id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)

	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	for primary := range r.chains {
		r.removeFromChain(primary, id)
	}
}

// Get returns the model registered under id. Absent and disabled
// registrations are indistinguishable: both return (nil, false).
func (r *Registry) Get(id string) (model.Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[id]
	if !ok || !reg.enabled {
		return nil, false
	}

	return reg.model, true
}

// Enable marks the registration for id as enabled.
func (r *Registry) Enable(id string) {
	r.setEnabled(id, true)
}

// Disable marks the registration for id as disabled. The id stays in any
// fallback chain it belongs to and is skipped at lookup time.
func (r *Registry) Disable(id string) {
	r.setEnabled(id, false)
}

func (r *Registry) setEnabled(id string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg, ok := r.entries[id]; ok {
		reg.enabled = enabled
	}
}

// Filter selects registrations by capability. A zero field matches
// anything.
type Filter struct {
	MediaType model.MediaType
	Role      model.Role
}

// Registration is the read-only view of a registry entry.
type Registration struct {
	ID          string
	Model       model.Analyzer
	Priority    int
	FallbackFor string
	Enabled     bool
}

// ByCapability returns all enabled registrations whose descriptor matches
// the filter, sorted by descending priority. Ties preserve registration
// order.
func (r *Registry) ByCapability(filter Filter) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []Registration
	for _, id := range r.order {
		reg := r.entries[id]
		if !reg.enabled {
			continue
		}
		caps := reg.model.Capabilities()
		if filter.MediaType != "" && caps.MediaType != filter.MediaType {
			continue
		}
		if filter.Role != "" && caps.Role != filter.Role {
			continue
		}
		matches = append(matches, Registration{
			ID:          id,
			Model:       reg.model,
			Priority:    reg.priority,
			FallbackFor: reg.fallbackFor,
			Enabled:     reg.enabled,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Priority > matches[j].Priority
	})

	return matches
}

// Fallbacks returns the live, enabled models of id's fallback chain in
// chain order, skipping entries that are missing or disabled. A primary
// with no registration has no fallbacks.
func (r *Registry) Fallbacks(id string) []model.Analyzer {
	regs := r.FallbackRegistrations(id)
	if len(regs) == 0 {
		return nil
	}

	fallbacks := make([]model.Analyzer, len(regs))
	for i, reg := range regs {
		fallbacks[i] = reg.Model
	}

	return fallbacks
}

// FallbackRegistrations is the identified variant of Fallbacks, used by
// the pipeline engine to attribute attempts to model ids.
func (r *Registry) FallbackRegistrations(id string) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.entries[id]; !ok {
		return nil
	}

	var fallbacks []Registration
	for _, fid := range r.chains[id] {
		reg, ok := r.entries[fid]
		if !ok || !reg.enabled {
			continue
		}
		fallbacks = append(fallbacks, Registration{
			ID:          fid,
			Model:       reg.model,
			Priority:    reg.priority,
			FallbackFor: reg.fallbackFor,
			Enabled:     reg.enabled,
		})
	}

	return fallbacks
}

// Health is the outcome of one model's health check.
type Health struct {
	Healthy bool
	Enabled bool
	Err     string
}

// HealthCheck checks every registered model independently and
// concurrently. A model whose check returns an error is recorded as
// unhealthy with the error message instead of aborting the aggregate.
func (r *Registry) HealthCheck(ctx context.Context) map[string]Health {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	regs := make(map[string]*registration, len(r.entries))
	for id, reg := range r.entries {
		regs[id] = reg
	}
	r.mu.RUnlock()

	var (
		resMu   sync.Mutex
		results = make(map[string]Health, len(ids))
	)

	grp, gCtx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		reg := regs[id]
		grp.Go(func() error {
			healthy, err := reg.model.HealthCheck(gCtx)

			health := Health{
				Healthy: healthy && err == nil,
				Enabled: reg.enabled,
			}
			if err != nil {
				health.Err = err.Error()
			}

			resMu.Lock()
			results[id] = health
			resMu.Unlock()

			return nil
		})
	}
	// Goroutines never return an error; Wait only synchronises.
	_ = grp.Wait()

	return results
}

// List returns all registered ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)

	return ids
}

// Count returns the number of registrations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func (r *Registry) chainContains(primary, id string) bool {
	for _, other := range r.chains[primary] {
		if other == id {
			return true
		}
	}

	return false
}

func (r *Registry) removeFromChain(primary, id string) {
	chain := r.chains[primary]
	for i, other := range chain {
		if other == id {
			r.chains[primary] = append(chain[:i], chain[i+1:]...)

			return
		}
	}
}

// Package dependency tracks which resources read which GraphQL types and fields,
// so that a mutation touching a type or field can invalidate exactly those resources.
package dependency

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Yamashou/gqlfetcher/fetcher"
)

// Mode selects which dependency class a query consults.
type Mode int

const (
	All Mode = iota
	Direct
	Indirect
)

func (m Mode) String() string {
	switch m {
	case Direct:
		return "DIRECT"
	case Indirect:
		return "INDIRECT"
	default:
		return "ALL"
	}
}

// ParseMode parses "ALL", "DIRECT" or "INDIRECT".
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "", "ALL":
		return All, nil
	case "DIRECT":
		return Direct, nil
	case "INDIRECT":
		return Indirect, nil
	}

	return All, fmt.Errorf("unknown dependency mode %q", s)
}

// resources is typeName -> fieldName -> set of resource ids.
type resources map[string]map[string]map[string]struct{}

func (r resources) add(typeName, fieldName, resourceID string) {
	fields, ok := r[typeName]
	if !ok {
		fields = make(map[string]map[string]struct{})
		r[typeName] = fields
	}
	ids, ok := fields[fieldName]
	if !ok {
		ids = make(map[string]struct{})
		fields[fieldName] = ids
	}
	ids[resourceID] = struct{}{}
}

func (r resources) remove(resourceID string) int {
	removed := 0
	for typeName, fields := range r {
		for fieldName, ids := range fields {
			if _, ok := ids[resourceID]; !ok {
				continue
			}
			delete(ids, resourceID)
			removed++
			if len(ids) == 0 {
				delete(fields, fieldName)
			}
		}
		if len(fields) == 0 {
			delete(r, typeName)
		}
	}

	return removed
}

func (r resources) collectType(typeName string, out map[string]struct{}) {
	for _, ids := range r[typeName] {
		for id := range ids {
			out[id] = struct{}{}
		}
	}
}

func (r resources) collectField(typeName, fieldName string, out map[string]struct{}) {
	for id := range r[typeName][fieldName] {
		out[id] = struct{}{}
	}
}

// Manager is safe for concurrent use. Register, Unregister and Subscribe take the
// write lock; queries hold the read lock for their whole traversal.
type Manager struct {
	mu          sync.RWMutex
	directMap   resources
	// indirectMap holds fields selected below a non-spread nested field.
	indirectMap resources
	logger      *slog.Logger
}

type Option func(*Manager)

// WithLogger sets the logger used for registration events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func NewManager(options ...Option) *Manager {
	m := &Manager{
		directMap:   make(resources),
		indirectMap: make(resources),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, option := range options {
		option(m)
	}

	return m
}

// Register records every (declaring type, field) pair read by fetchers on behalf
// of resourceID. A resource's dependencies are owned as a whole, so registering an
// id again adds to its set; call Unregister first to replace it.
func (m *Manager) Register(resourceID string, fetchers ...*fetcher.Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range fetchers {
		if f != nil {
			m.register(resourceID, f, true)
		}
	}
	m.logger.Debug("registered resource", slog.String("resource", resourceID), slog.Int("fetchers", len(fetchers)))
}

func (m *Manager) register(resourceID string, f *fetcher.Fetcher, direct bool) {
	target := m.directMap
	if !direct {
		target = m.indirectMap
	}
	for _, field := range f.Fields() {
		if isDependencyField(field.Name) && f.Type() != nil {
			for _, typeName := range f.Type().DeclaringTypeNames(field.Name) {
				target.add(typeName, field.Name, resourceID)
			}
		}
		if field.Child != nil {
			m.register(resourceID, field.Child, direct && strings.HasPrefix(field.Name, fetcher.SpreadPrefix))
		}
	}
}

// Unregister drops resourceID from every type and field.
func (m *Manager) Unregister(resourceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := m.directMap.remove(resourceID) + m.indirectMap.remove(resourceID)
	m.logger.Debug("unregistered resource", slog.String("resource", resourceID), slog.Int("entries", removed))
}

// Subscribe registers fetchers under a generated resource id. The returned cancel
// function unregisters it and may be called more than once.
func (m *Manager) Subscribe(fetchers ...*fetcher.Fetcher) (string, func()) {
	resourceID := uuid.NewString()
	m.Register(resourceID, fetchers...)

	var once sync.Once

	return resourceID, func() {
		once.Do(func() {
			m.Unregister(resourceID)
		})
	}
}

// ResourcesDependOnTypes returns the resources depending on any field of f's type
// or its super types. Indirect lookups also descend into every nested fetcher.
func (m *Manager) ResourcesDependOnTypes(f *fetcher.Fetcher, mode Mode) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{})
	if mode != Indirect {
		m.collectTypes(m.directMap, f, false, out)
	}
	if mode != Direct {
		m.collectTypes(m.indirectMap, f, true, out)
	}

	return sortedKeys(out)
}

func (m *Manager) collectTypes(r resources, f *fetcher.Fetcher, recursive bool, out map[string]struct{}) {
	if f.Type() != nil {
		for _, t := range f.Type().Closure() {
			r.collectType(t.Name(), out)
		}
	}
	if !recursive {
		return
	}
	for _, field := range f.Fields() {
		if field.Child != nil {
			m.collectTypes(r, field.Child, true, out)
		}
	}
}

// ResourcesDependOnFields returns the resources depending on the fields selected
// by f, matched at their declaring types. Indirect lookups also descend into every
// nested fetcher.
func (m *Manager) ResourcesDependOnFields(f *fetcher.Fetcher, mode Mode) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]struct{})
	if mode != Indirect {
		m.collectFields(m.directMap, f, false, out)
	}
	if mode != Direct {
		m.collectFields(m.indirectMap, f, true, out)
	}

	return sortedKeys(out)
}

func (m *Manager) collectFields(r resources, f *fetcher.Fetcher, recursive bool, out map[string]struct{}) {
	for _, field := range f.Fields() {
		if isDependencyField(field.Name) && f.Type() != nil {
			for _, typeName := range f.Type().DeclaringTypeNames(field.Name) {
				r.collectField(typeName, field.Name, out)
			}
		}
		if recursive && field.Child != nil {
			m.collectFields(r, field.Child, true, out)
		}
	}
}

func isDependencyField(name string) bool {
	return name != "" && !strings.HasPrefix(name, fetcher.SpreadPrefix)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

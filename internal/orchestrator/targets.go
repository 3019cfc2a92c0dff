package orchestrator

import (
	"context"
	"fmt"
	"sort"

	"marquee/internal/config"
	"marquee/internal/request"
	"marquee/internal/services/radarr"
	"marquee/internal/services/sonarr"
)

// Target is one downstream acquisition service addressed by id and content
// class.
type Target interface {
	ID() string
	Class() request.ContentClass
	Submit(ctx context.Context, req *request.Request) (string, error)
	Remove(ctx context.Context, acquisitionID string) error
}

// Registry indexes acquisition targets by id and by content class. The zero
// value is ready to use.
type Registry struct {
	byClass map[request.ContentClass][]Target
	byID    map[string]Target
}

// NewRegistry builds the target registry from the configured radarr and
// sonarr servers. Disabled servers are skipped.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	reg := &Registry{}
	for _, server := range cfg.Radarr {
		if !server.Enabled {
			continue
		}
		if err := reg.Add(radarr.New(server)); err != nil {
			return nil, err
		}
	}
	for _, server := range cfg.Sonarr {
		if !server.Enabled {
			continue
		}
		if err := reg.Add(sonarr.New(server)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Add registers a target, rejecting duplicate ids.
func (r *Registry) Add(target Target) error {
	if r.byID == nil {
		r.byID = make(map[string]Target)
		r.byClass = make(map[request.ContentClass][]Target)
	}
	id := target.ID()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("duplicate acquisition target id %q", id)
	}
	r.byID[id] = target
	r.byClass[target.Class()] = append(r.byClass[target.Class()], target)
	return nil
}

// IDs returns every registered target id in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns the target with the given id.
func (r *Registry) Lookup(id string) (Target, bool) {
	target, ok := r.byID[id]
	return target, ok
}

// Resolve returns the targets a request of the given class dispatches to.
// Without a profile every target of the class is used; with a profile only
// the targets its enabled map switches on.
func (r *Registry) Resolve(class request.ContentClass, profile *request.Profile) []Target {
	all := r.byClass[class]
	if profile == nil {
		return all
	}
	enabled := profile.EnabledTargets[class]
	if len(enabled) == 0 {
		return nil
	}
	var selected []Target
	for _, target := range all {
		if enabled[target.ID()] {
			selected = append(selected, target)
		}
	}
	return selected
}

// ValidateProfile checks that every target id a profile enables refers to a
// configured target of the matching class.
func (r *Registry) ValidateProfile(profile *request.Profile) error {
	for class, ids := range profile.EnabledTargets {
		for id, enabled := range ids {
			if !enabled {
				continue
			}
			target, ok := r.byID[id]
			if !ok {
				return fmt.Errorf("profile %q enables unknown target %q", profile.ID, id)
			}
			if target.Class() != class {
				return fmt.Errorf("profile %q enables target %q for class %q, but it serves %q",
					profile.ID, id, class, target.Class())
			}
		}
	}
	return nil
}

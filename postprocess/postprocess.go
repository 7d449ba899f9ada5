// Package postprocess runs an ordered pipeline of scene transforms over a
// scene.Scene, re-validating §3.3 invariants after every pass. It is
// grounded on the same "fixed registration order, re-checked invariants"
// shape the teacher's scene.Validate already embodies, generalized into a
// runner that can be selected by a 32-bit bitmask the way the original
// library's aiPostProcessSteps flags work.
package postprocess

import (
	"fmt"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/assetforge/sceneforge/registry"
	"github.com/assetforge/sceneforge/scene"
)

// Flag is a single pipeline pass's bit position in the caller-supplied mask.
type Flag uint32

// Pass is one named, independently selectable scene transform. Passes run
// in Registry registration order regardless of their Flag's numeric value,
// and must leave the scene passing scene.Validate on success.
type Pass struct {
	Name    string
	Flag    Flag
	Run     func(*scene.Scene, *registry.Properties) error
	// DependsOn names passes that, if also selected, must run before this
	// one. A dependency on a pass that is never registered is ignored.
	DependsOn []string
}

// Registry is the ordered, fixed list of passes known to the runner. It is
// built once at program startup and is read-only thereafter, mirroring
// the importer/exporter Registry's own immutable-after-init contract.
type Registry struct {
	passes []Pass
	index  map[string]int
}

// NewRegistry builds a Registry from passes in registration order,
// validating that every DependsOn edge points earlier in that order; an
// ordering that violates a dependency is refused at startup per §4.8.
func NewRegistry(passes []Pass) (*Registry, error) {
	r := &Registry{passes: passes, index: make(map[string]int, len(passes))}
	for i, p := range passes {
		if _, dup := r.index[p.Name]; dup {
			return nil, fmt.Errorf("postprocess: duplicate pass name %q", p.Name)
		}
		r.index[p.Name] = i
	}
	for _, p := range passes {
		for _, dep := range p.DependsOn {
			depIdx, ok := r.index[dep]
			if !ok {
				continue
			}
			if depIdx >= r.index[p.Name] {
				return nil, fmt.Errorf("postprocess: pass %q depends on %q, which is registered after it", p.Name, dep)
			}
		}
	}
	return r, nil
}

// Run invokes every pass selected by mask, in registration order,
// re-validating the scene after each one. The first pass to fail (either
// by returning an error or by leaving the scene invalid) aborts the
// pipeline with asserr.PostProcessFailed.
func (r *Registry) Run(sc *scene.Scene, mask Flag, props *registry.Properties) error {
	for _, p := range r.passes {
		if mask&p.Flag == 0 {
			continue
		}
		if err := p.Run(sc, props); err != nil {
			return asserr.PostProcessFail(p.Name, "%v", err)
		}
		if err := sc.Validate(); err != nil {
			return asserr.PostProcessFail(p.Name, "scene invariant violated after pass: %v", err)
		}
	}
	return nil
}

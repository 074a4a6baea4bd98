package taskgen

import (
	"fmt"
	"sort"

	"github.com/fractalschool/recsys-backend/internal/types"
)

// Result is the structured output of a generator run. Content is what the
// student sees, Answers is the grading key, Payload echoes the effective
// generation parameters for replay, Meta is free-form diagnostics.
type Result struct {
	Content map[string]any `json:"content"`
	Answers any            `json:"answers,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// GeneratorFunc produces task content from a payload and a seed. It must be
// pure: the same (payload, seed) always yields an identical Result, which is
// what makes historical attempts replayable.
type GeneratorFunc func(task *types.Task, payload map[string]any, seed int64, student *types.User) (*Result, error)

type registryItem struct {
	slug  string
	fn    GeneratorFunc
	label string
}

// Registry maps generator slugs to their implementations. It is populated
// once at process start and read-only afterwards; registration is not safe
// for concurrent use.
type Registry struct {
	items map[string]registryItem
}

func NewRegistry() *Registry {
	return &Registry{items: map[string]registryItem{}}
}

// NewDefaultRegistry returns a registry with all built-in generators. It
// panics on a duplicate slug, which can only happen through a programming
// error in the built-in set.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister("math/addition", ArithmeticAddition, "Arithmetic: addition")
	r.mustRegister("words/sequence", WordSequence, "Complete the sequence")
	r.mustRegister("informatics/path-counter", PathCounter, "Informatics: program counting")
	return r
}

// Register adds a generator under slug. Registering the same slug twice is a
// configuration error and fails loudly.
func (r *Registry) Register(slug string, fn GeneratorFunc, label string) error {
	if _, exists := r.items[slug]; exists {
		return fmt.Errorf("generator %q is already registered", slug)
	}
	if label == "" {
		label = slug
	}
	r.items[slug] = registryItem{slug: slug, fn: fn, label: label}
	return nil
}

func (r *Registry) mustRegister(slug string, fn GeneratorFunc, label string) {
	if err := r.Register(slug, fn, label); err != nil {
		panic(err)
	}
}

// Registered reports whether slug has a generator.
func (r *Registry) Registered(slug string) bool {
	_, ok := r.items[slug]
	return ok
}

// Choices lists (slug, label) pairs sorted by label, for admin/seeding UIs.
func (r *Registry) Choices() [][2]string {
	out := make([][2]string, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, [2]string{item.slug, item.label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][1] < out[j][1] })
	return out
}

// Generate runs the generator configured on task and normalises its result.
// An unregistered slug or a generator failure is a configuration error, not
// a validation error: the caller must abort, never fall back to stale content.
func (r *Registry) Generate(task *types.Task, payload map[string]any, seed int64, student *types.User) (*Result, error) {
	item, ok := r.items[task.GeneratorSlug]
	if !ok {
		return nil, fmt.Errorf("generator %q is not registered", task.GeneratorSlug)
	}
	res, err := item.fn(task, payload, seed, student)
	if err != nil {
		return nil, fmt.Errorf("generator %q: %w", item.slug, err)
	}
	if res == nil {
		return nil, fmt.Errorf("generator %q returned no result", item.slug)
	}
	if res.Content == nil {
		res.Content = map[string]any{}
	}
	return res, nil
}

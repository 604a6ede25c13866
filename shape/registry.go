package shape

import (
	"sync"
	"time"
)

// ReturnSchema is the evolving return-value schema of one tool, accumulated
// from observed results.
type ReturnSchema struct {
	// Tool is the registry name of the tool this schema describes.
	Tool string

	// Success is the merged shape of results observed with success=true.
	Success Shape

	// Error is the merged shape of results observed with success=false.
	Error Shape

	// SampleCount is the total number of observations merged in.
	SampleCount int

	// Sources lists the distinct origins of observations (e.g. "execution",
	// "declared"), in first-seen order.
	Sources []string

	// LastUpdated is the time of the most recent observation.
	LastUpdated time.Time
}

// Clone returns a caller-owned copy. Shape trees are immutable and shared.
func (s *ReturnSchema) Clone() *ReturnSchema {
	if s == nil {
		return nil
	}
	out := *s
	out.Sources = append([]string(nil), s.Sources...)
	return &out
}

// Merge folds one observed shape into an existing schema, or creates the
// schema when existing is nil. The observed shape merges only into the
// success or error side selected by the flag; the other side is untouched.
func Merge(existing *ReturnSchema, tool string, observed Shape, success bool, source string) *ReturnSchema {
	if existing == nil {
		schema := &ReturnSchema{
			Tool:        tool,
			Success:     Unknown{},
			Error:       Unknown{},
			SampleCount: 1,
			LastUpdated: time.Now(),
		}
		if success {
			schema.Success = observed
		} else {
			schema.Error = observed
		}
		if source != "" {
			schema.Sources = []string{source}
		}
		return schema
	}

	merged := existing.Clone()
	merged.SampleCount++
	merged.LastUpdated = time.Now()
	if success {
		merged.Success = MergeShapes(merged.Success, observed)
	} else {
		merged.Error = MergeShapes(merged.Error, observed)
	}
	if source != "" && !containsString(merged.Sources, source) {
		merged.Sources = append(merged.Sources, source)
	}
	return merged
}

// Registry accumulates return schemas per tool name.
//
// Contract:
// - Concurrency: safe for concurrent use; merges for the same tool are
//   serialized per key, so sample counts are exact.
// - Ownership: returned schemas are caller-owned snapshots.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*ReturnSchema
	locks   map[string]*sync.Mutex
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[string]*ReturnSchema),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Observe extracts the shape of value and merges it into the tool's schema,
// creating the schema on first observation. It returns a snapshot of the
// merged schema.
func (r *Registry) Observe(tool string, value any, success bool, source string) *ReturnSchema {
	observed := Extract(value)

	lock := r.lockFor(tool)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	existing := r.schemas[tool]
	r.mu.RUnlock()

	merged := Merge(existing, tool, observed, success, source)

	r.mu.Lock()
	r.schemas[tool] = merged
	r.mu.Unlock()

	return merged.Clone()
}

// Get returns a snapshot of the tool's schema, if any observation exists.
func (r *Registry) Get(tool string) (*ReturnSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[tool]
	if !ok {
		return nil, false
	}
	return schema.Clone(), true
}

// Tools returns the names of all tools with at least one observation.
func (r *Registry) Tools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		out = append(out, name)
	}
	return out
}

func (r *Registry) lockFor(tool string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[tool]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[tool] = lock
	}
	return lock
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package metrics

// ScopeRecorder feeds the repository's scope-violation events into
// ScopeViolationTotal. Wire it with repository.WithRecorder.
type ScopeRecorder struct{}

// NewScopeRecorder returns a recorder backed by the shared counter.
func NewScopeRecorder() ScopeRecorder { return ScopeRecorder{} }

// ScopeViolation increments the counter for the given entity and kind.
func (ScopeRecorder) ScopeViolation(entity, kind string) {
	ScopeViolationTotal.WithLabelValues(entity, kind).Inc()
}

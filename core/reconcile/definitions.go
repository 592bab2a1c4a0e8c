package reconcile

// definitionMatcher runs the three definition passes for one scan. Memory and
// external consumption are tracked separately.
type definitionMatcher struct {
	memory   []Definition
	baseline []Definition
	external []Definition

	usedExternal claims
	usedMemory   claims
}

func reconcileDefinitions(memory, baseline, external []Definition) ([]Change, error) {
	if len(baseline) == 0 && len(external) == 0 {
		return nil, nil
	}

	m := &definitionMatcher{
		memory:       memory,
		baseline:     baseline,
		external:     external,
		usedExternal: make(claims, len(external)),
		usedMemory:   make(claims, len(memory)),
	}

	changes, deferred, err := m.matchByName()
	if err != nil {
		return nil, err
	}

	renamed, deferred, err := m.matchByContent(deferred)
	if err != nil {
		return nil, err
	}
	changes = append(changes, renamed...)

	return append(changes, m.leftovers(deferred)...), nil
}

// matchByName pairs definitions with equal names and reports content changes.
// Baseline definitions without a name match are returned in baseline order.
func (m *definitionMatcher) matchByName() ([]Change, []int, error) {
	var (
		changes  []Change
		deferred []int
	)

	for b, def := range m.baseline {
		matched := false
		for e, ext := range m.external {
			if m.usedExternal[e] || ext.Name != def.Name {
				continue
			}
			if err := m.usedExternal.claim(e); err != nil {
				return nil, nil, err
			}
			if ext.Content != def.Content {
				changes = append(changes, DefinitionContentChanged{
					Baseline:      def,
					BaselineIndex: b,
					External:      ext,
					ExternalIndex: e,
					Memory:        m.findMemory(func(d Definition) bool { return d.Name == def.Name }),
				})
			}
			matched = true
			break
		}
		if !matched {
			deferred = append(deferred, b)
		}
	}
	return changes, deferred, nil
}

// matchByContent detects renames among the deferred baseline definitions and
// returns those still unmatched.
func (m *definitionMatcher) matchByContent(deferred []int) ([]Change, []int, error) {
	var (
		changes   []Change
		remaining []int
	)

	for _, b := range deferred {
		def := m.baseline[b]
		matched := false
		for e, ext := range m.external {
			if m.usedExternal[e] || ext.Content != def.Content {
				continue
			}
			if err := m.usedExternal.claim(e); err != nil {
				return nil, nil, err
			}
			changes = append(changes, DefinitionRenamed{
				Baseline:      def,
				BaselineIndex: b,
				External:      ext,
				ExternalIndex: e,
				Memory:        m.findMemory(func(d Definition) bool { return d.Content == ext.Content }),
			})
			matched = true
			break
		}
		if !matched {
			remaining = append(remaining, b)
		}
	}
	return changes, remaining, nil
}

// leftovers reports removals that still matter in memory, then additions.
func (m *definitionMatcher) leftovers(deferred []int) []Change {
	var changes []Change

	for _, b := range deferred {
		def := m.baseline[b]
		ref := m.findMemory(func(d Definition) bool { return d.Name == def.Name })
		if ref == nil {
			continue
		}
		changes = append(changes, DefinitionRemoved{
			Baseline:      def,
			BaselineIndex: b,
			Memory:        ref,
		})
	}

	for e, ext := range m.external {
		if m.usedExternal[e] {
			continue
		}
		m.usedExternal[e] = true
		changes = append(changes, DefinitionAdded{External: ext, ExternalIndex: e})
	}
	return changes
}

// findMemory consumes and returns the first unused memory definition matching pred.
func (m *definitionMatcher) findMemory(pred func(Definition) bool) *DefinitionRef {
	for i, def := range m.memory {
		if m.usedMemory[i] || !pred(def) {
			continue
		}
		m.usedMemory[i] = true
		return &DefinitionRef{Index: i, Definition: def}
	}
	return nil
}

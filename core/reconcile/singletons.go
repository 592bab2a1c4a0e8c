package reconcile

// reconcileMetadata compares the metadata blocks. With an empty baseline any
// external content is a change; otherwise memory is compared directly against
// external and the baseline is not consulted.
func reconcileMetadata(memory, baseline, external Metadata) []Change {
	var changed bool
	if baseline.IsEmpty() {
		changed = !external.IsEmpty()
	} else {
		changed = !memory.Equal(external)
	}
	if !changed {
		return nil
	}
	return []Change{MetadataChange{
		Memory:   memory.Clone(),
		Baseline: baseline.Clone(),
		External: external.Clone(),
	}}
}

// reconcilePreamble reports a preamble that differs between baseline and external.
func reconcilePreamble(memory, baseline, external *string) []Change {
	var changed bool
	if baseline != nil {
		changed = external == nil || *baseline != *external
	} else {
		changed = external != nil
	}
	if !changed {
		return nil
	}
	return []Change{PreambleChange{
		Memory:   clonePreamble(memory),
		Baseline: clonePreamble(baseline),
		External: clonePreamble(external),
	}}
}

// reconcileGroups reports a grouping tree that differs between baseline and
// external. Trees are compared as a whole.
func reconcileGroups(baseline, external *GroupNode) []Change {
	if baseline == nil && external == nil {
		return nil
	}
	if baseline != nil && external != nil && baseline.Equal(external) {
		return nil
	}
	return []Change{GroupingChanged{
		Baseline: baseline.Clone(),
		External: external.Clone(),
	}}
}

func clonePreamble(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

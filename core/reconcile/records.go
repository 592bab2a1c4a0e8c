package reconcile

// recordView is a sorted, read-only view over a record slice. Positions in the
// view map back to original indices through order.
type recordView struct {
	records []Record
	order   []int
}

func newRecordView(records []Record) recordView {
	return recordView{records: records, order: SortOrder(records)}
}

func (v recordView) len() int { return len(v.order) }

func (v recordView) at(pos int) Record { return v.records[v.order[pos]] }

// claims tracks which positions of a list have been consumed.
type claims []bool

func (c claims) claim(pos int) error {
	if c[pos] {
		return invariantf("position %d consumed twice", pos)
	}
	c[pos] = true
	return nil
}

// recordMatcher runs the three record passes for one scan.
type recordMatcher struct {
	scorer    scorer
	threshold float64

	memory   recordView
	baseline recordView
	external recordView

	used   claims
	cursor int
}

func reconcileRecords(sc scorer, threshold float64, memory, baseline, external []Record) ([]Change, error) {
	m := &recordMatcher{
		scorer:    sc,
		threshold: threshold,
		memory:    newRecordView(memory),
		baseline:  newRecordView(baseline),
		external:  newRecordView(external),
	}
	m.used = make(claims, m.external.len())

	deferred, err := m.exactPass()
	if err != nil {
		return nil, err
	}

	changes, err := m.fuzzyPass(deferred)
	if err != nil {
		return nil, err
	}

	added, err := m.additionPass()
	if err != nil {
		return nil, err
	}
	return append(changes, added...), nil
}

// exactPass consumes exact matches and returns the baseline positions left
// unmatched, in baseline order. The cursor only advances when the record under
// it matches.
func (m *recordMatcher) exactPass() ([]int, error) {
	var deferred []int

	for b := 0; b < m.baseline.len(); b++ {
		rec := m.baseline.at(b)

		if m.cursor < m.external.len() && !m.used[m.cursor] {
			score, err := m.scorer.score(rec, m.external.at(m.cursor))
			if err != nil {
				return nil, err
			}
			if isExact(score) {
				if err := m.used.claim(m.cursor); err != nil {
					return nil, err
				}
				m.cursor++
				continue
			}
		}

		found := false
		for i := m.cursor + 1; i < m.external.len(); i++ {
			if m.used[i] {
				continue
			}
			score, err := m.scorer.score(rec, m.external.at(i))
			if err != nil {
				return nil, err
			}
			if isExact(score) {
				if err := m.used.claim(i); err != nil {
					return nil, err
				}
				found = true
				break
			}
		}
		if !found {
			deferred = append(deferred, b)
		}
	}
	return deferred, nil
}

// fuzzyPass resolves every deferred baseline record to a modification or a removal.
func (m *recordMatcher) fuzzyPass(deferred []int) ([]Change, error) {
	var changes []Change

	for _, b := range deferred {
		rec := m.baseline.at(b)

		best := -1
		bestScore := 0.0
		for i := m.cursor; i < m.external.len(); i++ {
			if m.used[i] {
				continue
			}
			score, err := m.scorer.score(rec, m.external.at(i))
			if err != nil {
				return nil, err
			}
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		memRef, err := m.bestMemoryFit(rec)
		if err != nil {
			return nil, err
		}

		if best >= 0 && bestScore > m.threshold {
			if err := m.used.claim(best); err != nil {
				return nil, err
			}
			changes = append(changes, RecordModified{
				Baseline:      rec.Clone(),
				BaselineIndex: m.baseline.order[b],
				External:      m.external.at(best).Clone(),
				ExternalIndex: m.external.order[best],
				Score:         bestScore,
				Memory:        memRef,
			})
			continue
		}

		changes = append(changes, RecordRemoved{
			Baseline:      rec.Clone(),
			BaselineIndex: m.baseline.order[b],
			Memory:        memRef,
		})
	}
	return changes, nil
}

// additionPass reports every unconsumed external record, unless memory already
// holds an identical one.
func (m *recordMatcher) additionPass() ([]Change, error) {
	var changes []Change

	for i := 0; i < m.external.len(); i++ {
		if m.used[i] {
			continue
		}
		rec := m.external.at(i)

		present := false
		for j := 0; j < m.memory.len(); j++ {
			score, err := m.scorer.score(m.memory.at(j), rec)
			if err != nil {
				return nil, err
			}
			if score >= ExactMatchSentinel {
				present = true
				break
			}
		}
		if present {
			continue
		}

		changes = append(changes, RecordAdded{
			External:      rec.Clone(),
			ExternalIndex: m.external.order[i],
		})
	}
	return changes, nil
}

// bestMemoryFit returns the memory record most similar to rec. The first
// maximum wins and the search stops at the first exact match. It returns nil
// only when memory is empty.
func (m *recordMatcher) bestMemoryFit(rec Record) (*RecordRef, error) {
	if m.memory.len() == 0 {
		return nil, nil
	}

	found := 0
	best := -1.0
	for j := 0; j < m.memory.len(); j++ {
		score, err := m.scorer.score(rec, m.memory.at(j))
		if err != nil {
			return nil, err
		}
		if score > best {
			best = score
			found = j
		}
		if isExact(best) {
			break
		}
	}
	return &RecordRef{Index: m.memory.order[found], Record: m.memory.at(found).Clone()}, nil
}

// # internal/pyobj/mro.go
package pyobj

import "fmt"

// LinearizeMRO computes the C3 method resolution order for a class: the
// class itself, then a merge of its bases' linearizations and the base
// list. Returns an error for inconsistent hierarchies.
func LinearizeMRO(c *Object) ([]*Object, error) {
	if c.Kind != KindClass {
		return nil, fmt.Errorf("mro of non-class %q", c.Name)
	}

	seqs := make([][]*Object, 0, len(c.Bases)+1)
	for _, b := range c.Bases {
		if b.MRO != nil {
			bm := make([]*Object, len(b.MRO))
			copy(bm, b.MRO)
			seqs = append(seqs, bm)
			continue
		}
		bm, err := LinearizeMRO(b)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, bm)
	}
	if len(c.Bases) > 0 {
		bases := make([]*Object, len(c.Bases))
		copy(bases, c.Bases)
		seqs = append(seqs, bases)
	}

	merged, err := c3Merge(seqs)
	if err != nil {
		return nil, fmt.Errorf("inconsistent hierarchy for class %q: %w", c.Name, err)
	}
	return append([]*Object{c}, merged...), nil
}

func c3Merge(seqs [][]*Object) ([]*Object, error) {
	var out []*Object
	for {
		seqs = dropEmpty(seqs)
		if len(seqs) == 0 {
			return out, nil
		}

		var head *Object
		for _, seq := range seqs {
			cand := seq[0]
			if inTail(cand, seqs) {
				continue
			}
			head = cand
			break
		}
		if head == nil {
			return nil, fmt.Errorf("no valid linearization head")
		}

		out = append(out, head)
		for i, seq := range seqs {
			if len(seq) > 0 && seq[0].ID == head.ID {
				seqs[i] = seq[1:]
			}
		}
	}
}

func inTail(o *Object, seqs [][]*Object) bool {
	for _, seq := range seqs {
		for _, t := range seq[1:] {
			if t.ID == o.ID {
				return true
			}
		}
	}
	return false
}

func dropEmpty(seqs [][]*Object) [][]*Object {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

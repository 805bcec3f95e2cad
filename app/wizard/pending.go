package wizard

// Pending is the set of answers a step still needs. Answers may arrive in
// any order.
type Pending struct {
	order   []string
	missing map[string]bool
}

func NewPending(fields ...string) *Pending {
	p := &Pending{missing: make(map[string]bool)}
	for _, f := range fields {
		p.Require(f)
	}
	return p
}

// Require adds field to the set.
func (p *Pending) Require(field string) {
	if _, known := p.missing[field]; !known {
		p.order = append(p.order, field)
	}
	p.missing[field] = true
}

// Satisfy marks field answered and reports whether it was still missing.
func (p *Pending) Satisfy(field string) bool {
	if !p.missing[field] {
		return false
	}
	p.missing[field] = false
	return true
}

func (p *Pending) Done() bool { return len(p.Remaining()) == 0 }

// Remaining lists unanswered fields in the order they were required.
func (p *Pending) Remaining() []string {
	var out []string
	for _, f := range p.order {
		if p.missing[f] {
			out = append(out, f)
		}
	}
	return out
}

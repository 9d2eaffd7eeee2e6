package entity

import "time"

// Clone returns a deep copy of the order and everything it owns.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Tasks = make([]*Task, len(o.Tasks))
	for i, t := range o.Tasks {
		cp.Tasks[i] = t.Clone()
	}
	return &cp
}

// Clone returns a deep copy of the task, its details and packages.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Helpers = append([]string(nil), t.Helpers...)
	cp.PlannedDate = cloneTime(t.PlannedDate)
	cp.StartedAt = cloneTime(t.StartedAt)
	cp.CompletedAt = cloneTime(t.CompletedAt)
	cp.Details = make([]*Detail, len(t.Details))
	for i, d := range t.Details {
		cp.Details[i] = d.Clone()
	}
	cp.Packages = make([]*Package, len(t.Packages))
	for i, p := range t.Packages {
		cp.Packages[i] = p.Clone()
	}
	return &cp
}

// Clone returns a copy of the detail.
func (d *Detail) Clone() *Detail {
	if d == nil {
		return nil
	}
	cp := *d
	cp.ScannedAt = cloneTime(d.ScannedAt)
	if d.ParentDetailID != nil {
		id := *d.ParentDetailID
		cp.ParentDetailID = &id
	}
	return &cp
}

// Clone returns a copy of the package.
func (p *Package) Clone() *Package {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Codes = append([]string{}, p.Codes...)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package memory

import (
	"context"
	"strings"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneDoctor(d), nil
}

// List returns one page of matching doctors in registration order, plus the
// total number of matches. A zero Limit returns every match.
func (r *doctorRepository) List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = &model.DoctorFilters{}
	}
	spec := strings.ToLower(strings.TrimSpace(filters.Specialization))
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*model.Doctor
	for _, id := range r.s.doctorOrder {
		d := r.s.doctors[id]
		if spec != "" && !strings.Contains(strings.ToLower(d.Specialization), spec) {
			continue
		}
		if search != "" && !matchesSearch(d, search) {
			continue
		}
		matched = append(matched, d)
	}

	total := len(matched)
	if filters.Limit > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filters.Limit
		if start >= total {
			matched = nil
		} else {
			end := start + filters.Limit
			if end > total {
				end = total
			}
			matched = matched[start:end]
		}
	}

	out := make([]*model.Doctor, 0, len(matched))
	for _, d := range matched {
		out = append(out, cloneDoctor(d))
	}
	return out, total, nil
}

func matchesSearch(d *model.Doctor, term string) bool {
	return strings.Contains(strings.ToLower(d.Name), term) ||
		strings.Contains(strings.ToLower(d.Specialization), term) ||
		strings.Contains(strings.ToLower(d.Bio), term)
}

func (r *doctorRepository) Update(ctx context.Context, id string, fn func(d *model.Doctor)) (*model.Doctor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := cloneDoctor(current)
	fn(next)
	next.ID = id
	r.s.doctors[id] = next
	return cloneDoctor(next), nil
}

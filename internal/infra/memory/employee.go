package memory

import (
	"context"
	"sort"

	"feedback_survey_bot/internal/domain/employee"
	idb "feedback_survey_bot/internal/infra/database"
)

type EmployeeRepository struct {
	s *Store
}

func (r *EmployeeRepository) Create(_ context.Context, e *employee.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.employees {
		if existing.TelegramID == e.TelegramID {
			return idb.ErrDuplicateTelegramID
		}
	}
	if _, ok := r.s.organizations[e.OrganizationID]; !ok {
		return idb.ErrOrganizationNotFound
	}
	e.ID = r.s.id()
	e.CreatedAt = r.s.now()
	c := *e
	r.s.employees[e.ID] = &c
	return nil
}

func (r *EmployeeRepository) GetByID(_ context.Context, id int64) (*employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.employees[id]
	if !ok {
		return nil, idb.ErrEmployeeNotFound
	}
	c := *e
	return &c, nil
}

func (r *EmployeeRepository) GetByTelegramID(_ context.Context, telegramID int64) (*employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.employees {
		if e.TelegramID == telegramID {
			c := *e
			return &c, nil
		}
	}
	return nil, idb.ErrEmployeeNotFound
}

func (r *EmployeeRepository) ListByOrganization(_ context.Context, organizationID int64) ([]*employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*employee.Employee, 0)
	for _, e := range r.s.employees {
		if e.OrganizationID == organizationID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

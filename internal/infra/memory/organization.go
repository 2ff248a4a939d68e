package memory

import (
	"context"
	"sort"

	"feedback_survey_bot/internal/domain/organization"
	idb "feedback_survey_bot/internal/infra/database"
)

type OrganizationRepository struct {
	s *Store
}

func copyOrganization(o *organization.Organization) *organization.Organization {
	c := *o
	c.Emails = append([]string(nil), o.Emails...)
	return &c
}

func (r *OrganizationRepository) Create(_ context.Context, org *organization.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	org.ID = r.s.id()
	org.CreatedAt = now
	org.UpdatedAt = now
	r.s.organizations[org.ID] = copyOrganization(org)
	return nil
}

func (r *OrganizationRepository) Upsert(_ context.Context, org *organization.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	if org.ID == 0 {
		if first := r.firstLocked(); first != nil {
			org.ID = first.ID
		}
	}
	if org.ID == 0 {
		org.ID = r.s.id()
		org.CreatedAt = now
	} else {
		existing, ok := r.s.organizations[org.ID]
		if !ok {
			return idb.ErrOrganizationNotFound
		}
		org.CreatedAt = existing.CreatedAt
	}
	org.UpdatedAt = now
	r.s.organizations[org.ID] = copyOrganization(org)
	return nil
}

func (r *OrganizationRepository) firstLocked() *organization.Organization {
	var first *organization.Organization
	for _, o := range r.s.organizations {
		if first == nil || o.ID < first.ID {
			first = o
		}
	}
	return first
}

func (r *OrganizationRepository) GetByID(_ context.Context, id int64) (*organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.organizations[id]
	if !ok {
		return nil, idb.ErrOrganizationNotFound
	}
	return copyOrganization(o), nil
}

func (r *OrganizationRepository) GetFirst(_ context.Context) (*organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	first := r.firstLocked()
	if first == nil {
		return nil, idb.ErrOrganizationNotFound
	}
	return copyOrganization(first), nil
}

func (r *OrganizationRepository) ListAll(_ context.Context) ([]*organization.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*organization.Organization, 0, len(r.s.organizations))
	for _, o := range r.s.organizations {
		out = append(out, copyOrganization(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

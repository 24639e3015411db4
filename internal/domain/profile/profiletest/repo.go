// Package profiletest provides an in-memory profile repository for tests.
package profiletest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"securemate/backend/internal/domain/profile"
)

type Repo struct {
	mu      sync.Mutex
	rows    map[string]profile.Profile
	Creates int
	Updates []map[string]interface{}
	// GetErr, when set, fails Get with something other than not-found.
	GetErr error
}

func NewRepo(seed ...profile.Profile) *Repo {
	r := &Repo{rows: map[string]profile.Profile{}}
	for _, p := range seed {
		r.rows[p.ID] = p
	}
	return r
}

func (r *Repo) Get(_ context.Context, uid string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.GetErr != nil {
		return nil, r.GetErr
	}
	p, ok := r.rows[uid]
	if !ok {
		return nil, fmt.Errorf("%w: profile %s", profile.ErrNotFound, uid)
	}
	return &p, nil
}

func (r *Repo) Create(_ context.Context, p profile.Profile) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; ok {
		return nil, profile.ErrExists
	}
	r.rows[p.ID] = p
	r.Creates++
	return &p, nil
}

func (r *Repo) Update(_ context.Context, uid string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.rows[uid]
	p.ID = uid
	for k, v := range fields {
		switch k {
		case "full_name":
			p.FullName = v.(string)
		case "phone":
			p.Phone = v.(string)
		case "updated_at":
			p.UpdatedAt = v.(time.Time)
		}
	}
	r.rows[uid] = p
	r.Updates = append(r.Updates, fields)
	return nil
}

// Count is the number of stored profiles.
func (r *Repo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// Package bodyguardtest provides in-memory bodyguard storage for tests.
package bodyguardtest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"securemate/backend/internal/domain/bodyguard"
)

type Repo struct {
	mu   sync.Mutex
	rows map[string]bodyguard.Bodyguard
	// Err, when set, is returned by every call.
	Err error
}

func NewRepo(seed ...bodyguard.Bodyguard) *Repo {
	r := &Repo{rows: map[string]bodyguard.Bodyguard{}}
	for _, b := range seed {
		r.rows[b.ID] = b
	}
	return r
}

func (r *Repo) Create(_ context.Context, b bodyguard.Bodyguard) (*bodyguard.Bodyguard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if _, ok := r.rows[b.ID]; ok {
		return nil, fmt.Errorf("%w: duplicate %s", bodyguard.ErrBadRequest, b.ID)
	}
	r.rows[b.ID] = b
	return &b, nil
}

func (r *Repo) Get(_ context.Context, id string) (*bodyguard.Bodyguard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	b, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: bodyguard %s", bodyguard.ErrNotFound, id)
	}
	return &b, nil
}

func (r *Repo) GetMany(_ context.Context, ids []string) (map[string]bodyguard.Bodyguard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := map[string]bodyguard.Bodyguard{}
	for _, id := range ids {
		if b, ok := r.rows[id]; ok {
			out[id] = b
		}
	}
	return out, nil
}

func (r *Repo) ListByStatus(_ context.Context, s bodyguard.Status) ([]bodyguard.Bodyguard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := []bodyguard.Bodyguard{}
	for _, b := range r.rows {
		if b.Status == s {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Repo) UpdateStatus(_ context.Context, id string, s bodyguard.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	b, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("%w: bodyguard %s", bodyguard.ErrNotFound, id)
	}
	b.Status = s
	r.rows[id] = b
	return nil
}

// Files records uploads in memory. Names under a prefix listed in Fail are
// rejected, and so is a second write to an existing name.
type Files struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Fail    map[string]bool
}

func NewFiles() *Files {
	return &Files{Objects: map[string][]byte{}, Fail: map[string]bool{}}
}

func (f *Files) Upload(_ context.Context, name, _ string, body io.Reader) (bodyguard.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for prefix := range f.Fail {
		if strings.HasPrefix(name, prefix) {
			return bodyguard.Object{}, fmt.Errorf("storage: upload of %s rejected", name)
		}
	}
	if _, ok := f.Objects[name]; ok {
		return bodyguard.Object{}, fmt.Errorf("storage: object %s already exists", name)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return bodyguard.Object{}, err
	}
	f.Objects[name] = b
	return bodyguard.Object{Name: name, URL: "https://files.test/" + name}, nil
}

func (f *Files) SignedURL(_ context.Context, name string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://files.test/%s?expires=%d", name, int(ttl.Seconds())), nil
}

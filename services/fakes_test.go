package services

import (
	"context"
	"sync"

	"item-claim-system/models"
)

// fakeLookup serves canned profiles keyed by lower-cased handle, like Roblox does.
type fakeLookup struct {
	mu       sync.Mutex
	profiles map[string]models.ExternalProfile
	err      error
	calls    []string
}

func newFakeLookup(profiles ...models.ExternalProfile) *fakeLookup {
	f := &fakeLookup{profiles: make(map[string]models.ExternalProfile)}
	for _, p := range profiles {
		f.profiles[lower(p.Name)] = p
	}
	return f
}

func (f *fakeLookup) Lookup(_ context.Context, handle string) (*models.ExternalProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, handle)

	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[lower(handle)]
	if !ok {
		return nil, notFoundError{handle: handle}
	}
	return &p, nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

var player1 = models.ExternalProfile{
	ID:     555,
	Name:   "Player_1",
	Avatar: DirectAvatarURL(555),
}

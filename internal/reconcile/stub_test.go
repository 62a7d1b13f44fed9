package reconcile

import (
	"context"
	"sync"
	"testing"

	"rostersync/internal/catalog"
	"rostersync/internal/config"
	"rostersync/internal/directory"
)

// stubClient records mutation order and lets tests inject failures.
type stubClient struct {
	mu        sync.Mutex
	entity    directory.Entity
	entityErr error
	rank      int
	rankErr   error
	tags      map[string]directory.Tag
	tagErr    error
	addErr    error
	removeErr error
	calls     []string
	fetches   int
}

var _ directory.Client = (*stubClient)(nil)

func newStubClient(entity directory.Entity) *stubClient {
	return &stubClient{entity: entity, rank: 10, tags: map[string]directory.Tag{}}
}

func (s *stubClient) Entity(ctx context.Context, id string) (directory.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.entityErr != nil {
		return directory.Entity{}, s.entityErr
	}
	return s.entity, nil
}

func (s *stubClient) Members(ctx context.Context) ([]directory.Entity, error) {
	return []directory.Entity{s.entity}, nil
}

func (s *stubClient) AddTags(ctx context.Context, id string, tagIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "add")
	if s.addErr != nil {
		return s.addErr
	}
	s.entity.TagIDs = append(s.entity.TagIDs, tagIDs...)
	return nil
}

func (s *stubClient) RemoveTags(ctx context.Context, id string, tagIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "remove")
	if s.removeErr != nil {
		return s.removeErr
	}
	drop := map[string]struct{}{}
	for _, tag := range tagIDs {
		drop[tag] = struct{}{}
	}
	var kept []string
	for _, tag := range s.entity.TagIDs {
		if _, gone := drop[tag]; !gone {
			kept = append(kept, tag)
		}
	}
	s.entity.TagIDs = kept
	return nil
}

func (s *stubClient) Tag(ctx context.Context, tagID string) (directory.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tagErr != nil {
		return directory.Tag{}, s.tagErr
	}
	if tag, ok := s.tags[tagID]; ok {
		return tag, nil
	}
	return directory.Tag{ID: tagID, Rank: 1}, nil
}

func (s *stubClient) ActorRank(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rank, s.rankErr
}

func (s *stubClient) Joins() <-chan directory.JoinEvent { return nil }

func (s *stubClient) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubClient) callOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(config.Default().Catalog)
	if err != nil {
		t.Fatal(err)
	}
	return cat
}

// Package versions reads and reverts the version history of a persisted
// recommendation. The backing API is the source of truth; the store only keeps
// the last fetched history per recommendation for display.
package versions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/gitrec/internal/domain"
	"github.com/yungbote/gitrec/internal/platform/apierr"
	"github.com/yungbote/gitrec/internal/platform/logger"
)

const (
	FieldRecommendationID = "recommendation_id"
	FieldVersionID        = "version_id"
	FieldVersionA         = "version_a_id"
	FieldVersionB         = "version_b_id"
	FieldReason           = "reason"
)

type Remote interface {
	ListVersions(ctx context.Context, id uuid.UUID) (domain.History, error)
	CompareVersions(ctx context.Context, id, versionA, versionB uuid.UUID) (domain.Comparison, error)
	RevertVersion(ctx context.Context, id, versionID uuid.UUID, reason string) error
}

type entry struct {
	seq     uint64
	history domain.History
}

// Store never retries and never refreshes on its own: callers re-fetch after
// a successful Revert.
type Store struct {
	remote Remote
	log    *logger.Logger

	mu     sync.Mutex
	issued map[uuid.UUID]uint64
	cache  map[uuid.UUID]entry
}

func NewStore(remote Remote, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		remote: remote,
		log:    log.With("component", "VersionStore"),
		issued: map[uuid.UUID]uint64{},
		cache:  map[uuid.UUID]entry{},
	}
}

// List fetches the history in ascending version order. When calls overlap,
// the cache keeps the response of the most recently issued one.
func (s *Store) List(ctx context.Context, id uuid.UUID) (domain.History, error) {
	if id == uuid.Nil {
		return domain.History{}, apierr.Validation(apierr.Fields{FieldRecommendationID: "recommendation id is required"})
	}
	s.mu.Lock()
	s.issued[id]++
	seq := s.issued[id]
	s.mu.Unlock()

	h, err := s.remote.ListVersions(ctx, id)
	if err != nil {
		return domain.History{}, err
	}
	h = normalizeHistory(id, h)

	s.mu.Lock()
	if cur, ok := s.cache[id]; !ok || seq >= cur.seq {
		s.cache[id] = entry{seq: seq, history: h}
	}
	s.mu.Unlock()
	return h, nil
}

// Cached returns the last stored history without a network call.
func (s *Store) Cached(id uuid.UUID) (domain.History, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.cache[id]
	if !ok {
		return domain.History{}, false
	}
	h := e.history
	h.Versions = append([]domain.Version(nil), h.Versions...)
	return h, true
}

// Compare returns the diff between versionA and versionB labelled as
// requested, whatever order the server returned them in.
func (s *Store) Compare(ctx context.Context, id, versionA, versionB uuid.UUID) (domain.Comparison, error) {
	fields := apierr.Fields{}
	if id == uuid.Nil {
		fields[FieldRecommendationID] = "recommendation id is required"
	}
	if versionA == uuid.Nil {
		fields[FieldVersionA] = "version is required"
	}
	if versionB == uuid.Nil {
		fields[FieldVersionB] = "version is required"
	}
	if len(fields) > 0 {
		return domain.Comparison{}, apierr.Validation(fields)
	}

	cmp, err := s.remote.CompareVersions(ctx, id, versionA, versionB)
	if err != nil {
		return domain.Comparison{}, err
	}
	a, b := cmp.VersionA, cmp.VersionB
	if a.ID == versionB && b.ID == versionA {
		a, b = b, a
	}
	if a.ID != versionA || b.ID != versionB {
		return domain.Comparison{}, apierr.Wrap(apierr.KindServer,
			fmt.Errorf("compare returned versions %s/%s, requested %s/%s", a.ID, b.ID, versionA, versionB))
	}
	return Compare(a, b), nil
}

// Revert asks the server to append a copy of versionID. The reason is
// required and checked before any network call.
func (s *Store) Revert(ctx context.Context, id, versionID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	fields := apierr.Fields{}
	if id == uuid.Nil {
		fields[FieldRecommendationID] = "recommendation id is required"
	}
	if versionID == uuid.Nil {
		fields[FieldVersionID] = "choose a version to revert to"
	}
	if reason == "" {
		fields[FieldReason] = "a reason is required to revert"
	}
	if len(fields) > 0 {
		return apierr.Validation(fields)
	}
	if err := s.remote.RevertVersion(ctx, id, versionID, reason); err != nil {
		return err
	}
	s.log.Info("version reverted", "recommendation_id", id, "version_id", versionID)
	return nil
}

func normalizeHistory(id uuid.UUID, h domain.History) domain.History {
	versions := append([]domain.Version(nil), h.Versions...)
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].VersionNumber < versions[j].VersionNumber
	})
	h.Versions = versions
	if h.RecommendationID == uuid.Nil {
		h.RecommendationID = id
	}
	if h.TotalVersions == 0 {
		h.TotalVersions = len(versions)
	}
	return h
}

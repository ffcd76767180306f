package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/user/rental-crawler/internal/entity"
	"github.com/user/rental-crawler/internal/repository"
)

type memoryQueue struct {
	items []string
	err   error
}

func (q *memoryQueue) Push(ctx context.Context, keyword string) error {
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, keyword)
	return nil
}

func (q *memoryQueue) Pop(ctx context.Context) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	if len(q.items) == 0 {
		return "", repository.ErrQueueEmpty
	}
	kw := q.items[0]
	q.items = q.items[1:]
	return kw, nil
}

func (q *memoryQueue) Size(ctx context.Context) (int64, error) {
	return int64(len(q.items)), nil
}

type memoryRecent struct {
	marks map[string]time.Duration
}

func newMemoryRecent(keywords ...string) *memoryRecent {
	r := &memoryRecent{marks: map[string]time.Duration{}}
	for _, kw := range keywords {
		r.marks[kw] = time.Hour
	}
	return r
}

func (r *memoryRecent) MarkRecent(ctx context.Context, keyword string, expiry time.Duration) error {
	r.marks[keyword] = expiry
	return nil
}

func (r *memoryRecent) IsRecent(ctx context.Context, keyword string) (bool, error) {
	_, ok := r.marks[keyword]
	return ok, nil
}

func (r *memoryRecent) RemoveRecent(ctx context.Context, keyword string) error {
	delete(r.marks, keyword)
	return nil
}

type memoryRecords struct {
	runs map[string]*entity.CrawlStatus
	recs map[string][]entity.ListingRecord
	err  error
}

func (m *memoryRecords) SaveRun(ctx context.Context, result entity.KeywordResult) error {
	return errors.New("not used")
}

func (m *memoryRecords) FindByKeyword(ctx context.Context, keyword string) ([]entity.ListingRecord, error) {
	return m.recs[keyword], m.err
}

func (m *memoryRecords) LastRun(ctx context.Context, keyword string) (*entity.CrawlStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.runs[keyword], nil
}

type memoryFailures struct {
	failures []entity.Failure
}

func (m *memoryFailures) SaveAll(ctx context.Context, failures []entity.Failure) error {
	m.failures = append(m.failures, failures...)
	return nil
}

func (m *memoryFailures) FindByKeyword(ctx context.Context, keyword string, limit int) ([]entity.Failure, error) {
	var out []entity.Failure
	for _, f := range m.failures {
		if f.Keyword == keyword && len(out) < limit {
			out = append(out, f)
		}
	}
	return out, nil
}

type recordingRunner struct {
	keywords []string
	bounds   []entity.Bounds
}

func (r *recordingRunner) RunKeyword(ctx context.Context, keyword string, bounds entity.Bounds) entity.KeywordResult {
	r.keywords = append(r.keywords, keyword)
	r.bounds = append(r.bounds, bounds)
	return entity.KeywordResult{Keyword: keyword}
}

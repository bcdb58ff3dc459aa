package application_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

// --- Mock implementations ---

// fakeSource is an in-memory GitHubSource that counts calls per operation.
// The *Fn hooks, when set, replace the canned data.
type fakeSource struct {
	labels    []model.Label
	issues    map[int]model.Issue
	allIssues []model.Issue
	details   map[int]model.IssueDetails
	projectID string
	items     []model.ProjectItem

	detailsFn   func(ctx context.Context, number int) (model.IssueDetails, error)
	projectIDFn func(ctx context.Context) (string, error)

	labelCalls     atomic.Int32
	issueCalls     atomic.Int32
	allIssuesCalls atomic.Int32
	detailCalls    atomic.Int32
	projectIDCalls atomic.Int32
	itemsCalls     atomic.Int32

	mu             sync.Mutex
	detailNumbers  []int
	includedClosed []bool
}

func (f *fakeSource) FetchLabels(_ context.Context, _, _ string) ([]model.Label, error) {
	f.labelCalls.Add(1)
	return append([]model.Label(nil), f.labels...), nil
}

func (f *fakeSource) FetchIssue(_ context.Context, _, _ string, number int) (model.Issue, error) {
	f.issueCalls.Add(1)
	issue, ok := f.issues[number]
	if !ok {
		return model.Issue{}, errNotFound
	}
	return issue.Clone(), nil
}

func (f *fakeSource) FetchAllIssues(_ context.Context, _, _ string, includeClosed bool) ([]model.Issue, error) {
	f.allIssuesCalls.Add(1)

	f.mu.Lock()
	f.includedClosed = append(f.includedClosed, includeClosed)
	f.mu.Unlock()

	issues := make([]model.Issue, 0, len(f.allIssues))
	for _, issue := range f.allIssues {
		issues = append(issues, issue.Clone())
	}
	return issues, nil
}

func (f *fakeSource) FetchIssueDetails(ctx context.Context, _, _ string, number int) (model.IssueDetails, error) {
	f.detailCalls.Add(1)

	f.mu.Lock()
	f.detailNumbers = append(f.detailNumbers, number)
	f.mu.Unlock()

	if f.detailsFn != nil {
		return f.detailsFn(ctx, number)
	}
	return f.details[number], nil
}

func (f *fakeSource) FetchProjectID(ctx context.Context, _ string, _ int) (string, error) {
	f.projectIDCalls.Add(1)
	if f.projectIDFn != nil {
		return f.projectIDFn(ctx)
	}
	return f.projectID, nil
}

func (f *fakeSource) FetchAllProjectItems(_ context.Context, _ string) ([]model.ProjectItem, error) {
	f.itemsCalls.Add(1)

	items := make([]model.ProjectItem, 0, len(f.items))
	for _, item := range f.items {
		if item.Issue != nil {
			issue := item.Issue.Clone()
			item.Issue = &issue
		}
		items = append(items, item)
	}
	return items, nil
}

type fakeScoreStore struct {
	mu      sync.Mutex
	saved   []model.ScoreRecord
	saveErr error
}

func (s *fakeScoreStore) Save(_ context.Context, record model.ScoreRecord) (model.ScoreRecord, error) {
	if s.saveErr != nil {
		return model.ScoreRecord{}, s.saveErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = int64(len(s.saved) + 1)
	s.saved = append(s.saved, record)
	return record, nil
}

func (s *fakeScoreStore) ListByIssue(_ context.Context, owner, repo string, number int) ([]model.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []model.ScoreRecord
	for i := len(s.saved) - 1; i >= 0; i-- {
		r := s.saved[i]
		if r.Owner == owner && r.Repository == repo && r.Number == number {
			records = append(records, r)
		}
	}
	return records, nil
}

type fakeChooser struct {
	choice     model.LabelChoice
	err        error
	calls      int
	lastIssue  model.Issue
	lastLabels []model.Label
}

func (c *fakeChooser) ChooseLabel(_ context.Context, issue model.Issue, labels []model.Label) (model.LabelChoice, error) {
	c.calls++
	c.lastIssue = issue
	c.lastLabels = labels
	return c.choice, c.err
}

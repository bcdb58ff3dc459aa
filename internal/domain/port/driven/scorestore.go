package driven

import (
	"context"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

// ScoreStore defines the driven port for engagement score persistence.
type ScoreStore interface {
	Save(ctx context.Context, record model.ScoreRecord) (model.ScoreRecord, error)
	// ListByIssue returns the recorded scores for an issue, newest first.
	ListByIssue(ctx context.Context, owner, repo string, number int) ([]model.ScoreRecord, error)
}

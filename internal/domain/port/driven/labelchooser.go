package driven

import (
	"context"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
)

// LabelChooser defines the driven port for asking a language model which of
// the candidate labels best fits an issue.
type LabelChooser interface {
	ChooseLabel(ctx context.Context, issue model.Issue, labels []model.Label) (model.LabelChoice, error)
}

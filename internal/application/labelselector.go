package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/issuepulse/internal/domain/model"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// LabelSelectorRequest identifies the issue to label and the candidate labels.
// An empty filter offers every repository label.
type LabelSelectorRequest struct {
	Owner  string
	Repo   string
	Number int
	Labels model.LabelFilter
}

// LabelSelectorService asks a LabelChooser to pick the best label for an issue.
type LabelSelectorService struct {
	chooser driven.LabelChooser
	logger  *slog.Logger
}

// NewLabelSelectorService creates a LabelSelectorService.
func NewLabelSelectorService(chooser driven.LabelChooser, logger *slog.Logger) *LabelSelectorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LabelSelectorService{
		chooser: chooser,
		logger:  logger,
	}
}

// SelectLabel loads the issue and candidate labels, then asks the chooser.
// A choice outside the candidate set is discarded and reported as no label.
func (s *LabelSelectorService) SelectLabel(ctx context.Context, gh *GitHub, req LabelSelectorRequest) (model.LabelChoice, error) {
	if req.Owner == "" || req.Repo == "" || req.Number <= 0 {
		return model.LabelChoice{}, fmt.Errorf("%w: issue owner, repo and number are required", ErrInvalidRequest)
	}

	repo := gh.Repository(req.Owner, req.Repo)

	s.logger.Info("loading issue", "repo", repo.FullName(), "number", req.Number)
	issue, err := repo.Issue(ctx, req.Number)
	if err != nil {
		return model.LabelChoice{}, err
	}

	s.logger.Info("loading labels", "repo", repo.FullName())
	candidates, err := repo.Labels(ctx, nil)
	if err != nil {
		return model.LabelChoice{}, err
	}

	if len(req.Labels.Names) > 0 || req.Labels.Pattern != "" {
		filter := req.Labels
		candidates, err = repo.Labels(ctx, &filter)
		if err != nil {
			return model.LabelChoice{}, err
		}
	}

	if len(candidates) == 0 {
		s.logger.Error("no candidate labels", "repo", repo.FullName())
		return model.LabelChoice{}, fmt.Errorf("%w: no candidate labels for %s", ErrInvalidRequest, repo.FullName())
	}

	choice, err := s.chooser.ChooseLabel(ctx, issue, candidates)
	if err != nil {
		return model.LabelChoice{}, fmt.Errorf("choose label for %s#%d: %w", repo.FullName(), req.Number, err)
	}

	if choice.Label != "" && !containsLabel(candidates, choice.Label) {
		s.logger.Warn("chooser returned unknown label", "label", choice.Label, "repo", repo.FullName(), "number", req.Number)
		return model.LabelChoice{}, nil
	}

	return choice, nil
}

func containsLabel(labels []model.Label, name string) bool {
	for _, l := range labels {
		if l.Name == name {
			return true
		}
	}
	return false
}

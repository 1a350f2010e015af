package failure

import (
	"context"
	"log/slog"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record satisfies the ingestion pipeline's failure sink. Before saving it
// clears earlier records for the same file so the list reflects only the
// latest run's verdict.
func (s *Service) Record(ctx context.Context, documentID, source, stage, reason string) error {
	if err := s.repo.DeleteBySource(ctx, source); err != nil {
		slog.WarnContext(ctx, "failed to clear stale failure records", "source", source, "error", err)
	}
	return s.repo.Save(ctx, &Record{
		DocumentID: documentID,
		Source:     source,
		Stage:      stage,
		Reason:     reason,
	})
}

// Clear removes records for a file that has since ingested cleanly.
func (s *Service) Clear(ctx context.Context, source string) error {
	return s.repo.DeleteBySource(ctx, source)
}

func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

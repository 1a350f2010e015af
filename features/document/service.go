package document

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pulpit/internal/config"
	"pulpit/internal/metadata"
	"pulpit/internal/middleware"
	"pulpit/internal/parser"
	"pulpit/internal/series"
	"pulpit/internal/worker"
)

// Report summarizes one ingestion run.
type Report struct {
	Ingested   int      `json:"ingested"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Warnings   int      `json:"warnings"`
	FailedDocs []string `json:"failed_docs,omitempty"`
}

// FailureRecorder persists per-document ingestion failures so the next run
// can pick them up, and clears them once the file ingests cleanly.
type FailureRecorder interface {
	Record(ctx context.Context, documentID, source, stage, reason string) error
	Clear(ctx context.Context, source string) error
}

type Service struct {
	repo        Repository
	pub         EventPublisher
	vectors     VectorStore
	registry    *series.Registry
	failures    FailureRecorder
	concurrency int
}

func NewService(repo Repository, pub EventPublisher, vectors VectorStore, registry *series.Registry, failures FailureRecorder, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{repo: repo, pub: pub, vectors: vectors, registry: registry, failures: failures, concurrency: concurrency}
}

// IngestDir runs incremental ingestion over every transcript in dir.
// Documents are processed in parallel; chunk identities are namespaced by
// document ID so concurrent documents never contend on a key. Per-document
// failures are recorded and counted but never abort the run.
func (s *Service) IngestDir(ctx context.Context, dir string, force bool) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(e.Name())); ext == ".txt" || ext == ".text" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	sort.Strings(files)

	report := &Report{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, path := range files {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, warnings, err := s.ingestFile(ctx, path, force)
			mu.Lock()
			defer mu.Unlock()
			report.Warnings += warnings
			switch {
			case err != nil:
				report.Failed++
				report.FailedDocs = append(report.FailedDocs, filepath.Base(path))
			case outcome == outcomeSkipped:
				report.Skipped++
			default:
				report.Ingested++
			}
		}(path)
	}
	wg.Wait()

	sort.Strings(report.FailedDocs)
	slog.InfoContext(ctx, "ingestion run finished",
		"ingested", report.Ingested, "skipped", report.Skipped,
		"failed", report.Failed, "warnings", report.Warnings)
	return report, nil
}

type outcome int

const (
	outcomeIngested outcome = iota
	outcomeSkipped
)

func (s *Service) ingestFile(ctx context.Context, path string, force bool) (outcome, int, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator-supplied source directory
	if err != nil {
		s.recordFailure(ctx, "", path, "read", err)
		return outcomeIngested, 0, err
	}

	pages := splitPages(string(raw))
	firstPage := ""
	if len(pages) > 0 {
		firstPage = pages[0]
	}

	meta, err := metadata.Extract(path, firstPage)
	if err != nil {
		slog.WarnContext(ctx, "document skipped: no usable identity", "path", path, "error", err)
		s.recordFailure(ctx, "", path, "metadata", err)
		return outcomeIngested, 0, err
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(raw))

	existing, err := s.repo.GetDocument(ctx, meta.DocumentID)
	if err != nil {
		s.recordFailure(ctx, meta.DocumentID, path, "lookup", err)
		return outcomeIngested, 0, err
	}
	if existing != nil && !force && existing.Status == "completed" && existing.ContentHash == hash {
		slog.DebugContext(ctx, "document already indexed, skipping", "document_id", meta.DocumentID)
		return outcomeSkipped, 0, nil
	}

	res := parser.Parse(pages)
	for _, w := range res.Warnings {
		slog.WarnContext(ctx, "parse warning", "document_id", meta.DocumentID, "page", w.Page, "reason", w.Reason)
	}
	if len(res.Paragraphs) == 0 {
		err := fmt.Errorf("document %s produced no paragraphs", meta.DocumentID)
		s.recordFailure(ctx, meta.DocumentID, path, "parse", err)
		return outcomeIngested, len(res.Warnings), err
	}

	if force {
		// Overwrite semantics: clear stale chunks and vectors before rewriting.
		if err := s.repo.DeleteChunksByDocument(ctx, meta.DocumentID); err != nil {
			s.recordFailure(ctx, meta.DocumentID, path, "store", err)
			return outcomeIngested, len(res.Warnings), err
		}
		if err := s.vectors.DeleteByDocument(ctx, meta.DocumentID); err != nil {
			slog.WarnContext(ctx, "vector cleanup failed, stale vectors will be overwritten on upsert",
				"document_id", meta.DocumentID, "error", err)
		}
	}

	doc := &Document{
		ID:          meta.DocumentID,
		DateCode:    meta.DateCode,
		Title:       meta.Title,
		PageCount:   len(pages),
		ContentHash: hash,
		Status:      "in_progress",
	}
	if err := s.repo.SaveDocument(ctx, doc); err != nil {
		s.recordFailure(ctx, meta.DocumentID, path, "store", err)
		return outcomeIngested, len(res.Warnings), err
	}

	tags := s.registry.TagsFor(meta.DocumentID)

	for _, p := range res.Paragraphs {
		if err := s.assignAndStore(ctx, meta, p, tags); err != nil {
			// Abort this document; committed chunks stay and the next run
			// resumes from the store state.
			s.recordFailure(ctx, meta.DocumentID, path, "store", err)
			return outcomeIngested, len(res.Warnings), err
		}
	}

	if err := s.repo.UpdateDocumentStatus(ctx, meta.DocumentID, "completed"); err != nil {
		s.recordFailure(ctx, meta.DocumentID, path, "store", err)
		return outcomeIngested, len(res.Warnings), err
	}

	if s.failures != nil {
		if err := s.failures.Clear(ctx, filepath.Base(path)); err != nil {
			slog.WarnContext(ctx, "failed to clear failure records", "error", err)
		}
	}

	slog.InfoContext(ctx, "document ingested", "document_id", meta.DocumentID, "chunks", len(res.Paragraphs))
	return outcomeIngested, len(res.Warnings), nil
}

// assignAndStore gives one paragraph its stable identity and persists it.
// Absent: insert and queue a vector upsert. Present and identical: no-op.
// Present and different: overwrite and re-queue so neither the store nor
// the vector index goes stale.
func (s *Service) assignAndStore(ctx context.Context, meta metadata.Meta, p parser.Paragraph, tags []string) error {
	chunk := Chunk{
		ID:              ChunkID(meta.DocumentID, p.Number),
		DocumentID:      meta.DocumentID,
		ParagraphNumber: p.Number,
		StartPage:       p.StartPage,
		EndPage:         p.EndPage,
		Text:            p.Text,
		SeriesTags:      tags,
	}

	existing, err := s.repo.GetChunk(ctx, chunk.ID)
	if err != nil {
		return fmt.Errorf("%w: read chunk %s: %v", ErrStoreWrite, chunk.ID, err)
	}
	if existing != nil && existing.Text == chunk.Text &&
		existing.StartPage == chunk.StartPage && existing.EndPage == chunk.EndPage {
		return nil
	}

	if err := s.repo.UpsertChunk(ctx, chunk); err != nil {
		return err
	}

	payload, _ := json.Marshal(worker.ChunkEmbedPayload{
		ChunkID:         chunk.ID,
		DocumentID:      chunk.DocumentID,
		Title:           meta.Title,
		DateCode:        meta.DateCode,
		ParagraphNumber: chunk.ParagraphNumber,
		StartPage:       chunk.StartPage,
		EndPage:         chunk.EndPage,
		Content:         chunk.Text,
		SeriesTags:      chunk.SeriesTags,
		CorrelationID:   middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicChunkEmbed, payload); err != nil {
		return fmt.Errorf("%w: queue embed for %s: %v", ErrStoreWrite, chunk.ID, err)
	}
	return nil
}

func (s *Service) recordFailure(ctx context.Context, documentID, path, stage string, cause error) {
	if s.failures == nil {
		return
	}
	if err := s.failures.Record(ctx, documentID, filepath.Base(path), stage, cause.Error()); err != nil {
		slog.WarnContext(ctx, "failed to record ingestion failure", "error", err)
	}
}

// Get returns a document with its chunks.
func (s *Service) Get(ctx context.Context, id string) (*Document, []Chunk, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, nil
	}
	chunks, err := s.repo.GetChunksByDocument(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch chunks", "error", err, "document_id", id)
		chunks = []Chunk{}
	}
	return doc, chunks, nil
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.ListDocuments(ctx)
}

// Delete removes a document, its chunks and its vectors.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.vectors.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteChunksByDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteDocument(ctx, id)
}

// splitPages divides raw transcript text into its physical pages. The
// archive delimits pages with form feeds; a file without them is one page.
func splitPages(text string) []string {
	return strings.Split(text, "\f")
}

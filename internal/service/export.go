package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/deppfellow/genoportal/internal/errs"
	"github.com/deppfellow/genoportal/internal/lib/export"
	"github.com/deppfellow/genoportal/internal/lib/job"
	"github.com/deppfellow/genoportal/internal/lib/session"
	"github.com/deppfellow/genoportal/internal/lib/storage"
	"github.com/deppfellow/genoportal/internal/logger"
	"github.com/deppfellow/genoportal/internal/query"
	"github.com/deppfellow/genoportal/internal/repository"
	"github.com/deppfellow/genoportal/internal/server"
	"github.com/deppfellow/genoportal/internal/validation"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const fileKeySuffix = ".csv"

// ExportService saves stashed search results as CSV files and manages the
// saved files.
type ExportService struct {
	server *server.Server
	repo   *repository.SearchRepository
	now    func() time.Time
}

// NewExportService creates the service and, when background jobs are
// enabled, registers the CSV export task handler.
func NewExportService(s *server.Server, repo *repository.SearchRepository) *ExportService {
	svc := &ExportService{server: s, repo: repo, now: time.Now}
	if s.Job != nil {
		s.Job.Handle(job.TaskExportCSV, svc.handleExportTask)
	}
	return svc
}

// SaveOptions are the labels the results table submits with a save.
type SaveOptions struct {
	SearchType string
	Condition  string
	CellType   string
}

// Save exports the stashed result resultID and returns the new file id.
// With background jobs enabled the file appears once the worker is done.
func (s *ExportService) Save(ctx context.Context, resultID string, opts SaveOptions) (string, error) {
	stash, err := s.server.Results.Load(ctx, resultID)
	if errors.Is(err, session.ErrNotFound) {
		return "", errs.NewBadRequestError("No results to save", true, nil, nil, nil)
	}
	if err != nil {
		return "", fmt.Errorf("load stashed result: %w", err)
	}

	payload := newExportPayload(ctx, resultID, opts, stash)

	if s.server.Job == nil {
		if _, err := s.write(ctx, payload, stash.Criteria); err != nil {
			return "", err
		}
		return payload.ExportID, nil
	}

	task, err := job.NewExportTask(payload)
	if err != nil {
		return "", fmt.Errorf("create export task: %w", err)
	}
	if _, err := s.server.Job.Enqueue(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return "", errs.NewBadRequestError("This result is already being saved", true, nil, nil, nil)
		}
		return "", err
	}

	return payload.ExportID, nil
}

func newExportPayload(ctx context.Context, resultID string, opts SaveOptions, stash session.Result) job.ExportPayload {
	return job.ExportPayload{
		ExportID:   uuid.NewString(),
		ResultID:   resultID,
		SearchType: firstNonEmpty(opts.SearchType, stash.SearchType, "query"),
		Condition:  firstNonEmpty(opts.Condition, stash.Criteria.Condition, "unknown"),
		CellType:   firstNonEmpty(opts.CellType, stash.Criteria.CellType, "unknown"),
		RequestID:  logger.RequestIDFromContext(ctx),
	}
}

// Run performs one export described by p. It is what the background worker
// executes.
func (s *ExportService) Run(ctx context.Context, p job.ExportPayload) (export.Record, error) {
	stash, err := s.server.Results.Load(ctx, p.ResultID)
	if err != nil {
		return export.Record{}, fmt.Errorf("load stashed result %s: %w", p.ResultID, err)
	}
	return s.write(ctx, p, stash.Criteria)
}

func (s *ExportService) handleExportTask(ctx context.Context, t *asynq.Task) error {
	p, err := job.ParseExportPayload(t)
	if err != nil {
		return err
	}

	taskLogger := s.server.Logger.With().
		Str("task", job.TaskExportCSV).
		Str("request_id", p.RequestID).
		Str("result_id", p.ResultID).
		Logger()
	ctx = logger.WithContext(logger.WithRequestID(ctx, p.RequestID), &taskLogger)

	record, err := s.Run(ctx, p)
	if errors.Is(err, session.ErrNotFound) {
		// Expired before the worker got to it; retrying will not bring it back.
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	taskLogger.Info().
		Str("export_id", record.ID).
		Str("filename", record.Filename).
		Int("rows", record.Rows).
		Msg("export saved")
	return nil
}

func (s *ExportService) write(ctx context.Context, p job.ExportPayload, c query.Criteria) (export.Record, error) {
	stmt, err := query.Build(c, s.repo.Dialect())
	if err != nil {
		return export.Record{}, criteriaError(err)
	}

	rows, err := s.repo.Export(ctx, stmt, s.server.Config.Export.MaxRows)
	if err != nil {
		return export.Record{}, err
	}
	cells := rows.StringRows()

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, rows.Columns, cells); err != nil {
		return export.Record{}, fmt.Errorf("write csv: %w", err)
	}

	record := export.NewRecord(p.ExportID, p.SearchType, p.Condition, p.CellType, s.now())
	record.Size = export.HumanSize(int64(buf.Len()))
	record.Preview = export.Preview(rows.Columns, cells, s.server.Config.Export.PreviewRows)
	record.Rows = len(cells)

	if _, err := s.server.Storage.Put(ctx, fileKey(p.ExportID), &buf, storage.PutOptions{
		ContentType: export.ContentType,
		Metadata:    record.Metadata(),
	}); err != nil {
		return export.Record{}, fmt.Errorf("store export %s: %w", p.ExportID, err)
	}

	logger.FromContext(ctx).Info().
		Str("export_id", record.ID).
		Str("storage", s.server.Storage.Driver()).
		Int("rows", record.Rows).
		Msg("saved search result")

	return record, nil
}

// List returns every saved file, newest first.
func (s *ExportService) List(ctx context.Context) ([]export.Record, error) {
	infos, err := s.server.Storage.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].LastModified.After(infos[j].LastModified)
	})

	records := make([]export.Record, 0, len(infos))
	for _, info := range infos {
		if !strings.HasSuffix(info.Key, fileKeySuffix) {
			continue
		}
		record := export.RecordFromMetadata(info.Metadata)
		if record.ID == "" {
			record.ID = strings.TrimSuffix(info.Key, fileKeySuffix)
		}
		if record.Size == "" {
			record.Size = export.HumanSize(info.Size)
		}
		records = append(records, record)
	}
	return records, nil
}

// SavedFile is an opened export. The caller closes Body.
type SavedFile struct {
	Record export.Record
	Size   int64
	Body   io.ReadCloser
}

// Open returns a saved file and its description.
func (s *ExportService) Open(ctx context.Context, id string) (*SavedFile, error) {
	if !validation.IsValidUUID(id) {
		return nil, fileNotFound()
	}

	info, body, err := s.server.Storage.Get(ctx, fileKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fileNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("open export %s: %w", id, err)
	}

	record := export.RecordFromMetadata(info.Metadata)
	if record.Filename == "" {
		record.Filename = fileKey(id)
	}
	return &SavedFile{Record: record, Size: info.Size, Body: body}, nil
}

// Delete removes a saved file.
func (s *ExportService) Delete(ctx context.Context, id string) error {
	if !validation.IsValidUUID(id) {
		return fileNotFound()
	}

	existed, err := s.server.Storage.Delete(ctx, fileKey(id))
	if err != nil {
		return fmt.Errorf("delete export %s: %w", id, err)
	}
	if !existed {
		return fileNotFound()
	}
	return nil
}

func fileKey(id string) string {
	return id + fileKeySuffix
}

func fileNotFound() error {
	return errs.NewNotFoundError("File not found", true, nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docgen"
	"docgen/internal/api/models"
	"docgen/internal/api/repo"
	"docgen/internal/batch"
	"docgen/internal/generate"
	"docgen/internal/placeholder"
	"docgen/internal/render"
	"docgen/internal/source"
	"docgen/pkg"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var (
	ErrHistoryDisabled = errors.New("batch history is disabled")
	ErrBatchNotFound   = errors.New("batch not found")
)

// BatchOutcome identifies a batch run and holds its results in submission
// order.
type BatchOutcome struct {
	ID      uuid.UUID
	Results []generate.Result
}

type DocumentService struct {
	templates   generate.Source
	pipeline    *generate.Pipeline
	coordinator *batch.Coordinator
	batchRepo   *repo.BatchRepository
	progress    *ProgressService
	mail        *MailService
	logger      zerolog.Logger
}

// NewDocumentService wires the service from the global configuration.
// Templates are cached in Redis and batches recorded in Postgres when
// those are connected.
func NewDocumentService() *DocumentService {
	cfg := docgen.GetConfig()

	var templates generate.Source = source.NewDir(cfg.TemplateDir)
	if docgen.Redis != nil {
		templates = source.NewCached(source.NewDir(cfg.TemplateDir), pkg.NewRedisStore(docgen.Redis), cfg.TemplateCacheTTL).
			WithLogger(docgen.Logger)
	}
	renderer := render.NewOffice(cfg.SofficePath, render.WithFontDir(cfg.FontDir))

	slf := newDocumentService(templates, renderer, cfg.OutputDir, cfg.MaxWorkers)
	if docgen.DB != nil {
		slf.batchRepo = repo.NewBatchRepository()
	}
	return slf
}

func newDocumentService(templates generate.Source, renderer render.Renderer, outputDir string, maxWorkers int) *DocumentService {
	pipeline := generate.New(templates, renderer, outputDir)
	return &DocumentService{
		templates:   templates,
		pipeline:    pipeline,
		coordinator: batch.New(pipeline, batch.WithMaxWorkers(maxWorkers)),
		progress:    NewProgressService(),
		mail:        NewMailService(),
		logger:      docgen.Logger,
	}
}

// Generate produces one document and mails it when recipients are given.
// Delivery failures are logged and do not fail the request.
func (slf *DocumentService) Generate(ctx context.Context, req generate.Request, deliverTo []string) (generate.Result, error) {
	res, err := slf.pipeline.Generate(ctx, req)
	if err != nil {
		return generate.Result{}, err
	}
	slf.deliver(ctx, deliverTo, generate.NormalizeOutputName(req.OutputName), []string{res.OutputPath})
	return res, nil
}

// RunBatch produces every document of reqs. The outcome always carries the
// batch id, also when the error is a *batch.BatchError.
func (slf *DocumentService) RunBatch(ctx context.Context, reqs []generate.Request, deliverTo []string) (BatchOutcome, error) {
	if len(reqs) == 0 {
		return BatchOutcome{}, fmt.Errorf("%w: batch must contain at least one request", generate.ErrInvalidArgument)
	}

	id := uuid.New()
	observers := []batch.Observer{slf.progress.Observer(id)}
	if slf.batchRepo != nil {
		record := models.Batch{ID: id, Status: models.BatchStatusRunning, Total: len(reqs)}
		if err := slf.batchRepo.Create(&record); err != nil {
			slf.logger.Error().Err(err).Str("batchId", id.String()).Msg("Failed to record batch, history disabled for this run")
		} else {
			observers = append(observers, slf.historyObserver(id))
		}
	}

	slf.logger.Info().Str("batchId", id.String()).Int("items", len(reqs)).Msg("Running batch")
	results, err := slf.coordinator.RunWithObserver(ctx, reqs, batch.ObserverFunc(func(ev batch.Event) {
		for _, o := range observers {
			o.Observe(ev)
		}
	}))

	failed := 0
	if batchErr, ok := batch.AsBatchError(err); ok {
		failed = len(batchErr.Failures)
	}
	slf.finish(id, failed)

	var produced []string
	for _, res := range results {
		if res.OutputPath != "" {
			produced = append(produced, res.OutputPath)
		}
	}
	slf.deliver(ctx, deliverTo, fmt.Sprintf("batch %s", id), produced)

	return BatchOutcome{ID: id, Results: results}, err
}

func (slf *DocumentService) historyObserver(id uuid.UUID) batch.Observer {
	return batch.ObserverFunc(func(ev batch.Event) {
		if ev.Status == batch.StatusRunning {
			return
		}
		item := models.BatchItem{
			BatchID:      id,
			Position:     ev.Index,
			TemplateName: ev.Request.TemplateName,
			OutputName:   generate.NormalizeOutputName(ev.Request.OutputName),
			OutputPath:   ev.Result.OutputPath,
			Worker:       ev.Worker,
			Status:       string(ev.Status),
		}
		if ev.Err != nil {
			item.ErrorKind = generate.KindOf(ev.Err).String()
			item.Error = ev.Err.Error()
		}
		if err := slf.batchRepo.AddItem(&item); err != nil {
			slf.logger.Error().Err(err).Str("batchId", id.String()).Int("index", ev.Index).Msg("Failed to record batch item")
		}
	})
}

func (slf *DocumentService) finish(id uuid.UUID, failed int) {
	if slf.batchRepo == nil {
		return
	}
	status := models.BatchStatusSucceeded
	if failed > 0 {
		status = models.BatchStatusFailed
	}
	if err := slf.batchRepo.Finish(id, status, failed, time.Now()); err != nil {
		slf.logger.Error().Err(err).Str("batchId", id.String()).Msg("Failed to finish batch record")
	}
}

func (slf *DocumentService) deliver(ctx context.Context, to []string, subject string, paths []string) {
	if len(to) == 0 || len(paths) == 0 {
		return
	}
	if err := slf.mail.SendArtifacts(ctx, to, subject, paths); err != nil {
		slf.logger.Error().Err(err).Strs("to", to).Msg("Failed to deliver documents")
	}
}

func (slf *DocumentService) FindBatch(id uuid.UUID) (*models.Batch, error) {
	if slf.batchRepo == nil {
		return nil, ErrHistoryDisabled
	}
	record, err := slf.batchRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		slf.logger.Error().Err(err).Str("batchId", id.String()).Msg("Error getting batch")
		return nil, err
	}
	return &record, nil
}

func (slf *DocumentService) RecentBatches(limit int) ([]models.Batch, error) {
	if slf.batchRepo == nil {
		return nil, ErrHistoryDisabled
	}
	return slf.batchRepo.FindRecent(limit)
}

// Placeholders lists the keys a template references, in order of first
// appearance.
func (slf *DocumentService) Placeholders(ctx context.Context, templateName string) ([]string, error) {
	doc, err := slf.templates.Load(ctx, templateName)
	if err != nil {
		return nil, err
	}
	return placeholder.DocumentKeys(doc)
}

package mapper

import (
	"docgen/internal/api/handler/request"
	"docgen/internal/api/handler/response"
	"docgen/internal/api/models"
	"docgen/internal/batch"
	"docgen/internal/generate"

	"github.com/google/uuid"
)

type DocumentMapper interface {
	ToGenerateRequest(req request.GenerateDocument) generate.Request
	ToBatchRequests(req request.RunBatch) []generate.Request
	ToDocumentResponse(res generate.Result) response.Document
	ToBatchResponse(id uuid.UUID, results []generate.Result) response.Batch
	ToBatchFailuresResponse(id uuid.UUID, results []generate.Result, err *batch.BatchError) response.BatchFailures
	ToBatchRecordResponse(record models.Batch) response.BatchRecord
	ToBatchRecordResponses(records []models.Batch) []response.BatchRecord
}

type DocumentMapperImpl struct{}

func NewDocumentMapper() DocumentMapper {
	return &DocumentMapperImpl{}
}

func (m DocumentMapperImpl) ToGenerateRequest(req request.GenerateDocument) generate.Request {
	return generate.Request{
		TemplateName: req.TemplateName,
		Metadata:     req.Metadata,
		OutputName:   req.OutputName,
	}
}

func (m DocumentMapperImpl) ToBatchRequests(req request.RunBatch) []generate.Request {
	reqs := make([]generate.Request, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = generate.Request{
			TemplateName: item.TemplateName,
			Metadata:     item.Metadata,
			OutputName:   item.OutputName,
		}
	}
	return reqs
}

func (m DocumentMapperImpl) ToDocumentResponse(res generate.Result) response.Document {
	return response.Document{OutputPath: res.OutputPath}
}

func (m DocumentMapperImpl) toDocumentResponses(results []generate.Result) []response.Document {
	docs := make([]response.Document, len(results))
	for i, res := range results {
		docs[i] = m.ToDocumentResponse(res)
	}
	return docs
}

func (m DocumentMapperImpl) ToBatchResponse(id uuid.UUID, results []generate.Result) response.Batch {
	return response.Batch{ID: id.String(), Results: m.toDocumentResponses(results)}
}

func (m DocumentMapperImpl) ToBatchFailuresResponse(id uuid.UUID, results []generate.Result, err *batch.BatchError) response.BatchFailures {
	failures := make([]response.BatchFailure, len(err.Failures))
	for i, f := range err.Failures {
		failures[i] = response.BatchFailure{
			Index:        f.Index,
			TemplateName: f.Request.TemplateName,
			OutputName:   f.Request.OutputName,
			Kind:         f.Kind.String(),
			Message:      f.Err.Error(),
		}
	}
	return response.BatchFailures{
		ID:       id.String(),
		Results:  m.toDocumentResponses(results),
		Failures: failures,
	}
}

func (m DocumentMapperImpl) ToBatchRecordResponse(record models.Batch) response.BatchRecord {
	items := make([]response.BatchItemRecord, len(record.Items))
	for i, item := range record.Items {
		items[i] = response.BatchItemRecord{
			Index:        item.Position,
			TemplateName: item.TemplateName,
			OutputName:   item.OutputName,
			OutputPath:   item.OutputPath,
			Worker:       item.Worker,
			Status:       item.Status,
			Kind:         item.ErrorKind,
			Message:      item.Error,
		}
	}
	return response.BatchRecord{
		ID:         record.ID.String(),
		Status:     string(record.Status),
		Total:      record.Total,
		Failed:     record.Failed,
		CreatedAt:  record.CreatedAt,
		FinishedAt: record.FinishedAt,
		Items:      items,
	}
}

func (m DocumentMapperImpl) ToBatchRecordResponses(records []models.Batch) []response.BatchRecord {
	responses := make([]response.BatchRecord, len(records))
	for i, r := range records {
		responses[i] = m.ToBatchRecordResponse(r)
	}
	return responses
}

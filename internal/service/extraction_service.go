package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
)

// Extraction outcomes reported to metrics.
const (
	ExtractionOutcomeOK       = "ok"
	ExtractionOutcomeRejected = "rejected"
	ExtractionOutcomeUpstream = "upstream_error"
	ExtractionOutcomeInvalid  = "invalid_response"
)

const syllabusInstruction = `You read university course syllabus documents.
Return a JSON object with this exact shape and nothing else:
{"units":{"1":{"title":"...","topics":["..."]}},"textbooks":["..."],"references":["..."]}
Use unit numbers "1" to "6" as keys. Keep topic names short and in document order.
Omit units that are not present. Use empty arrays when a list is missing.`

// JSONGenerator produces a JSON answer for an instruction and an attached document.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, instruction string, document []byte, mimeType string) (string, error)
	Model() string
}

// SyllabusDraft is the unsaved result of an extraction, reviewed by an admin before a subject is written.
type SyllabusDraft struct {
	Units      map[string]models.Unit `json:"units"`
	Textbooks  []string               `json:"textbooks"`
	References []string               `json:"references"`
	Pages      int                    `json:"pages"`
	Model      string                 `json:"model"`
}

// ExtractionService turns syllabus PDFs into draft units.
type ExtractionService struct {
	generator  JSONGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxPages   int
	timeout    time.Duration
	countPages PageCounter
}

// NewExtractionService wires the extraction workflow around generator.
func NewExtractionService(generator JSONGenerator, metrics *MetricsService, logger *zap.Logger, maxPages int, timeout time.Duration) *ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxPages <= 0 {
		maxPages = 40
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &ExtractionService{
		generator:  generator,
		metrics:    metrics,
		logger:     logger,
		maxPages:   maxPages,
		timeout:    timeout,
		countPages: PDFPageCount,
	}
}

// ExtractUnits validates the PDF, asks the model for a structured syllabus and
// normalises the answer. Nothing is persisted.
func (s *ExtractionService) ExtractUnits(ctx context.Context, document []byte) (*SyllabusDraft, error) {
	if len(document) == 0 {
		s.metrics.ObserveExtraction(ExtractionOutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if http.DetectContentType(document) != "application/pdf" {
		s.metrics.ObserveExtraction(ExtractionOutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "syllabus must be a PDF")
	}
	pages, err := s.countPages(document)
	if err != nil {
		s.metrics.ObserveExtraction(ExtractionOutcomeRejected)
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, "file is not a readable PDF")
	}
	if pages > s.maxPages {
		s.metrics.ObserveExtraction(ExtractionOutcomeRejected)
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("syllabus has %d pages, limit is %d", pages, s.maxPages))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.generator.GenerateJSON(ctx, syllabusInstruction, document, "application/pdf")
	if err != nil {
		s.metrics.ObserveExtraction(ExtractionOutcomeUpstream)
		s.logger.Error("syllabus extraction failed", zap.Error(err), zap.Int("pages", pages), zap.Duration("elapsed", time.Since(start)))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamAI.Code, appErrors.ErrUpstreamAI.Status, appErrors.ErrUpstreamAI.Message)
	}

	draft, err := parseSyllabusDraft(raw)
	if err != nil {
		s.metrics.ObserveExtraction(ExtractionOutcomeInvalid)
		s.logger.Warn("syllabus extraction returned unusable JSON", zap.Error(err), zap.Int("length", len(raw)))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamAI.Code, appErrors.ErrUpstreamAI.Status, "model returned an unreadable syllabus")
	}
	draft.Pages = pages
	draft.Model = s.generator.Model()

	s.metrics.ObserveExtraction(ExtractionOutcomeOK)
	s.logger.Info("syllabus extracted", zap.Int("pages", pages), zap.Int("units", len(draft.Units)), zap.Duration("elapsed", time.Since(start)))
	return draft, nil
}

func parseSyllabusDraft(raw string) (*SyllabusDraft, error) {
	var payload struct {
		Units      map[string]models.Unit `json:"units"`
		Textbooks  []string               `json:"textbooks"`
		References []string               `json:"references"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode syllabus: %w", err)
	}

	units := make(map[string]models.Unit, len(payload.Units))
	for key, unit := range payload.Units {
		key = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(key)), "unit"))
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > catalog.MaxUnit {
			continue
		}
		unit.Title = strings.TrimSpace(unit.Title)
		unit.Topics = trimNonEmpty(unit.Topics)
		if unit.Title == "" && len(unit.Topics) == 0 {
			continue
		}
		units[strconv.Itoa(n)] = unit
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("no units found")
	}

	return &SyllabusDraft{
		Units:      units,
		Textbooks:  trimNonEmpty(payload.Textbooks),
		References: trimNonEmpty(payload.References),
	}, nil
}

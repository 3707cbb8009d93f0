package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/export"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByIdentity(ctx context.Context, code, regulation string, year, semester int, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	CountResources(ctx context.Context, subject *models.Subject) (int, error)
}

type subjectOptionInvalidator interface {
	InvalidateSubjects(ctx context.Context)
}

// SubjectRequest captures the fields of a curriculum entry for create and update.
type SubjectRequest struct {
	Code       string                 `json:"code" validate:"required,subjectcode"`
	Name       string                 `json:"name" validate:"required,max=200"`
	Regulation string                 `json:"regulation" validate:"required,regulation"`
	Year       int                    `json:"year" validate:"required,year"`
	Semester   int                    `json:"semester" validate:"required,semester"`
	Branch     string                 `json:"branch" validate:"required,branch"`
	Units      map[string]models.Unit `json:"units" validate:"max=6,dive,keys,numeric,unit,endkeys"`
	Textbooks  []string               `json:"textbooks" validate:"max=20,dive,required,max=300"`
	References []string               `json:"references" validate:"max=20,dive,required,max=300"`
}

// SyllabusExport is a rendered syllabus document.
type SyllabusExport struct {
	FileName    string
	ContentType string
	Data        []byte
}

// SubjectService handles curriculum workflows.
type SubjectService struct {
	repo      subjectRepository
	options   subjectOptionInvalidator
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service. options may be nil when the filter
// option cache is not in use.
func NewSubjectService(repo subjectRepository, options subjectOptionInvalidator, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = catalog.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, options: options, audit: audit, validator: validate, logger: logger}
}

// List returns paginated subjects.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
		HasMore:    filter.Page*filter.PageSize < total,
	}
	return subjects, pagination, nil
}

// Get returns subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject ensuring its identity is unique.
func (s *SubjectService) Create(ctx context.Context, actor models.Actor, req SubjectRequest) (*models.Subject, error) {
	req = normalizeSubjectRequest(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueIdentity(ctx, req, ""); err != nil {
		return nil, err
	}

	subject := &models.Subject{}
	applySubjectRequest(subject, req)
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}

	s.curriculumChanged(ctx, actor, models.AuditActionSubjectCreate, subject.ID, nil, subjectAuditValues(subject))
	return subject, nil
}

// Update modifies an existing subject.
func (s *SubjectService) Update(ctx context.Context, actor models.Actor, id string, req SubjectRequest) (*models.Subject, error) {
	req = normalizeSubjectRequest(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueIdentity(ctx, req, id); err != nil {
		return nil, err
	}

	before := subjectAuditValues(subject)
	applySubjectRequest(subject, req)
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}

	s.curriculumChanged(ctx, actor, models.AuditActionSubjectUpdate, subject.ID, before, subjectAuditValues(subject))
	return subject, nil
}

// Delete removes a subject when no resources are filed under it.
func (s *SubjectService) Delete(ctx context.Context, actor models.Actor, id string) error {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.CountResources(ctx, subject)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject resources")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("subject has %d resources", count))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}

	s.curriculumChanged(ctx, actor, models.AuditActionSubjectDelete, id, subjectAuditValues(subject), nil)
	return nil
}

// Syllabus renders the units, textbooks and references of a subject as CSV or PDF.
func (s *SubjectService) Syllabus(ctx context.Context, id string, format export.Format) (*SyllabusExport, error) {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := export.Render(format, syllabusDataset(subject))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render syllabus")
	}
	return &SyllabusExport{
		FileName:    fmt.Sprintf("%s-%s-syllabus.%s", subject.Regulation, subject.Code, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

func (s *SubjectService) validate(req SubjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	for key, unit := range req.Units {
		if err := s.validator.Struct(unit); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unit "+key)
		}
	}
	return nil
}

func (s *SubjectService) ensureUniqueIdentity(ctx context.Context, req SubjectRequest, excludeID string) error {
	exists, err := s.repo.ExistsByIdentity(ctx, req.Code, req.Regulation, req.Year, req.Semester, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject identity")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("subject %s already exists for %s year %d semester %d", req.Code, req.Regulation, req.Year, req.Semester))
	}
	return nil
}

func (s *SubjectService) curriculumChanged(ctx context.Context, actor models.Actor, action, id string, oldValues, newValues map[string]interface{}) {
	if s.options != nil {
		s.options.InvalidateSubjects(ctx)
	}
	writeAudit(ctx, s.audit, s.logger, actor, action, "subject", id, oldValues, newValues)
}

func normalizeSubjectRequest(req SubjectRequest) SubjectRequest {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	req.Regulation = strings.ToUpper(strings.TrimSpace(req.Regulation))
	req.Branch = strings.ToUpper(strings.TrimSpace(req.Branch))
	req.Textbooks = trimNonEmpty(req.Textbooks)
	req.References = trimNonEmpty(req.References)

	units := make(map[string]models.Unit, len(req.Units))
	for key, unit := range req.Units {
		unit.Title = strings.TrimSpace(unit.Title)
		unit.Topics = trimNonEmpty(unit.Topics)
		units[strings.TrimSpace(key)] = unit
	}
	req.Units = units
	return req
}

func applySubjectRequest(subject *models.Subject, req SubjectRequest) {
	subject.Code = req.Code
	subject.Name = req.Name
	subject.Regulation = req.Regulation
	subject.Year = req.Year
	subject.Semester = req.Semester
	subject.Branch = req.Branch
	subject.Units = req.Units
	subject.Textbooks = req.Textbooks
	subject.References = req.References
}

func subjectAuditValues(subject *models.Subject) map[string]interface{} {
	return map[string]interface{}{
		"code":       subject.Code,
		"name":       subject.Name,
		"regulation": subject.Regulation,
		"year":       subject.Year,
		"semester":   subject.Semester,
		"branch":     subject.Branch,
		"units":      len(subject.Units),
	}
}

// sortedUnitKeys orders unit keys numerically.
func sortedUnitKeys(units map[string]models.Unit) []string {
	keys := make([]string, 0, len(units))
	for key := range units {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

func syllabusDataset(subject *models.Subject) export.Dataset {
	headers := []string{"Unit", "Title", "Topics"}
	rows := make([]map[string]string, 0, len(subject.Units)+len(subject.Textbooks)+len(subject.References))
	for _, key := range sortedUnitKeys(subject.Units) {
		unit := subject.Units[key]
		rows = append(rows, map[string]string{
			"Unit":   key,
			"Title":  unit.Title,
			"Topics": strings.Join(unit.Topics, "; "),
		})
	}
	for _, book := range subject.Textbooks {
		rows = append(rows, map[string]string{"Unit": "Textbook", "Title": book})
	}
	for _, book := range subject.References {
		rows = append(rows, map[string]string{"Unit": "Reference", "Title": book})
	}

	return export.Dataset{
		Title:    fmt.Sprintf("%s %s", subject.Code, subject.Name),
		Subtitle: fmt.Sprintf("%s | %s | Year %d Semester %d", subject.Regulation, subject.Branch, subject.Year, subject.Semester),
		Headers:  headers,
		Widths:   []float64{1, 2.5, 5},
		Rows:     rows,
	}
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studyhub-api/internal/catalog"
	"github.com/noah-isme/studyhub-api/internal/models"
	"github.com/noah-isme/studyhub-api/internal/search"
	appErrors "github.com/noah-isme/studyhub-api/pkg/errors"
	"github.com/noah-isme/studyhub-api/pkg/jobs"
	"github.com/noah-isme/studyhub-api/pkg/storage"
)

// JobDeleteBlob removes an object from storage after its resource row is gone.
const JobDeleteBlob = "blob.delete"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type resourceStore interface {
	Create(ctx context.Context, record *models.ResourceRecord) error
	FindByID(ctx context.Context, id string) (*models.ResourceRecord, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// UploadInput is an uploaded file with its classification.
type UploadInput struct {
	Metadata models.ResourceMetadata
	FileName string
	// Size is the size announced by the client, or -1 when unknown.
	Size int64
	File io.Reader
}

// ResourceServiceConfig tunes upload limits and download links.
type ResourceServiceConfig struct {
	MaxUploadBytes int64
	DownloadTTL    time.Duration
	APIPrefix      string
}

// ResourceService uploads, serves and removes resource files.
type ResourceService struct {
	repo       resourceStore
	store      storage.Storage
	queue      jobQueue
	audit      auditWriter
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ResourceServiceConfig
	countPages PageCounter
}

// NewResourceService creates a new resource service.
func NewResourceService(repo resourceStore, store storage.Storage, queue jobQueue, audit auditWriter, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, cfg ResourceServiceConfig) *ResourceService {
	if validate == nil {
		validate = catalog.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 25 * units.MB
	}
	if cfg.DownloadTTL <= 0 {
		cfg.DownloadTTL = 30 * time.Minute
	}
	return &ResourceService{
		repo:       repo,
		store:      store,
		queue:      queue,
		audit:      audit,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		countPages: PDFPageCount,
	}
}

// MaxUploadBytes returns the configured upload limit.
func (s *ResourceService) MaxUploadBytes() int64 {
	return s.cfg.MaxUploadBytes
}

// Upload validates the file and its metadata, stores the object and records the resource.
// The stored object is removed again when the row cannot be written.
func (s *ResourceService) Upload(ctx context.Context, actor models.Actor, in UploadInput) (*models.Resource, error) {
	meta := normalizeMetadata(in.Metadata)
	if err := s.validator.Struct(meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource metadata")
	}
	if in.File == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if in.Size > s.cfg.MaxUploadBytes {
		return nil, s.tooLarge()
	}

	data, err := io.ReadAll(io.LimitReader(in.File, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read upload")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, s.tooLarge()
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}

	fileName := sanitizeFileName(in.FileName)
	mimeType, fileType, err := s.classify(data, fileName)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	key := path.Join("resources", meta.Regulation, meta.SubjectCode, id, fileName)
	size := int64(len(data))

	if _, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        size,
		ContentType: mimeType,
		Metadata:    map[string]string{"resource-id": id},
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to store file")
	}

	downloadURL := strings.TrimRight(s.cfg.APIPrefix, "/") + "/resources/" + id + "/download"
	record := &models.ResourceRecord{
		ID:           id,
		Title:        meta.Title,
		Description:  &meta.Description,
		Tags:         meta.Tags,
		Regulation:   meta.Regulation,
		Year:         meta.Year,
		Semester:     meta.Semester,
		Branch:       meta.Branch,
		SubjectCode:  meta.SubjectCode,
		DocumentType: meta.DocumentType,
		Unit:         &meta.Unit,
		FileType:     &fileType,
		MimeType:     &mimeType,
		FileSize:     &size,
		StorageKey:   key,
		URL:          &downloadURL,
		FileName:     &fileName,
		UploadedBy:   &actor.UserID,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.rollbackObject(key, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save resource")
	}

	s.metrics.ObserveUpload(fileType, size)
	s.recordAudit(ctx, actor, models.AuditActionResourceUpload, id, nil, map[string]interface{}{
		"title":     meta.Title,
		"subject":   meta.SubjectCode,
		"file_type": fileType,
		"size":      size,
	})
	s.logger.Info("resource uploaded", zap.String("resource_id", id), zap.String("file_type", fileType), zap.String("size", units.HumanSize(float64(size))))

	res := search.ToResource(*record)
	return &res, nil
}

// Get returns one resource.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	res := search.ToResource(*record)
	return &res, nil
}

// DownloadURL returns a short lived link to the stored file.
func (s *ResourceService) DownloadURL(ctx context.Context, id string) (*models.ResourceDownload, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	link, err := s.store.PresignGet(ctx, record.StorageKey, s.cfg.DownloadTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to sign download link")
	}
	res := search.ToResource(*record)
	return &models.ResourceDownload{
		URL:       link,
		FileName:  res.FileName,
		ExpiresAt: time.Now().UTC().Add(s.cfg.DownloadTTL),
	}, nil
}

// Delete removes the resource row and schedules removal of its object.
func (s *ResourceService) Delete(ctx context.Context, actor models.Actor, id string) error {
	record, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}

	if err := s.queue.Enqueue(jobs.Job{Type: JobDeleteBlob, Payload: record.StorageKey}); err != nil {
		// the row is gone; an orphaned object is harmless but worth a log line
		s.logger.Error("schedule blob deletion failed", zap.String("resource_id", id), zap.String("key", record.StorageKey), zap.Error(err))
	}

	s.recordAudit(ctx, actor, models.AuditActionResourceDelete, id, map[string]interface{}{
		"title":   record.Title,
		"subject": record.SubjectCode,
		"key":     record.StorageKey,
	}, nil)
	return nil
}

// DeleteBlobJob is the queue handler for JobDeleteBlob.
func (s *ResourceService) DeleteBlobJob(ctx context.Context, job jobs.Job) error {
	key, ok := job.Payload.(string)
	if !ok || key == "" {
		s.logger.Warn("blob delete job without key", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Delete(ctx, key)
}

func (s *ResourceService) find(ctx context.Context, id string) (*models.ResourceRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return record, nil
}

// classify sniffs the content type and maps it to a catalog file type. Office documents
// sniff as generic containers, so only they may fall back to the file extension.
func (s *ResourceService) classify(data []byte, fileName string) (string, string, error) {
	mimeType := http.DetectContentType(data)
	if base, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = base
	}

	fileType, ok := catalog.FileTypeFor(mimeType, "")
	if !ok {
		fileType, ok = catalog.FileTypeFor("", fileName)
		if !ok || !isOfficeFileType(fileType) || !isContainerMIME(mimeType) {
			return "", "", appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("unsupported file type %s", mimeType))
		}
		mimeType = officeMIMETypes[strings.ToLower(path.Ext(fileName))]
	}

	if fileType == catalog.FileTypePDF {
		if _, err := s.countPages(data); err != nil {
			return "", "", appErrors.Wrap(err, appErrors.ErrUnsupportedMedia.Code, appErrors.ErrUnsupportedMedia.Status, "file is not a readable PDF")
		}
	}
	return mimeType, fileType, nil
}

func (s *ResourceService) tooLarge() error {
	return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds the %s upload limit", units.HumanSize(float64(s.cfg.MaxUploadBytes))))
}

func (s *ResourceService) rollbackObject(key string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("rollback stored object failed", zap.String("key", key), zap.NamedError("cause", cause), zap.Error(err))
		if qErr := s.queue.Enqueue(jobs.Job{Type: JobDeleteBlob, Payload: key}); qErr != nil {
			s.logger.Error("schedule orphan cleanup failed", zap.String("key", key), zap.Error(qErr))
		}
	}
}

func (s *ResourceService) recordAudit(ctx context.Context, actor models.Actor, action, resourceID string, oldValues, newValues map[string]interface{}) {
	writeAudit(ctx, s.audit, s.logger, actor, action, "resource", resourceID, oldValues, newValues)
}

var officeMIMETypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

func isOfficeFileType(fileType string) bool {
	return fileType == catalog.FileTypeWord || fileType == catalog.FileTypePPT
}

func isContainerMIME(mimeType string) bool {
	return mimeType == "application/zip" || mimeType == "application/octet-stream"
}

func normalizeMetadata(meta models.ResourceMetadata) models.ResourceMetadata {
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	meta.SubjectCode = strings.ToUpper(strings.TrimSpace(meta.SubjectCode))
	meta.Unit = strings.ToLower(strings.TrimSpace(meta.Unit))
	if meta.Unit == "" {
		meta.Unit = catalog.UnitAll
	}

	seen := make(map[string]struct{}, len(meta.Tags))
	tags := make([]string, 0, len(meta.Tags))
	for _, raw := range meta.Tags {
		for _, tag := range strings.Split(raw, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			lower := strings.ToLower(tag)
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			tags = append(tags, tag)
		}
	}
	meta.Tags = tags
	return meta
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	if len(name) > 120 {
		ext := path.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:120-len(ext)] + ext
	}
	return name
}

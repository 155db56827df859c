package supplier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/cache"
	"github.com/Additional-Code/fornecedor/internal/config"
	"github.com/Additional-Code/fornecedor/internal/entity"
	"github.com/Additional-Code/fornecedor/internal/messaging"
	"github.com/Additional-Code/fornecedor/internal/registry"
	repo "github.com/Additional-Code/fornecedor/internal/repository/supplier"
	"github.com/Additional-Code/fornecedor/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/fornecedor/service/supplier")

const (
	// MessageRegistryNotFound is returned when a CNPJ has no registry record.
	MessageRegistryNotFound = "CNPJ not found in the federal registry"

	msgDocumentTaken     = "The document has already been taken."
	msgDocumentRequired  = "The document field is required."
	msgTypeInvalid       = "The selected document type is invalid."
	msgLegalNameRequired = "The legal name field is required."
	msgLegalNameTooLong  = "The legal name may not be greater than 255 characters."

	maxLegalNameLength = 255
)

// Lookuper resolves a CNPJ against the public company registry.
type Lookuper interface {
	Lookup(ctx context.Context, document string) registry.Result
}

// Service encapsulates business logic around suppliers.
type Service struct {
	repo      *repo.Repository
	registry  Lookuper
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Registry   Lookuper
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := p.Cache
	if store == nil {
		store = cache.Noop()
	}
	return &Service{
		repo:      p.Repository,
		registry:  p.Registry,
		cache:     store,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// List returns one page of suppliers in id order, ten per page.
func (s *Service) List(ctx context.Context, page int) (repo.Page, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.List", trace.WithAttributes(attribute.Int("page", page)))
	defer span.End()

	result, err := s.repo.ListPaginated(ctx, page, repo.DefaultPerPage)
	if errors.Is(err, repo.ErrPageOutOfRange) {
		return repo.Page{}, pageOutOfRange()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return repo.Page{}, errorbank.Internal("failed to list suppliers", errorbank.WithCause(err))
	}
	return result, nil
}

// Search returns one page of suppliers matching every supplied filter.
func (s *Service) Search(ctx context.Context, filters repo.Filters) (repo.Page, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Search")
	defer span.End()

	if filters.DocumentType != nil && !filters.DocumentType.Valid() {
		return repo.Page{}, errorbank.Validation(map[string][]string{"document_type": {msgTypeInvalid}})
	}

	result, err := s.repo.Search(ctx, filters)
	if errors.Is(err, repo.ErrPageOutOfRange) {
		return repo.Page{}, pageOutOfRange()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return repo.Page{}, errorbank.Internal("failed to search suppliers", errorbank.WithCause(err))
	}
	return result, nil
}

// FindByType lists every supplier registered with the document type.
func (s *Service) FindByType(ctx context.Context, documentType entity.DocumentType) ([]entity.Supplier, error) {
	if !documentType.Valid() {
		return nil, errorbank.Validation(map[string][]string{"document_type": {msgTypeInvalid}})
	}
	return s.find(s.repo.FindByType(ctx, documentType))
}

// FindByCity lists suppliers whose city contains the text.
func (s *Service) FindByCity(ctx context.Context, city string) ([]entity.Supplier, error) {
	return s.find(s.repo.FindByCity(ctx, city))
}

// FindByState lists suppliers in exactly this state.
func (s *Service) FindByState(ctx context.Context, state string) ([]entity.Supplier, error) {
	return s.find(s.repo.FindByState(ctx, state))
}

func (s *Service) find(items []entity.Supplier, err error) ([]entity.Supplier, error) {
	if err != nil {
		return nil, errorbank.Internal("failed to list suppliers", errorbank.WithCause(err))
	}
	return items, nil
}

// Create registers a supplier. CNPJ suppliers are enriched from the registry,
// with client-supplied fields taking precedence over registry data.
func (s *Service) Create(ctx context.Context, input entity.SupplierFields) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Create")
	defer span.End()

	if problems := requiredForCreate(input); len(problems) > 0 {
		return nil, errorbank.Validation(problems)
	}
	span.SetAttributes(
		attribute.String("supplier.document_type", string(*input.DocumentType)),
		attribute.String("supplier.document", *input.Document),
	)

	exists, err := s.repo.ExistsByDocument(ctx, *input.Document, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to check document", errorbank.WithCause(err))
	}
	if exists {
		return nil, documentTaken()
	}

	fields := input
	if *input.DocumentType == entity.DocumentCNPJ {
		// The lookup outlives a disconnecting client.
		res := s.registry.Lookup(context.WithoutCancel(ctx), *input.Document)
		if !res.Found() {
			span.SetAttributes(attribute.Bool("registry.found", false))
			return nil, errorbank.NotFound(MessageRegistryNotFound,
				errorbank.WithDetail("document", *input.Document),
				errorbank.WithCause(res.Cause),
			)
		}
		fields = res.Company.Fields.Overlay(input)
	}

	if problems := checkLegalName(fields.LegalName, true); len(problems) > 0 {
		return nil, errorbank.Validation(problems)
	}

	supplier := fields.Supplier()
	if err := s.repo.Create(ctx, supplier); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, documentTaken()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create supplier", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, supplier)
	s.publish(ctx, EventCreated, supplier)

	return supplier, nil
}

// Get retrieves a supplier by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Get", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	if supplier, err := s.getFromCache(ctx, id); err == nil {
		return supplier, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("suppliers cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	supplier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("supplier not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load supplier", errorbank.WithCause(err))
	}

	s.storeInCache(ctx, supplier)
	return supplier, nil
}

// Update merges the present fields into an existing supplier and returns the refreshed record.
func (s *Service) Update(ctx context.Context, id int64, fields entity.SupplierFields) (*entity.Supplier, error) {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Update", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load supplier", errorbank.WithCause(err))
	}
	if existing == nil {
		return nil, errorbank.NotFound("supplier not found")
	}

	if problems := checkPresent(fields); len(problems) > 0 {
		return nil, errorbank.Validation(problems)
	}

	if fields.Document != nil {
		taken, err := s.repo.ExistsByDocument(ctx, *fields.Document, &id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return nil, errorbank.Internal("failed to check document", errorbank.WithCause(err))
		}
		if taken {
			return nil, documentTaken()
		}
	}

	if _, err := s.repo.Update(ctx, id, fields); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, errorbank.NotFound("supplier not found")
		case errors.Is(err, repo.ErrConflict):
			return nil, documentTaken()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update supplier", errorbank.WithCause(err))
	}
	s.evict(ctx, id)

	refreshed, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errorbank.Internal("failed to reload supplier", errorbank.WithCause(err))
	}

	s.publish(ctx, EventUpdated, refreshed)
	return refreshed, nil
}

// Delete hard-deletes a supplier.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "SupplierService.Delete", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to load supplier", errorbank.WithCause(err))
	}
	if existing == nil {
		return errorbank.NotFound("supplier not found")
	}

	if _, err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("supplier not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete supplier", errorbank.WithCause(err))
	}
	s.evict(ctx, id)

	s.publish(ctx, EventDeleted, existing)
	return nil
}

// CacheKey is the cache entry holding a supplier record.
func CacheKey(id int64) string {
	return fmt.Sprintf("suppliers:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Supplier, error) {
	bytes, err := s.cache.Get(ctx, CacheKey(id))
	if err != nil {
		return nil, err
	}
	var supplier entity.Supplier
	if err := json.Unmarshal(bytes, &supplier); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Service) storeInCache(ctx context.Context, supplier *entity.Supplier) {
	bytes, err := json.Marshal(supplier)
	if err == nil {
		err = s.cache.Set(ctx, CacheKey(supplier.ID), bytes, s.cacheTTL)
	}
	if err != nil {
		s.logger.Warn("suppliers cache write failed", zap.Int64("id", supplier.ID), zap.Error(err))
	}
}

func (s *Service) evict(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, CacheKey(id)); err != nil {
		s.logger.Warn("suppliers cache eviction failed", zap.Int64("id", id), zap.Error(err))
	}
}

func pageOutOfRange() *errorbank.AppError {
	return errorbank.BadRequest("page is out of range", errorbank.WithCause(repo.ErrPageOutOfRange))
}

func documentTaken() *errorbank.AppError {
	return errorbank.Validation(map[string][]string{"document": {msgDocumentTaken}})
}

func requiredForCreate(f entity.SupplierFields) map[string][]string {
	problems := map[string][]string{}
	if f.DocumentType == nil || !f.DocumentType.Valid() {
		problems["document_type"] = append(problems["document_type"], msgTypeInvalid)
	}
	if f.Document == nil || strings.TrimSpace(*f.Document) == "" {
		problems["document"] = append(problems["document"], msgDocumentRequired)
	}
	return problems
}

// checkPresent validates only the fields an update actually carries.
func checkPresent(f entity.SupplierFields) map[string][]string {
	problems := map[string][]string{}
	if f.DocumentType != nil && !f.DocumentType.Valid() {
		problems["document_type"] = append(problems["document_type"], msgTypeInvalid)
	}
	if f.Document != nil && strings.TrimSpace(*f.Document) == "" {
		problems["document"] = append(problems["document"], msgDocumentRequired)
	}
	for k, v := range checkLegalName(f.LegalName, false) {
		problems[k] = v
	}
	return problems
}

func checkLegalName(name *string, required bool) map[string][]string {
	switch {
	case name == nil && !required:
		return nil
	case name == nil || strings.TrimSpace(*name) == "":
		return map[string][]string{"legal_name": {msgLegalNameRequired}}
	case utf8.RuneCountInString(*name) > maxLegalNameLength:
		return map[string][]string{"legal_name": {msgLegalNameTooLong}}
	}
	return nil
}

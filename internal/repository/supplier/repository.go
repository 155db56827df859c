package supplier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fornecedor/internal/database"
	"github.com/Additional-Code/fornecedor/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/fornecedor/repository/supplier")

// DefaultPerPage is the page size used when callers do not ask for one.
const DefaultPerPage = 10

var (
	// ErrNotFound is returned when a supplier is missing.
	ErrNotFound = errors.New("supplier not found")
	// ErrConflict is returned when the document collides with an existing supplier.
	ErrConflict = errors.New("supplier document already registered")
	// ErrPageOutOfRange is returned when a page's offset cannot be represented.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Page is one slice of an ordered supplier listing.
type Page struct {
	Items       []entity.Supplier
	Total       int
	CurrentPage int
	PerPage     int
}

// LastPage returns the number of the final page, never less than 1.
func (p Page) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) String() string {
	return fmt.Sprintf("page %d/%d (%d per page, %d total)", p.CurrentPage, p.LastPage(), p.PerPage, p.Total)
}

// PageInRange reports whether page can be addressed with perPage rows per page
// without offset plus limit overflowing an int.
func PageInRange(page, perPage int) bool {
	if page < 1 || perPage < 1 {
		return false
	}
	return page-1 <= (math.MaxInt-perPage)/perPage
}

// Filters narrows Search. Nil filters impose no constraint.
type Filters struct {
	DocumentType *entity.DocumentType
	City         *string
	State        *string
	LegalName    *string
	TradeName    *string
	Page         int
	PerPage      int
}

// Repository encapsulates read/write access for suppliers.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// ListPaginated returns suppliers in id order.
func (r *Repository) ListPaginated(ctx context.Context, page, perPage int) (Page, error) {
	return r.Search(ctx, Filters{Page: page, PerPage: perPage})
}

// GetByID fetches a supplier by primary key using the read replica when available.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.GetByID", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	supplier := new(entity.Supplier)
	err := r.reader.NewSelect().Model(supplier).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return supplier, nil
}

// FindByID is GetByID without the not-found error; a missing supplier yields (nil, nil).
func (r *Repository) FindByID(ctx context.Context, id int64) (*entity.Supplier, error) {
	supplier, err := r.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return supplier, err
}

// GetByDocument fetches the supplier registered with exactly this document, or nil.
func (r *Repository) GetByDocument(ctx context.Context, document string) (*entity.Supplier, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.GetByDocument")
	defer span.End()

	supplier := new(entity.Supplier)
	err := r.reader.NewSelect().Model(supplier).Where("document = ?", document).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return supplier, nil
}

// ExistsByDocument reports whether a supplier other than excludeID holds the document.
func (r *Repository) ExistsByDocument(ctx context.Context, document string, excludeID *int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.ExistsByDocument")
	defer span.End()

	q := r.reader.NewSelect().Model((*entity.Supplier)(nil)).Where("document = ?", document)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	exists, err := q.Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists failed")
	}
	return exists, err
}

// Create persists a new supplier using the write connection. The unique
// constraint on document is the only duplicate guard here.
func (r *Repository) Create(ctx context.Context, supplier *entity.Supplier) error {
	if supplier == nil {
		return errors.New("nil supplier")
	}
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.Create", trace.WithAttributes(
		attribute.String("supplier.document_type", string(supplier.DocumentType)),
	))
	defer span.End()

	if supplier.CreatedAt.IsZero() {
		now := time.Now().UTC()
		supplier.CreatedAt = now
		supplier.UpdatedAt = now
	}

	_, err := r.writer.NewInsert().Model(supplier).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		if database.IsUniqueViolation(err) {
			return ErrConflict
		}
	}
	return err
}

// Update merges the present fields into the stored supplier.
func (r *Repository) Update(ctx context.Context, id int64, fields entity.SupplierFields) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.Update", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	supplier := new(entity.Supplier)
	err := r.writer.NewSelect().Model(supplier).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return false, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return false, err
	}

	fields.ApplyTo(supplier)
	supplier.UpdatedAt = time.Now().UTC()

	res, err := r.writer.NewUpdate().Model(supplier).WherePK().Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		if database.IsUniqueViolation(err) {
			return false, ErrConflict
		}
		return false, err
	}
	return affected(res), nil
}

// Delete hard-deletes a supplier.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.Delete", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Supplier)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, err
	}
	if !affected(res) {
		span.SetStatus(codes.Error, "not found")
		return false, ErrNotFound
	}
	return true, nil
}

// FindByType lists suppliers registered with the given document type.
func (r *Repository) FindByType(ctx context.Context, documentType entity.DocumentType) ([]entity.Supplier, error) {
	return r.findWhere(ctx, "SupplierRepository.FindByType", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("document_type = ?", documentType)
	})
}

// FindByCity lists suppliers whose city contains the case-sensitive substring.
func (r *Repository) FindByCity(ctx context.Context, city string) ([]entity.Supplier, error) {
	return r.findWhere(ctx, "SupplierRepository.FindByCity", func(q *bun.SelectQuery) *bun.SelectQuery {
		return r.whereContains(q, "city", city)
	})
}

// FindByState lists suppliers located in exactly the given state.
func (r *Repository) FindByState(ctx context.Context, state string) ([]entity.Supplier, error) {
	return r.findWhere(ctx, "SupplierRepository.FindByState", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("state = ?", state)
	})
}

// Search pages through suppliers matching every present filter.
func (r *Repository) Search(ctx context.Context, filters Filters) (Page, error) {
	ctx, span := repoTracer.Start(ctx, "SupplierRepository.Search")
	defer span.End()

	page, perPage := filters.Page, filters.PerPage
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	span.SetAttributes(attribute.Int("page", page), attribute.Int("per_page", perPage))
	if !PageInRange(page, perPage) {
		span.SetStatus(codes.Error, "page out of range")
		return Page{}, ErrPageOutOfRange
	}

	var items []entity.Supplier
	q := r.reader.NewSelect().Model(&items)
	if filters.DocumentType != nil {
		q = q.Where("document_type = ?", *filters.DocumentType)
	}
	if filters.City != nil {
		q = r.whereContains(q, "city", *filters.City)
	}
	if filters.State != nil {
		q = q.Where("state = ?", *filters.State)
	}
	if filters.LegalName != nil {
		q = r.whereContains(q, "legal_name", *filters.LegalName)
	}
	if filters.TradeName != nil {
		q = r.whereContains(q, "trade_name", *filters.TradeName)
	}

	total, err := q.Order("id ASC").Limit(perPage).Offset((page - 1) * perPage).ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return Page{}, err
	}
	if items == nil {
		items = []entity.Supplier{}
	}

	return Page{Items: items, Total: total, CurrentPage: page, PerPage: perPage}, nil
}

func (r *Repository) findWhere(ctx context.Context, op string, where func(*bun.SelectQuery) *bun.SelectQuery) ([]entity.Supplier, error) {
	ctx, span := repoTracer.Start(ctx, op)
	defer span.End()

	items := []entity.Supplier{}
	if err := where(r.reader.NewSelect().Model(&items)).Order("id ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// whereContains adds a case-sensitive, wildcard-free substring match on column.
func (r *Repository) whereContains(q *bun.SelectQuery, column, value string) *bun.SelectQuery {
	switch r.reader.Dialect().Name() {
	case dialect.PG:
		return q.Where("strpos(?, ?) > 0", bun.Ident(column), value)
	case dialect.MySQL:
		return q.Where("INSTR(BINARY ?, ?) > 0", bun.Ident(column), value)
	default:
		return q.Where("instr(?, ?) > 0", bun.Ident(column), value)
	}
}

func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}

package supplier

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fornecedor/internal/dto"
	"github.com/Additional-Code/fornecedor/internal/entity"
	"github.com/Additional-Code/fornecedor/internal/presentation/http/response"
	repo "github.com/Additional-Code/fornecedor/internal/repository/supplier"
	service "github.com/Additional-Code/fornecedor/internal/service/supplier"
	"github.com/Additional-Code/fornecedor/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/fornecedor/transport/http/supplier")

const (
	maxPerPage     = 100
	removedMessage = "Supplier removed successfully"
)

// searchParams are the query parameters that switch listing into filtered search.
var searchParams = []string{"document_type", "city", "state", "legal_name", "trade_name", "per_page"}

// Handler exposes supplier endpoints over HTTP.
type Handler struct {
	svc      *service.Service
	validate *validator.Validate
}

// NewHandler constructs a supplier Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc, validate: newValidator()}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/fornecedores")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.getByID)
	g.PUT("/:id", h.update)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	page := 1
	perPage := repo.DefaultPerPage
	if err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("per_page", &perPage).
		BindError(); err != nil {
		return b.WithError(errorbank.BadRequest("invalid query parameters", errorbank.WithCause(err))).Build()
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxPerPage {
		return b.WithError(errorbank.BadRequest("per_page must be between 1 and 100")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.list", trace.WithAttributes(attribute.Int("page", page)))
	defer span.End()

	var (
		result repo.Page
		err    error
	)
	if filtered(c) {
		result, err = h.svc.Search(ctx, repo.Filters{
			DocumentType: documentType(query(c, "document_type")),
			City:         query(c, "city"),
			State:        query(c, "state"),
			LegalName:    query(c, "legal_name"),
			TradeName:    query(c, "trade_name"),
			Page:         page,
			PerPage:      perPage,
		})
	} else {
		result, err = h.svc.List(ctx, page)
	}
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toPage(result)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	req.normalize()
	if err := h.validate.Struct(req); err != nil {
		return b.WithError(validationError(err)).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.create", trace.WithAttributes(
		attribute.String("supplier.document_type", *req.DocumentType),
	))
	defer span.End()

	created, err := h.svc.Create(ctx, req.fields())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(toDTO(created)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.getByID", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	supplier, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(supplier)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.update", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	// A missing supplier answers 404 whatever the body holds.
	if _, err := h.svc.Get(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	req.normalize()
	if err := req.validate(h.validate); err != nil {
		return b.WithError(err).Build()
	}

	updated, err := h.svc.Update(ctx, id, req.fields())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTO(updated)).Build()
}

func (h *Handler) delete(c echo.Context) error {
	b := response.New(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "suppliers.delete", trace.WithAttributes(attribute.Int64("supplier.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.Message{Message: removedMessage}).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errorbank.NotFound("supplier not found", errorbank.WithCause(err))
	}
	return id, nil
}

func filtered(c echo.Context) bool {
	params := c.QueryParams()
	for _, name := range searchParams {
		if params.Has(name) {
			return true
		}
	}
	return false
}

func query(c echo.Context, name string) *string {
	if !c.QueryParams().Has(name) {
		return nil
	}
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	return &v
}

func toPage(p repo.Page) dto.SupplierPage {
	items := make([]dto.SupplierResponse, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, toDTO(&p.Items[i]))
	}
	return dto.SupplierPage{
		Data:        items,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		LastPage:    p.LastPage(),
	}
}

func toDTO(s *entity.Supplier) dto.SupplierResponse {
	out := dto.SupplierResponse{
		ID:           s.ID,
		DocumentType: string(s.DocumentType),
		Document:     s.Document,
		LegalName:    s.LegalName,
		TradeName:    s.TradeName,
		Email:        s.Email,
		Phone:        s.Phone,
		PostalCode:   s.PostalCode,
		Street:       s.Street,
		Number:       s.Number,
		Complement:   s.Complement,
		District:     s.District,
		City:         s.City,
		State:        s.State,
		CreatedAt:    s.CreatedAt,
	}
	if !s.UpdatedAt.IsZero() {
		updated := s.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}

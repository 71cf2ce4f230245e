// Package rest provides HTTP handlers for bank product operations.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	perrors "github.com/abgdnv/bankproduct/internal/errors"
	"github.com/abgdnv/bankproduct/internal/service"
	"github.com/abgdnv/bankproduct/pkg/logger"
	"github.com/abgdnv/bankproduct/pkg/web"
	"github.com/go-chi/chi/v5"
)

// productsPath is the collection path; product locations are productsPath + "/" + id.
const productsPath = "/api/products"

type Handler struct {
	service service.ProductService
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler creates a new Handler serving the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.With("component", "rest"),
		now:     time.Now,
	}
}

// RegisterRoutes registers the HTTP routes for the bank product service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(productsPath, func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAll streams every product as a JSON array.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.DebugContext(ctx, "Received request to find all products")

	count, err := web.StreamJSONArray(w, http.StatusOK, h.service.FindAll(ctx))
	if err != nil {
		if count == 0 {
			h.logger.ErrorContext(ctx, "Error retrieving product list", "error", err)
			web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
			return
		}
		// the status line is already out; cut the connection so the client sees a truncated body
		h.logger.ErrorContext(ctx, "Product list aborted while streaming", "count", count, "error", err)
		panic(http.ErrAbortHandler)
	}
	h.logger.DebugContext(ctx, "Successfully streamed product list", "count", count)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(w, r, h.logger)
	if !ok {
		return
	}
	ctx := logger.AppendAttrs(r.Context(), slog.String("product_id", id))

	h.logger.DebugContext(ctx, "Received request to find product by ID")
	found, err := h.service.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			h.logger.WarnContext(ctx, "Product not found")
			web.RespondEmpty(w, http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Error retrieving product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve product with ID "+id)
		return
	}
	h.logger.DebugContext(ctx, "Successfully retrieved product", "name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create validates and stores a new product.
// Decoding and validation failures are answered with the same 400 envelope.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	response := newCreateResponse(h.now())

	dto, decodeErrs, complete := decodeCreate(r.Body)
	if len(decodeErrs) > 0 {
		fieldErrs := decodeErrs
		if complete {
			fieldErrs = mergeFieldErrors(decodeErrs, h.service.Validate(dto))
		}
		h.logger.WarnContext(ctx, "Invalid create request", "errors", fieldErrs)
		web.RespondJSON(w, h.logger, http.StatusBadRequest, response.rejected(http.StatusBadRequest, fieldErrs))
		return
	}
	h.logger.DebugContext(ctx, "Received request to create product", "name", dto.Name, "productType", dto.ProductType)

	created, err := h.service.Create(ctx, dto)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			h.logger.WarnContext(ctx, "Validation errors occurred", "errors", validationErr.Messages())
			web.RespondJSON(w, h.logger, http.StatusBadRequest, response.rejected(http.StatusBadRequest, validationErr.Errors))
			return
		}
		h.logger.ErrorContext(ctx, "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.logger.InfoContext(ctx, "Product created successfully", "product_id", created.ID, "name", created.Name)
	w.Header().Set("Location", productLocation(created.ID))
	web.RespondJSON(w, h.logger, http.StatusCreated, response.created(created))
}

// Update replaces the mutable fields of an existing product.
// Answers 201 with the product location, as the create endpoint does.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(w, r, h.logger)
	if !ok {
		return
	}
	ctx := logger.AppendAttrs(r.Context(), slog.String("product_id", id))

	h.logger.DebugContext(ctx, "Received request to update product")
	var dto service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.WarnContext(ctx, "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(ctx, id, dto)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			h.logger.WarnContext(ctx, "Product not found for update")
			web.RespondEmpty(w, http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Error updating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to update product with ID "+id)
		return
	}
	h.logger.InfoContext(ctx, "Product updated successfully", "name", updated.Name)
	w.Header().Set("Location", productLocation(updated.ID))
	web.RespondJSON(w, h.logger, http.StatusCreated, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.PathID(w, r, h.logger)
	if !ok {
		return
	}
	ctx := logger.AppendAttrs(r.Context(), slog.String("product_id", id))

	h.logger.DebugContext(ctx, "Received request to delete product")
	if err := h.service.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			h.logger.WarnContext(ctx, "Product not found for deletion")
			web.RespondEmpty(w, http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "Error deleting product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to delete product with ID "+id)
		return
	}
	h.logger.InfoContext(ctx, "Product deleted successfully")
	web.RespondEmpty(w, http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func productLocation(id string) string {
	return productsPath + "/" + id
}

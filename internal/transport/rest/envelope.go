package rest

import (
	"time"

	"github.com/abgdnv/bankproduct/internal/service"
)

// createdMessage is returned alongside a newly created product.
const createdMessage = "Producto creado con éxito"

// createResponse is the body of every create response. The timestamp is fixed when the
// request arrives; the remaining fields are filled in by the outcome.
type createResponse struct {
	Producto  *service.ProductDto `json:"producto,omitempty"`
	Mensaje   string              `json:"mensaje,omitempty"`
	Errors    []string            `json:"errors,omitempty"`
	Status    int                 `json:"status,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

func newCreateResponse(now time.Time) *createResponse {
	return &createResponse{Timestamp: now}
}

func (c *createResponse) created(product *service.ProductDto) *createResponse {
	c.Producto = product
	c.Mensaje = createdMessage
	return c
}

func (c *createResponse) rejected(status int, fieldErrors []service.FieldError) *createResponse {
	c.Status = status
	c.Errors = make([]string, len(fieldErrors))
	for i, fe := range fieldErrors {
		c.Errors[i] = fe.String()
	}
	return c
}

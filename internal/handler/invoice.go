package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orbit-studio/orbit-api/internal/repository"
)

// InvoiceHandler allocates invoice numbers. Invoice records themselves
// live outside this service; only the numbering sequence needs the
// transactional guarantee, so only it is exposed here.
type InvoiceHandler struct {
	Sequences *repository.SequenceRepo
}

func NewInvoiceHandler(s *repository.SequenceRepo) *InvoiceHandler {
	return &InvoiceHandler{Sequences: s}
}

// NextNumber reserves the next invoice number for the current year.
func (h *InvoiceHandler) NextNumber(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	number, err := h.Sequences.NextInvoiceNumber(ctx, time.Now().UTC().Year())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocate invoice number failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoiceNumber": number})
}

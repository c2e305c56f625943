package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/amirphl/civic-portal/app/dto"
	businessflow "github.com/amirphl/civic-portal/business_flow"
)

// SequenceAdminHandlerInterface defines the contract for counter administration handlers
type SequenceAdminHandlerInterface interface {
	List(c fiber.Ctx) error
	Export(c fiber.Ctx) error
	Import(c fiber.Ctx) error
}

// SequenceAdminHandler serves the admin counter endpoints
type SequenceAdminHandler struct {
	baseHandler
	flow businessflow.SequenceAdminFlow
}

// NewSequenceAdminHandler creates a new sequence admin handler
func NewSequenceAdminHandler(flow businessflow.SequenceAdminFlow, requestTimeout time.Duration) *SequenceAdminHandler {
	return &SequenceAdminHandler{
		baseHandler: newBaseHandler(requestTimeout),
		flow:        flow,
	}
}

// List Counters
// @Description List every counter with its remaining capacity
// @Tags Admin Sequences
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListSequenceCountersResponse}
// @Router /api/v1/admin/sequences [get]
func (h *SequenceAdminHandler) List(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/sequences")
	defer cancel()

	result, err := h.flow.ListCounters(ctx)
	if err != nil {
		return h.flowError(c, err, "Failed to list counters", "LIST_COUNTERS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Counters retrieved successfully", result)
}

// Export Counters
// @Description Download all counters as an Excel workbook
// @Tags Admin Sequences
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /api/v1/admin/sequences/export [get]
func (h *SequenceAdminHandler) Export(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/sequences/export")
	defer cancel()

	filename, content, err := h.flow.ExportCounters(ctx)
	if err != nil {
		return h.flowError(c, err, "Failed to export counters", "EXPORT_COUNTERS_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(content)
}

// Import Counters
// @Description Raise counters, e.g. when migrating numbering from a previous system. Counters are never lowered.
// @Tags Admin Sequences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ImportSequenceCountersRequest true "Counters"
// @Success 200 {object} dto.APIResponse{data=dto.ImportSequenceCountersResponse}
// @Router /api/v1/admin/sequences/import [post]
func (h *SequenceAdminHandler) Import(c fiber.Ctx) error {
	var req dto.ImportSequenceCountersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if problems := h.validate(&req); problems != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", problems)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/admin/sequences/import")
	defer cancel()

	result, err := h.flow.ImportCounters(ctx, &req, h.clientMetadata(c))
	if err != nil {
		return h.flowError(c, err, "Failed to import counters", "IMPORT_COUNTERS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Counters imported successfully", result)
}

package handlers

import (
	"net/http"

	"invoicelink/internal/common"
	"invoicelink/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers exposes the account audit trail to administrators
type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// GetAccountHistory handles GET /admin/accounts/:id/history. It also answers
// for rejected accounts, whose only remaining trace is their history.
//
//	@Summary	Lifecycle history of an account
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{array}		models.AuditLog
//	@Router		/admin/accounts/{id}/history [get]
func (h *AuditLogsHandlers) GetAccountHistory(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	logs, err := h.auditLogsService.GetAccountHistory(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, "history", err)
	}
	return c.JSON(http.StatusOK, logs)
}

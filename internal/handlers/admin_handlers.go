package handlers

import (
	"context"
	"net/http"

	"invoicelink/internal/common"
	"invoicelink/internal/directory"
	"invoicelink/internal/models"
	"invoicelink/internal/services"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// AdminHandlers serves the account administration endpoints. Every route is
// mounted behind RequireAdmin.
type AdminHandlers struct {
	accountService services.AccountService
	clock          clockwork.Clock
}

func NewAdminHandlers(accountService services.AccountService, clock clockwork.Clock) *AdminHandlers {
	return &AdminHandlers{accountService: accountService, clock: clock}
}

type SubscriptionAmountRequest struct {
	Amount decimal.Decimal `json:"amount" swaggertype:"string" example:"19.99"`
}

// ListAccounts handles GET /admin/accounts
//
//	@Summary	Search accounts
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		q		query		string	false	"Matches name, business name or email"
//	@Param		status	query		string	false	"all|pending|approved|trial|active|canceled"
//	@Success	200		{array}		AccountView
//	@Router		/admin/accounts [get]
func (h *AdminHandlers) ListAccounts(c echo.Context) error {
	status, err := directory.ParseAccountStatus(c.QueryParam("status"))
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}

	accounts, err := h.accountService.ListAccounts(c.Request().Context(), directory.AccountQuery{
		Text:   c.QueryParam("q"),
		Status: status,
	})
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.JSON(http.StatusOK, newAccountViews(accounts, h.clock.Now()))
}

// GetStats handles GET /admin/accounts/stats
//
//	@Summary	Account counts for the admin header
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	services.AccountStats
//	@Router		/admin/accounts/stats [get]
func (h *AdminHandlers) GetStats(c echo.Context) error {
	stats, err := h.accountService.GetStats(c.Request().Context())
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetAccount handles GET /admin/accounts/:id
func (h *AdminHandlers) GetAccount(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	acc, err := h.accountService.GetAccount(c.Request().Context(), id)
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.JSON(http.StatusOK, newAccountView(acc, h.clock.Now()))
}

// Approve handles POST /admin/accounts/:id/approve
//
//	@Summary	Approve a pending registration and start its trial
//	@Tags		admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	AccountView
//	@Failure	409	{object}	common.ErrorResponse
//	@Router		/admin/accounts/{id}/approve [post]
func (h *AdminHandlers) Approve(c echo.Context) error {
	return h.transition(c, h.accountService.Approve)
}

// Activate handles POST /admin/accounts/:id/activate
//
//	@Summary	Convert a trial into an active subscription
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	AccountView
//	@Router		/admin/accounts/{id}/activate [post]
func (h *AdminHandlers) Activate(c echo.Context) error {
	return h.transition(c, h.accountService.Activate)
}

// Cancel handles POST /admin/accounts/:id/cancel
//
//	@Summary	Cancel a trial or active subscription
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	AccountView
//	@Router		/admin/accounts/{id}/cancel [post]
func (h *AdminHandlers) Cancel(c echo.Context) error {
	return h.transition(c, h.accountService.Cancel)
}

// Reject handles POST /admin/accounts/:id/reject
//
//	@Summary	Reject and remove a pending registration
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Account ID"
//	@Success	204
//	@Router		/admin/accounts/{id}/reject [post]
func (h *AdminHandlers) Reject(c echo.Context) error {
	actor, id, done, err := h.target(c)
	if done {
		return err
	}
	if err := h.accountService.Reject(c.Request().Context(), actor, id); err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetSubscriptionAmount handles PUT /admin/accounts/:id/subscription
//
//	@Summary	Change the monthly subscription amount
//	@Tags		admin
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string						true	"Account ID"
//	@Param		body	body		SubscriptionAmountRequest	true	"New amount"
//	@Success	200		{object}	AccountView
//	@Failure	400		{object}	common.ErrorResponse
//	@Router		/admin/accounts/{id}/subscription [put]
func (h *AdminHandlers) SetSubscriptionAmount(c echo.Context) error {
	var req SubscriptionAmountRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, common.CreateErrorResponse("INVALID_AMOUNT", "Amount must be a number", nil))
	}
	return h.transition(c, func(ctx context.Context, actor, id uuid.UUID) (*models.Account, error) {
		return h.accountService.SetSubscriptionAmount(ctx, actor, id, req.Amount)
	})
}

func (h *AdminHandlers) transition(c echo.Context, fn func(ctx context.Context, actor, id uuid.UUID) (*models.Account, error)) error {
	actor, id, done, err := h.target(c)
	if done {
		return err
	}
	acc, err := fn(c.Request().Context(), actor, id)
	if err != nil {
		return common.SendDomainError(c, "account", err)
	}
	return c.JSON(http.StatusOK, newAccountView(acc, h.clock.Now()))
}

// target resolves the acting admin and the account in the path. When done
// is true the response has already been written and err is its result.
func (h *AdminHandlers) target(c echo.Context) (actor, id uuid.UUID, done bool, err error) {
	actor, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, uuid.Nil, true, common.SendUnauthorizedError(c)
	}
	id, parseErr := common.ValidateUUID(c.Param("id"), "id")
	if parseErr != nil {
		return uuid.Nil, uuid.Nil, true, common.SendValidationError(c, "id", parseErr.Error())
	}
	return actor, id, false, nil
}

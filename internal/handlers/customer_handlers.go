package handlers

import (
	"net/http"

	"invoicelink/internal/common"
	"invoicelink/internal/services"

	"github.com/labstack/echo/v4"
)

type CustomerHandlers struct {
	customerService services.CustomerService
}

func NewCustomerHandlers(customerService services.CustomerService) *CustomerHandlers {
	return &CustomerHandlers{customerService: customerService}
}

// CreateCustomer handles POST /customers
//
//	@Summary	Add a customer
//	@Tags		customers
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		services.CreateCustomerRequest	true	"Customer"
//	@Success	201		{object}	models.Customer
//	@Router		/customers [post]
func (h *CustomerHandlers) CreateCustomer(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.CreateCustomerRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	customer, err := h.customerService.CreateCustomer(c.Request().Context(), accountID, &req)
	if err != nil {
		return common.SendDomainError(c, "customer", err)
	}
	return c.JSON(http.StatusCreated, customer)
}

// ListCustomers handles GET /customers
//
//	@Summary	List customers
//	@Tags		customers
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}	models.Customer
//	@Router		/customers [get]
func (h *CustomerHandlers) ListCustomers(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	customers, err := h.customerService.ListCustomers(c.Request().Context(), accountID)
	if err != nil {
		return common.SendDomainError(c, "customer", err)
	}
	return c.JSON(http.StatusOK, customers)
}

// GetCustomer handles GET /customers/:id
func (h *CustomerHandlers) GetCustomer(c echo.Context) error {
	accountID, ok := common.GetAccountIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	customer, err := h.customerService.GetCustomer(c.Request().Context(), accountID, id)
	if err != nil {
		return common.SendDomainError(c, "customer", err)
	}
	return c.JSON(http.StatusOK, customer)
}

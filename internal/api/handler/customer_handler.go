package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/crmdesk/crm-api/internal/api/metrics"
	"github.com/crmdesk/crm-api/internal/core/domain"
	"github.com/crmdesk/crm-api/internal/core/ports"
	"github.com/crmdesk/crm-api/internal/core/schema"
)

// CustomerHandler handles HTTP requests for customer operations. Every route
// sits behind middleware.RequireSession.
type CustomerHandler struct {
	service ports.CustomerService
}

func NewCustomerHandler(service ports.CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// Create godoc
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      schema.CustomerPayload  true  "Customer fields"
// @Success      201   {object}  domain.Customer
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c echo.Context) error {
	fields, err := bindCustomer(c)
	if err != nil {
		return err
	}

	customer, err := h.service.CreateCustomer(c.Request().Context(), fields)
	if err != nil {
		return err
	}
	metrics.CustomerMutationsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, customer)
}

// List godoc
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Customer
// @Failure      401  {object}  messageResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c echo.Context) error {
	customers, err := h.service.ListCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

// Get godoc
// @Summary      Get a customer by id
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Customer id"
// @Success      200  {object}  domain.Customer
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	customer, err := h.service.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

// Update godoc
// @Summary      Replace a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                     true  "Customer id"
// @Param        body  body      schema.CustomerPayload  true  "Customer fields"
// @Success      200   {object}  domain.Customer
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /api/customers/{id} [put]
func (h *CustomerHandler) Update(c echo.Context) error {
	fields, err := bindCustomer(c)
	if err != nil {
		return err
	}
	id, err := customerID(c)
	if err != nil {
		return err
	}

	customer, err := h.service.UpdateCustomer(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}
	metrics.CustomerMutationsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, customer)
}

// Delete godoc
// @Summary      Delete a customer
// @Tags         customers
// @Security     BearerAuth
// @Param        id   path  int  true  "Customer id"
// @Success      204
// @Failure      401  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := customerID(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteCustomer(c.Request().Context(), id); err != nil {
		return err
	}
	metrics.CustomerMutationsTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Stats godoc
// @Summary      Customer statistics
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CustomerStats
// @Failure      401  {object}  messageResponse
// @Router       /api/customers/stats [get]
func (h *CustomerHandler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// customerID parses the :id path parameter. Anything that is not a positive
// integer cannot name a customer, so it is reported as not found.
func customerID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrCustomerNotFound
	}
	return id, nil
}

func bindCustomer(c echo.Context) (domain.CustomerFields, error) {
	var req schema.CustomerPayload
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return domain.CustomerFields{}, errInvalidBody()
	}
	return schema.ValidateInsertCustomer(req)
}

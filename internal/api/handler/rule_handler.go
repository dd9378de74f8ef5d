package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

// RuleHandler handles HTTP requests for rule CRUD operations.
type RuleHandler struct {
	service ports.RuleService
}

func NewRuleHandler(service ports.RuleService) *RuleHandler {
	return &RuleHandler{service: service}
}

type createRuleRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

type updateRuleRequest struct {
	Title       *string `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalPages int   `json:"total_pages"`
}

type listRulesResponse struct {
	Data       []*domain.Rule     `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

// Create handles POST /rules.
//
// @Summary      Create a rule
// @Tags         rules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createRuleRequest  true  "Rule details"
// @Success      201   {object}  domain.Rule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /rules [post]
func (h *RuleHandler) Create(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	var req createRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rule, err := h.service.Create(c.Request().Context(), ports.CreateRuleInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusCreated, rule)
}

// Get handles GET /rules/:id.
//
// @Summary      Get a rule
// @Tags         rules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  domain.Rule
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /rules/{id} [get]
func (h *RuleHandler) Get(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	rule, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

// List handles GET /rules with optional status, date range, and pagination
// query parameters.
//
// @Summary      List rules
// @Tags         rules
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (active|archived)"
// @Param        from    query     string  false  "Created at or after (RFC 3339)"
// @Param        to      query     string  false  "Created at or before (RFC 3339)"
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        size    query     int     false  "Page size"
// @Success      200     {object}  listRulesResponse
// @Failure      400     {object}  map[string]string
// @Router       /rules [get]
func (h *RuleHandler) List(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.service.List(c.Request().Context(), ports.ListRulesInput{
		UserID: userID,
		Status: c.QueryParam("status"),
		From:   from,
		To:     to,
		Page:   queryInt(c, "page"),
		Size:   queryInt(c, "size"),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, listRulesResponse{
		Data: result.Items,
		Pagination: paginationResponse{
			Total:      result.Total,
			Page:       result.Page,
			Size:       result.Size,
			TotalPages: result.TotalPages,
		},
	})
}

// Update handles PUT /rules/:id. Absent fields are left untouched.
//
// @Summary      Update a rule
// @Tags         rules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Rule ID"
// @Param        body  body      updateRuleRequest  true  "Fields to update"
// @Success      200   {object}  domain.Rule
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /rules/{id} [put]
func (h *RuleHandler) Update(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	var req updateRuleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	rule, err := h.service.Update(c.Request().Context(), userID, c.Param("id"), ports.RulePatch{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

// Archive handles POST /rules/:id/archive. Rules are never hard-deleted;
// archiving keeps their event history intact.
//
// @Summary      Archive a rule
// @Tags         rules
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Rule ID"
// @Success      200  {object}  domain.Rule
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /rules/{id}/archive [post]
func (h *RuleHandler) Archive(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	rule, err := h.service.Archive(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return ruleError(c, err)
	}
	return c.JSON(http.StatusOK, rule)
}

// ruleError maps rule service errors onto HTTP responses.
func ruleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrRuleNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "rule not found"})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "access forbidden"})
	case errors.Is(err, domain.ErrRuleArchived):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// parseDateRange reads the optional from/to query parameters as RFC 3339
// timestamps.
func parseDateRange(c echo.Context) (from, to time.Time, err error) {
	if raw := c.QueryParam("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be an RFC 3339 timestamp")
		}
	}
	if raw := c.QueryParam("to"); raw != "" {
		to, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be an RFC 3339 timestamp")
		}
	}
	return from, to, nil
}

// queryInt reads an integer query parameter, returning 0 when absent or
// unparsable so the service applies its defaults.
func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

// RuleEventHandler handles HTTP requests for logging and browsing rule events.
type RuleEventHandler struct {
	service ports.RuleEventService
}

func NewRuleEventHandler(service ports.RuleEventService) *RuleEventHandler {
	return &RuleEventHandler{service: service}
}

type createEventRequest struct {
	RuleID  string `json:"rule_id" validate:"required"`
	Type    string `json:"type"    validate:"required,oneof=respected broken"`
	Context string `json:"context" validate:"max=500"`
	Emotion string `json:"emotion" validate:"max=100"`
	Note    string `json:"note"    validate:"max=2000"`
}

type updateEventRequest struct {
	Type    *string `json:"type"    validate:"omitempty,oneof=respected broken"`
	Context *string `json:"context" validate:"omitempty,max=500"`
	Emotion *string `json:"emotion" validate:"omitempty,max=100"`
	Note    *string `json:"note"    validate:"omitempty,max=2000"`
}

type eventDetailResponse struct {
	Event *domain.RuleEvent `json:"event"`
	Rule  *domain.Rule      `json:"rule"`
}

type listEventsResponse struct {
	Data       []*domain.RuleEvent `json:"data"`
	Pagination paginationResponse  `json:"pagination"`
}

// Create handles POST /rule-events. The occurrence timestamp is set
// server-side at receipt time.
//
// @Summary      Log a rule event
// @Tags         rule-events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createEventRequest  true  "Event details"
// @Success      201   {object}  domain.RuleEvent
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /rule-events [post]
func (h *RuleEventHandler) Create(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	event, err := h.service.Create(c.Request().Context(), ports.CreateEventInput{
		UserID:  userID,
		RuleID:  req.RuleID,
		Type:    domain.EventType(req.Type),
		Context: req.Context,
		Emotion: req.Emotion,
		Note:    req.Note,
	})
	if err != nil {
		return eventError(c, err)
	}

	return c.JSON(http.StatusCreated, event)
}

// Get handles GET /rule-events/:id and returns the event together with its
// rule.
//
// @Summary      Get a rule event
// @Tags         rule-events
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Event ID"
// @Success      200  {object}  eventDetailResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /rule-events/{id} [get]
func (h *RuleEventHandler) Get(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	detail, err := h.service.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, eventDetailResponse{Event: detail.Event, Rule: detail.Rule})
}

// List handles GET /rule-events with optional rule, type, date range, and
// pagination query parameters.
//
// @Summary      List rule events
// @Tags         rule-events
// @Produce      json
// @Security     BearerAuth
// @Param        rule_id  query     string  false  "Scope to one rule"
// @Param        type     query     string  false  "Filter by type (respected|broken)"
// @Param        from     query     string  false  "Occurred at or after (RFC 3339)"
// @Param        to       query     string  false  "Occurred at or before (RFC 3339)"
// @Param        page     query     int     false  "Page number (1-based)"
// @Param        size     query     int     false  "Page size"
// @Success      200      {object}  listEventsResponse
// @Failure      400      {object}  map[string]string
// @Router       /rule-events [get]
func (h *RuleEventHandler) List(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	from, to, err := parseDateRange(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.service.List(c.Request().Context(), ports.ListEventsInput{
		UserID: userID,
		RuleID: c.QueryParam("rule_id"),
		Type:   c.QueryParam("type"),
		From:   from,
		To:     to,
		Page:   queryInt(c, "page"),
		Size:   queryInt(c, "size"),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, listEventsResponse{
		Data: result.Items,
		Pagination: paginationResponse{
			Total:      result.Total,
			Page:       result.Page,
			Size:       result.Size,
			TotalPages: result.TotalPages,
		},
	})
}

// Update handles PUT /rule-events/:id. Absent fields are left untouched; the
// occurrence timestamp is immutable.
//
// @Summary      Update a rule event
// @Tags         rule-events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Event ID"
// @Param        body  body      updateEventRequest  true  "Fields to update"
// @Success      200   {object}  domain.RuleEvent
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /rule-events/{id} [put]
func (h *RuleEventHandler) Update(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return err
	}

	var req updateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	patch := ports.EventPatch{
		Context: req.Context,
		Emotion: req.Emotion,
		Note:    req.Note,
	}
	if req.Type != nil {
		t := domain.EventType(*req.Type)
		patch.Type = &t
	}

	event, err := h.service.Update(c.Request().Context(), userID, c.Param("id"), patch)
	if err != nil {
		return eventError(c, err)
	}
	return c.JSON(http.StatusOK, event)
}

// eventError maps rule-event service errors onto HTTP responses.
func eventError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "rule event not found"})
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

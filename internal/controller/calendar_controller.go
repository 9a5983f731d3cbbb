package controller

import (
	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/serverutils"
	"oreza-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICalendarController interface {
	RegisterRoutes(r fiber.Router)
	Dispatch(ctx *fiber.Ctx) error
}

type calendarController struct {
	service service.ICalendarService
	auth    fiber.Handler
}

func NewCalendarController(service service.ICalendarService, auth fiber.Handler) ICalendarController {
	return &calendarController{service: service, auth: auth}
}

func (c *calendarController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/calendar/v1")
	h.Use(c.auth)
	h.Post("/dispatch", c.Dispatch)
}

// Dispatch always answers 200 once the body is valid; the outcome, failures
// included, is in the structured payload.
func (c *calendarController) Dispatch(ctx *fiber.Ctx) error {
	var req dto.CalendarDispatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.Dispatch(ctx.UserContext(), &req)
	message := "Calendar dispatched"
	if !res.Success {
		message = "Calendar dispatch failed"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

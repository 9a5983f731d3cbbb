package controller

import (
	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/serverutils"
	"oreza-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	Memory(ctx *fiber.Ctx) error
	Failures(ctx *fiber.Ctx) error
	CorrectFailure(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
	auth    fiber.Handler
}

func NewSessionController(service service.ISessionService, auth fiber.Handler) ISessionController {
	return &sessionController{service: service, auth: auth}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/session/v1")
	h.Use(c.auth)
	h.Post("", c.Create)
	h.Delete("/:id", c.Clear)
	h.Get("/:id/memory", c.Memory)
	h.Get("/:id/failures", c.Failures)
	h.Post("/:id/failures/:failureId/correct", c.CorrectFailure)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	res := c.service.Create(ctx.UserContext())
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	if err := c.service.Clear(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear session", nil))
}

func (c *sessionController) Memory(ctx *fiber.Ctx) error {
	res, err := c.service.Memory(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session memory", res))
}

func (c *sessionController) Failures(ctx *fiber.Ctx) error {
	res, err := c.service.Failures(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Session failures", res))
}

func (c *sessionController) CorrectFailure(ctx *fiber.Ctx) error {
	var req dto.CorrectFailureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CorrectFailure(ctx.UserContext(), ctx.Params("id"), ctx.Params("failureId"), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Failure corrected", res))
}

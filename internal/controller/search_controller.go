package controller

import (
	"oreza-assistant-be/internal/dto"
	"oreza-assistant-be/internal/pkg/serverutils"
	"oreza-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
}

type searchController struct {
	service service.ISearchService
	auth    fiber.Handler
}

func NewSearchController(service service.ISearchService, auth fiber.Handler) ISearchController {
	return &searchController{service: service, auth: auth}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Use(c.auth)
	h.Post("", c.Search)
	h.Post("/analyze", c.Analyze)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.service.Search(ctx.UserContext(), &req)
	return ctx.JSON(serverutils.SuccessResponse("Search results", res))
}

func (c *searchController) Analyze(ctx *fiber.Ctx) error {
	var req dto.SearchAnalysisRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Analyze(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Search analysis", res))
}

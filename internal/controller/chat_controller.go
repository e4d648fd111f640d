package controller

import (
	"errors"

	"plantguard-be/internal/dto"
	"plantguard-be/internal/pkg/serverutils"
	"plantguard-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Advisory(ctx *fiber.Ctx) error
	FollowUp(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Post("/advisory", c.Advisory)
	h.Post("/followup", c.FollowUp)
}

func (c *chatController) Advisory(ctx *fiber.Ctx) error {
	var req dto.AdvisoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid JSON body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(c.service.Advisory(ctx.UserContext(), &req))
}

func (c *chatController) FollowUp(ctx *fiber.Ctx) error {
	var req dto.FollowUpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid JSON body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.FollowUp(ctx.UserContext(), &req)
	if err != nil {
		if errors.Is(err, service.ErrFollowUpLimit) {
			return serverutils.NewHTTPError(fiber.StatusTooManyRequests, err.Error(), err)
		}
		return err
	}

	return ctx.JSON(res)
}

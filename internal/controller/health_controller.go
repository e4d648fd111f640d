package controller

import (
	"plantguard-be/internal/dto"
	"plantguard-be/pkg/classifier"

	"github.com/gofiber/fiber/v2"
)

// ClassifierStatus is the slice of the classifier runtime the health check reports.
type ClassifierStatus interface {
	Mode() string
	Device() classifier.Device
}

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	version    string
	classifier ClassifierStatus
}

func NewHealthController(version string, classifier ClassifierStatus) IHealthController {
	return &healthController{version: version, classifier: classifier}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{Status: "ok", Version: c.version}
	if c.classifier != nil {
		res.Classifier = c.classifier.Mode()
		res.Device = string(c.classifier.Device())
	}
	return ctx.JSON(res)
}

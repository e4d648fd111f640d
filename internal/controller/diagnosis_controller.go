package controller

import (
	"errors"
	"io"

	"plantguard-be/internal/pkg/serverutils"
	"plantguard-be/internal/service"
	"plantguard-be/pkg/classifier"

	"github.com/gofiber/fiber/v2"
)

type IDiagnosisController interface {
	RegisterRoutes(r fiber.Router)
	Predict(ctx *fiber.Ctx) error
	GetRemedy(ctx *fiber.Ctx) error
}

type diagnosisController struct {
	service service.IDiagnosisService
}

func NewDiagnosisController(service service.IDiagnosisService) IDiagnosisController {
	return &diagnosisController{service: service}
}

func (c *diagnosisController) RegisterRoutes(r fiber.Router) {
	r.Post("/predict", c.Predict)
	r.Get("/remedies/:disease_class", c.GetRemedy)
}

func (c *diagnosisController) Predict(ctx *fiber.Ctx) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.BadRequest("file is required", err)
	}

	f, err := fh.Open()
	if err != nil {
		return serverutils.BadRequest("Unable to read uploaded file", err)
	}
	defer f.Close()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		return serverutils.BadRequest("Unable to read uploaded file", err)
	}

	modelKey := ctx.FormValue("model_key", classifier.DefaultModelKey)

	res, err := c.service.Predict(ctx.UserContext(), imageBytes, modelKey)
	if err != nil {
		if errors.Is(err, classifier.ErrInvalidImage) {
			return serverutils.BadRequest("Uploaded file is not a valid image", err)
		}
		return err
	}

	return ctx.JSON(res)
}

func (c *diagnosisController) GetRemedy(ctx *fiber.Ctx) error {
	diseaseClass := ctx.Params("disease_class")
	return ctx.JSON(c.service.GetRemedy(ctx.UserContext(), diseaseClass))
}

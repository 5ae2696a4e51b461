package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/application/services/orchestration"
)

func HealthCheckHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "UP",
		"service": "packplan",
	})
}

func EvaluatePlanHandler(o *orchestration.SubmissionOrchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.PlanRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON format")
		}
		eval, err := o.EvaluatePlan(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusOK).JSON(eval)
	}
}

func SubmitPlanHandler(o *orchestration.SubmissionOrchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.PlanRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON format")
		}
		result, err := o.SubmitPlan(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	}
}

func EvaluateWeighingHandler(o *orchestration.SubmissionOrchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.WeighingRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON format")
		}
		eval, err := o.EvaluateWeighing(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusOK).JSON(eval)
	}
}

func SubmitWeighingHandler(o *orchestration.SubmissionOrchestrator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.WeighingRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON format")
		}
		result, err := o.SubmitWeighing(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(result)
	}
}

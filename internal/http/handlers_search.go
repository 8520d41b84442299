package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func wineryWinesHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	w, ok := deps.Dataset.ByID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "WINERY_NOT_FOUND",
			Error:   "no winery with that id",
		})
	}

	variety := c.Query("variety")

	// Failures inside the search service already degrade to an empty
	// result; this endpoint never reports the model's troubles.
	data := deps.WineSearch.SearchWines(c.Context(), w.Name, w.ShopURL, variety)

	return c.JSON(WineSearchResponse{Success: true, Data: data})
}

func aggregateSearchHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	var reqBody AggregateSearchRequest
	if err := c.BodyParser(&reqBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	if strings.TrimSpace(reqBody.Variety) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'variety'",
		})
	}

	result := deps.Aggregator.Aggregate(c.Context(), reqBody.Variety, reqBody.MaxPrice, reqBody.District)

	return c.JSON(AggregateSearchResponse{Success: true, Data: result})
}

func queryHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	var reqBody QueryRequest
	if err := c.BodyParser(&reqBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	if strings.TrimSpace(reqBody.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'query'",
		})
	}

	// An uninterpretable query comes back as an empty result set, which
	// the UI renders as "nothing found" rather than a failure.
	result := deps.Interpreter.Interpret(c.Context(), reqBody.Query)

	return c.JSON(AggregateSearchResponse{Success: true, Data: result})
}

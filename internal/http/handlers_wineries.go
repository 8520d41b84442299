package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func listWineriesHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	search := c.Query("search")

	var varieties []string
	if raw := c.Query("varieties"); raw != "" {
		varieties = strings.Split(raw, ",")
	}

	return c.JSON(WineryListResponse{
		Success:  true,
		Wineries: deps.Dataset.Filter(search, varieties),
	})
}

func getWineryHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	w, ok := deps.Dataset.ByID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "WINERY_NOT_FOUND",
			Error:   "no winery with that id",
		})
	}

	return c.JSON(WineryResponse{Success: true, Winery: w})
}

func listVarietiesHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)
	return c.JSON(ListResponse{Success: true, Values: deps.Dataset.Varieties()})
}

func listDistrictsHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)
	return c.JSON(ListResponse{Success: true, Values: deps.Dataset.Districts()})
}

func describeWineryHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	w, ok := deps.Dataset.ByID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "WINERY_NOT_FOUND",
			Error:   "no winery with that id",
		})
	}

	var reqBody DescribeRequest
	if err := c.BodyParser(&reqBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	features := reqBody.Features
	if len(features) == 0 {
		features = w.Varieties
	}

	return c.JSON(DescribeResponse{
		Success:     true,
		Description: deps.WineSearch.Describe(c.Context(), w.Name, features),
	})
}

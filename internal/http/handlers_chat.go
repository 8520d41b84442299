package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

func createChatHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	session, err := deps.Chat.Create()
	if err != nil {
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Success: false,
			Code:    "TOO_MANY_SESSIONS",
			Error:   err.Error(),
		})
	}

	return c.JSON(ChatCreateResponse{Success: true, SessionID: session.ID})
}

func chatMessageHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	session, ok := deps.Chat.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "SESSION_NOT_FOUND",
			Error:   "no active chat session with that id",
		})
	}

	var reqBody ChatMessageRequest
	if err := c.BodyParser(&reqBody); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	if strings.TrimSpace(reqBody.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'text'",
		})
	}

	reply := session.SendMessage(c.Context(), reqBody.Text)

	return c.JSON(ChatMessageResponse{
		Success:    true,
		Reply:      reply,
		Transcript: session.Transcript(),
	})
}

func deleteChatHandler(c *fiber.Ctx) error {
	deps := c.Locals("deps").(Deps)

	deps.Chat.Delete(c.Params("id"))
	return c.JSON(fiber.Map{"success": true})
}

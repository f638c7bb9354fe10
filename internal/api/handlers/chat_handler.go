package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/classpilot/backend/internal/auth"
	"github.com/classpilot/backend/internal/chat"
)

type ChatHandler struct {
	service       *chat.Service
	maxMessageLen int
}

func NewChatHandler(service *chat.Service, maxMessageLen int) *ChatHandler {
	return &ChatHandler{service: service, maxMessageLen: maxMessageLen}
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}
	if h.maxMessageLen > 0 && len(req.Message) > h.maxMessageLen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is too long",
		})
	}

	reply, err := h.service.ProcessMessage(c.UserContext(), c.Params("id"), auth.CurrentUser(c).ID, req.Message)
	if err != nil {
		return gatewayError(c, err)
	}
	return c.JSON(reply)
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	messages, err := h.service.History(c.Params("id"), auth.CurrentUser(c).ID, limit)
	if err != nil {
		return gatewayError(c, err)
	}

	out := make([]fiber.Map, 0, len(messages))
	for _, msg := range messages {
		out = append(out, fiber.Map{
			"id":           msg.ID,
			"user_message": msg.UserMessage,
			"tutor_reply":  msg.TutorReply,
			"created_at":   msg.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"messages": out})
}

package controller

import (
	"context"

	"agri-assist-be/internal/apperror"
	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/pkg/logger"
	"agri-assist-be/internal/pkg/serverutils"
	"agri-assist-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	SendVoiceMessage(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SubmitFeedback(ctx *fiber.Ctx) error
	PopularQuestions(ctx *fiber.Ctx) error
	SessionActivity(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	wsLogger    logger.ILogger
}

func NewChatController(chatService service.IChatService, wsLogger logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		wsLogger:    wsLogger,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.OptionalJwtMiddleware)
	h.Post("message", c.SendMessage)
	h.Post("voice", c.SendVoiceMessage)
	h.Post("session", c.CreateSession)
	h.Get("history/:sessionId", c.GetHistory)
	h.Put("feedback/:messageId", c.SubmitFeedback)
	h.Get("popular-questions", c.PopularQuestions)
	h.Get("session/:sessionId", c.SessionActivity)
	h.Get("ws", websocket.New(c.handleSocket))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.ProcessTextTurn(ctx.Context(), callerId(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process message", res))
}

func (c *chatController) SendVoiceMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.ProcessVoiceTurn(ctx.Context(), callerId(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process voice message", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return apperror.Validation("invalid request body")
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			return err
		}
	}

	res, err := c.chatService.CreateSession(ctx.Context(), callerId(ctx), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")
	limit := ctx.QueryInt("limit", 0)

	res, err := c.chatService.GetHistory(ctx.Context(), sessionId, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) SubmitFeedback(ctx *fiber.Ctx) error {
	messageId, err := uuid.Parse(ctx.Params("messageId"))
	if err != nil {
		return apperror.Validation("invalid message id")
	}

	var req dto.SubmitFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Helpful == nil && req.Rating == nil && req.Comment == nil {
		return apperror.Validation("feedback body must carry at least one field")
	}

	res, err := c.chatService.SubmitFeedback(ctx.Context(), messageId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit feedback", res))
}

func (c *chatController) PopularQuestions(ctx *fiber.Ctx) error {
	language := ctx.Query("language")
	res := c.chatService.PopularQuestions(language)
	return ctx.JSON(serverutils.SuccessResponse("Success get popular questions", res))
}

func (c *chatController) SessionActivity(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("sessionId")
	res := c.chatService.SessionActivity(sessionId)
	return ctx.JSON(serverutils.SuccessResponse("Success get session activity", res))
}

// handleSocket runs the same turn pipeline over a websocket. Each inbound
// JSON frame is one turn; the paired result is written back on the same
// connection.
func (c *chatController) handleSocket(conn *websocket.Conn) {
	remote := conn.RemoteAddr().String()
	c.wsLogger.Info("websocket", "connection opened", map[string]interface{}{
		"remote": remote,
	})
	defer func() {
		c.wsLogger.Info("websocket", "connection closed", map[string]interface{}{
			"remote": remote,
		})
		conn.Close()
	}()

	for {
		var req dto.SendMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			c.wsLogger.Warn("websocket", "read failed", map[string]interface{}{
				"remote": remote,
				"error":  err.Error(),
			})
			return
		}
		if err := serverutils.ValidateRequest(req); err != nil {
			_ = conn.WriteJSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
			continue
		}

		var (
			res *dto.SendMessageResponse
			err error
		)
		// Websocket frames carry no bearer token; callers stay anonymous
		if req.IsVoice {
			res, err = c.chatService.ProcessVoiceTurn(context.Background(), nil, &req)
		} else {
			res, err = c.chatService.ProcessTextTurn(context.Background(), nil, &req)
		}
		if err != nil {
			c.wsLogger.Error("websocket", "turn failed", map[string]interface{}{
				"remote": remote,
				"error":  err.Error(),
			})
			_ = conn.WriteJSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, err.Error()))
			continue
		}

		if err := conn.WriteJSON(serverutils.SuccessResponse("Success process message", res)); err != nil {
			return
		}
	}
}

func callerId(ctx *fiber.Ctx) *uuid.UUID {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return nil
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return nil
	}
	return &userId
}

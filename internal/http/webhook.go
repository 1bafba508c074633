package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jmehdipour/parcel-relay/internal/logger"
	"github.com/jmehdipour/parcel-relay/internal/service/conversation"
	"github.com/jmehdipour/parcel-relay/internal/util"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Conversation handles one inbound text turn.
type Conversation interface {
	Handle(ctx context.Context, address, text string) (conversation.Reply, error)
}

// senderAddress reads the sender field of an inbound form (Twilio style "From",
// lowercase accepted).
func senderAddress(c echo.Context) string {
	from := c.FormValue("From")
	if from == "" {
		from = c.FormValue("from")
	}
	return strings.TrimSpace(from)
}

func messageBody(c echo.Context) string {
	body := c.FormValue("Body")
	if body == "" {
		body = c.FormValue("body")
	}
	return strings.TrimSpace(body)
}

// webhookHandler answers an inbound message with the plain-text reply.
// Store failures surface as 500 so the transport can retry; no chat reply is crafted.
func webhookHandler(conv Conversation) echo.HandlerFunc {
	return func(c echo.Context) error {
		from := senderAddress(c)
		if util.NormalizeAddress(from) == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing sender"})
		}

		reply, err := conv.Handle(c.Request().Context(), from, messageBody(c))
		if err != nil {
			if errors.Is(err, conversation.ErrEmptyAddress) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing sender"})
			}
			logger.L().Error("turn failed", zap.String("from", from), zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		}

		return c.String(http.StatusOK, reply.Text)
	}
}

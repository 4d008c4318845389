package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wanqqq29/monopoly-bank/internal/card"
	"github.com/wanqqq29/monopoly-bank/internal/money"
	"github.com/wanqqq29/monopoly-bank/internal/session"
)

// NFCHandler fronts the card session: each endpoint starts one physical
// card operation and blocks until tap, timeout or failure.
type NFCHandler struct {
	Session *session.Session
	Log     *zap.Logger
}

type readCardResponse struct {
	Blank bool          `json:"blank"`
	Card  *card.Payload `json:"card,omitempty"`
}

// ReadID resolves the next tapped card to its account id.
func (h *NFCHandler) ReadID(c *fiber.Ctx) error {
	id, err := h.Session.ReadCardID(c.UserContext())
	if err != nil {
		return domainError(err)
	}
	return c.JSON(fiber.Map{"card_id": id})
}

// Read returns the decoded payload of the next tapped card. A blank card is
// a normal result so the UI can offer initialization.
func (h *NFCHandler) Read(c *fiber.Ctx) error {
	decoded, err := h.Session.ReadCard(c.UserContext())
	if err != nil {
		return domainError(err)
	}
	resp := readCardResponse{Blank: decoded.Blank}
	if !decoded.Blank {
		resp.Card = &decoded.Card
	}
	return c.JSON(resp)
}

// Write pushes the ledger's current state for one account onto the next
// tapped card.
func (h *NFCHandler) Write(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Session.WriteCard(c.UserContext(), id); err != nil {
		return domainError(err)
	}
	return c.JSON(fiber.Map{"written": true, "card_id": id})
}

type formatRequest struct {
	Balance float64 `json:"balance"`
}

// Format creates a brand-new account and writes it to the next tapped card.
func (h *NFCHandler) Format(c *fiber.Ctx) error {
	var req formatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	balance, err := money.ParseDollars(req.Balance)
	if err != nil {
		return domainError(err)
	}

	account, err := h.Session.FormatCard(c.UserContext(), balance)
	if err != nil {
		return domainError(err)
	}
	h.Log.Info("card formatted via api", zap.String("card_id", account.ID))
	return c.Status(fiber.StatusCreated).JSON(account)
}

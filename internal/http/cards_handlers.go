package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wanqqq29/monopoly-bank/internal/audit"
	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/money"
)

// CardsHandler is the ledger side of the operation surface: everything a
// banker does from the table UI without touching the physical reader.
type CardsHandler struct {
	Ledger *ledger.Ledger
	Pool   *pgxpool.Pool // audit only; nil when not on Postgres
	Log    *zap.Logger
}

type createCardRequest struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type transferRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func (h *CardsHandler) audit(c *fiber.Ctx, action, cardID string, amount int64) {
	if err := audit.Write(c.UserContext(), h.Pool, audit.Entry{
		Actor:  "banker",
		Action: action,
		CardID: &cardID,
		Amount: &amount,
	}); err != nil {
		h.Log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// Create initializes a new card account (create-only).
func (h *CardsHandler) Create(c *fiber.Ctx) error {
	var req createCardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if req.ID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "id required")
	}
	balance, err := money.ParseDollars(req.Balance)
	if err != nil {
		return domainError(err)
	}

	account, err := h.Ledger.Initialize(c.UserContext(), req.ID, balance)
	if err != nil {
		return domainError(err)
	}
	h.audit(c, "initialize", account.ID, balance)
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *CardsHandler) Deposit(c *fiber.Ctx) error {
	id := c.Params("id")
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	amount, err := money.ParseDollars(req.Amount)
	if err != nil {
		return domainError(err)
	}

	account, err := h.Ledger.Deposit(c.UserContext(), id, amount)
	if err != nil {
		return domainError(err)
	}
	h.audit(c, "deposit", id, amount)
	return c.JSON(account)
}

func (h *CardsHandler) Withdraw(c *fiber.Ctx) error {
	id := c.Params("id")
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	amount, err := money.ParseDollars(req.Amount)
	if err != nil {
		return domainError(err)
	}

	account, err := h.Ledger.Withdraw(c.UserContext(), id, amount)
	if err != nil {
		return domainError(err)
	}
	h.audit(c, "withdraw", id, amount)
	return c.JSON(account)
}

// Transfer moves money between two cards; both sides update or neither does.
func (h *CardsHandler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	amount, err := money.ParseDollars(req.Amount)
	if err != nil {
		return domainError(err)
	}

	txn, err := h.Ledger.Transfer(c.UserContext(), req.From, req.To, amount)
	if err != nil {
		return domainError(err)
	}
	h.audit(c, "transfer", req.From+"->"+req.To, amount)
	return c.JSON(txn)
}

func (h *CardsHandler) Get(c *fiber.Ctx) error {
	account, err := h.Ledger.Get(c.Params("id"))
	if err != nil {
		return domainError(err)
	}
	return c.JSON(account)
}

// List returns every card in play, for the table overview screen.
func (h *CardsHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Ledger.All())
}

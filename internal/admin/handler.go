package admin

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wanqqq29/monopoly-bank/internal/audit"
	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/money"
)

// Handler exposes banker-only maintenance: a game overview and the
// irreversible reset. Both sit behind the X-Admin-Key header on top of the
// banker JWT, since a reset wipes every card at the table.
type Handler struct {
	Ledger *ledger.Ledger
	Pool   *pgxpool.Pool
	Log    *zap.Logger
}

func NewHandler(l *ledger.Ledger, pool *pgxpool.Pool, log *zap.Logger) *Handler {
	return &Handler{Ledger: l, Pool: pool, Log: log}
}

func requireAdminKey(c *fiber.Ctx) error {
	adminKey := strings.TrimSpace(os.Getenv("ADMIN_KEY"))
	if adminKey == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "ADMIN_KEY not set on server")
	}
	reqKey := strings.TrimSpace(c.Get("X-Admin-Key"))
	if reqKey == "" || reqKey != adminKey {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return nil
}

type overviewCard struct {
	ID           string `json:"id"`
	Balance      int64  `json:"balance"`
	BalanceText  string `json:"balance_text"`
	Transactions int    `json:"transactions"`
	LastUpdated  int64  `json:"last_updated"`
}

type OverviewResponse struct {
	CardsTotal      int            `json:"cards_total"`
	MoneySupply     int64          `json:"money_supply"`
	MoneySupplyText string         `json:"money_supply_text"`
	Cards           []overviewCard `json:"cards"`
}

// Overview summarizes the game for the banker screen.
func (h *Handler) Overview(c *fiber.Ctx) error {
	if err := requireAdminKey(c); err != nil {
		return err
	}

	resp := OverviewResponse{
		CardsTotal:  h.Ledger.Count(),
		MoneySupply: h.Ledger.MoneySupply(),
	}
	resp.MoneySupplyText = money.Format(resp.MoneySupply)
	for _, a := range h.Ledger.All() {
		resp.Cards = append(resp.Cards, overviewCard{
			ID:           a.ID,
			Balance:      a.Balance,
			BalanceText:  money.Format(a.Balance),
			Transactions: len(a.Transactions),
			LastUpdated:  a.LastUpdated,
		})
	}
	return c.JSON(resp)
}

// Reset wipes all accounts and starts a fresh game.
func (h *Handler) Reset(c *fiber.Ctx) error {
	if err := requireAdminKey(c); err != nil {
		return err
	}

	if err := h.Ledger.Reset(c.UserContext()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not reset game state")
	}
	if err := audit.Write(c.UserContext(), h.Pool, audit.Entry{Actor: "banker", Action: "reset_game"}); err != nil {
		h.Log.Warn("audit write failed", zap.Error(err))
	}
	h.Log.Info("game reset, all cards cleared")
	return c.JSON(fiber.Map{"reset": true})
}

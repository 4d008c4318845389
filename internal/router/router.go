package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wanqqq29/monopoly-bank/internal/admin"
	handlers "github.com/wanqqq29/monopoly-bank/internal/http"
	"github.com/wanqqq29/monopoly-bank/internal/reports"
)

type Router struct {
	AuthHandler    *handlers.AuthHandler
	CardsHandler   *handlers.CardsHandler
	NFCHandler     *handlers.NFCHandler
	AdminHandler   *admin.Handler
	ReportsHandler *reports.Handler
	AuthMW         fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	if r.AuthHandler != nil {
		app.Post("/api/auth/login", RateLimitAuth(), r.AuthHandler.Login)
	}

	if r.CardsHandler != nil {
		app.Get("/api/cards", r.AuthMW, r.CardsHandler.List)
		app.Get("/api/cards/:id", r.AuthMW, r.CardsHandler.Get)
		app.Post("/api/cards", RateLimitWrite(), r.AuthMW, r.CardsHandler.Create)
		app.Post("/api/cards/:id/deposit", RateLimitWrite(), r.AuthMW, r.CardsHandler.Deposit)
		app.Post("/api/cards/:id/withdraw", RateLimitWrite(), r.AuthMW, r.CardsHandler.Withdraw)
		app.Post("/api/transfers", RateLimitWrite(), r.AuthMW, r.CardsHandler.Transfer)
	}

	if r.NFCHandler != nil {
		app.Post("/api/nfc/read-id", r.AuthMW, r.NFCHandler.ReadID)
		app.Post("/api/nfc/read", r.AuthMW, r.NFCHandler.Read)
		app.Post("/api/nfc/write/:id", RateLimitWrite(), r.AuthMW, r.NFCHandler.Write)
		app.Post("/api/nfc/format", RateLimitWrite(), r.AuthMW, r.NFCHandler.Format)
	}

	if r.ReportsHandler != nil {
		app.Get("/api/cards/:id/statement.pdf", r.AuthMW, r.ReportsHandler.StatementPDF)
	}

	if r.AdminHandler != nil {
		app.Get("/api/admin/overview", r.AuthMW, r.AdminHandler.Overview)
		app.Post("/api/admin/reset", r.AuthMW, r.AdminHandler.Reset)
	}
}

package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wanqqq29/monopoly-bank/internal/card"
	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/money"
	"github.com/wanqqq29/monopoly-bank/internal/nfc"
)

// domainError translates ledger/nfc/codec failures into HTTP responses so
// the UI can tell a tap-again condition from a dead reader.
func domainError(err error) error {
	var ve *card.ValidationError
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "card not initialized")
	case errors.Is(err, ledger.ErrExists):
		return fiber.NewError(fiber.StatusConflict, "card already initialized")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(fiber.StatusConflict, "insufficient funds")
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, money.ErrInvalidMoney):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, nfc.ErrBusy):
		return fiber.NewError(fiber.StatusConflict, "another card operation is in progress")
	case errors.Is(err, nfc.ErrTimeout):
		return fiber.NewError(fiber.StatusRequestTimeout, "timed out waiting for a card tap")
	case errors.Is(err, nfc.ErrPermissionDenied):
		return fiber.NewError(fiber.StatusForbidden, "nfc permission denied")
	case errors.Is(err, nfc.ErrUnsupported):
		return fiber.NewError(fiber.StatusNotImplemented, "nfc not supported on this reader")
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, ledger.ErrPersistence):
		return fiber.NewError(fiber.StatusInternalServerError, "could not save game state")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
}

package http

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanqqq29/monopoly-bank/internal/auth"
)

// AuthHandler exchanges the table's banker passcode for a session token.
// BANKER_PASSCODE_HASH holds a bcrypt hash; BANKER_PASSCODE (plaintext) is
// accepted for quick local games.
type AuthHandler struct {
	Log *zap.Logger
}

type loginRequest struct {
	Passcode string `json:"passcode"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if body.Passcode == "" {
		return fiber.NewError(fiber.StatusBadRequest, "passcode required")
	}

	if !passcodeOK(body.Passcode) {
		h.Log.Warn("banker login rejected")
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := auth.GenerateToken(auth.RoleBanker)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
	}

	h.Log.Info("banker logged in")
	return c.JSON(authResponse{Token: token})
}

func passcodeOK(passcode string) bool {
	if hash := strings.TrimSpace(os.Getenv("BANKER_PASSCODE_HASH")); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
	}
	if plain := strings.TrimSpace(os.Getenv("BANKER_PASSCODE")); plain != "" {
		return passcode == plain
	}
	return false
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wanqqq29/monopoly-bank/internal/auth"
	apphttp "github.com/wanqqq29/monopoly-bank/internal/http"
	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/nfc"
	"github.com/wanqqq29/monopoly-bank/internal/router"
	"github.com/wanqqq29/monopoly-bank/internal/session"
	"github.com/wanqqq29/monopoly-bank/internal/store"
)

type testEnv struct {
	app     *fiber.App
	dev     *nfc.SimDevice
	ledger  *ledger.Ledger
	session *session.Session
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BANKER_PASSCODE", "1234")
	t.Setenv("ADMIN_KEY", "table-admin")

	logger := zap.NewNop()

	dev := nfc.NewSimDevice()
	gate, err := nfc.NewGate(context.Background(), dev)
	require.NoError(t, err)
	bank, err := ledger.New(context.Background(), store.NewMemory())
	require.NoError(t, err)
	cardSession := session.New(gate, bank, logger)
	cardSession.TapTimeout = 2 * time.Second
	cardSession.IDTimeout = 2 * time.Second

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}
			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})
	r := &router.Router{
		AuthHandler:  &apphttp.AuthHandler{Log: logger},
		CardsHandler: &apphttp.CardsHandler{Ledger: bank, Log: logger},
		NFCHandler:   &apphttp.NFCHandler{Session: cardSession, Log: logger},
		AuthMW:       auth.Middleware(),
	}
	r.RegisterRoutes(app)

	return &testEnv{app: app, dev: dev, ledger: bank, session: cardSession}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *nethttp.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	res, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *nethttp.Response, out any) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(out))
}

func login(t *testing.T, e *testEnv) {
	t.Helper()
	res := e.request(t, nethttp.MethodPost, "/api/auth/login", fiber.Map{"passcode": "1234"})
	require.Equal(t, nethttp.StatusOK, res.StatusCode)
	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, res, &body)
	require.NotEmpty(t, body.Token)
	e.token = body.Token
}

func TestLoginRejectsBadPasscode(t *testing.T) {
	e := newTestEnv(t)
	res := e.request(t, nethttp.MethodPost, "/api/auth/login", fiber.Map{"passcode": "wrong"})
	assert.Equal(t, nethttp.StatusUnauthorized, res.StatusCode)
}

func TestCardRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)
	res := e.request(t, nethttp.MethodGet, "/api/cards", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, res.StatusCode)
}

func TestCardLifecycle(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 100})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)

	res = e.request(t, nethttp.MethodPost, "/api/cards/card_1/deposit", fiber.Map{"amount": 50})
	require.Equal(t, nethttp.StatusOK, res.StatusCode)

	res = e.request(t, nethttp.MethodPost, "/api/cards/card_1/withdraw", fiber.Map{"amount": 30})
	require.Equal(t, nethttp.StatusOK, res.StatusCode)

	var account ledger.Account
	decodeBody(t, res, &account)
	assert.Equal(t, int64(120), account.Balance)
	assert.Len(t, account.Transactions, 3)
}

func TestCreateDuplicateCardConflicts(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 100})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)
	res = e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 100})
	assert.Equal(t, nethttp.StatusConflict, res.StatusCode)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 40})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)

	res = e.request(t, nethttp.MethodPost, "/api/cards/card_1/withdraw", fiber.Map{"amount": 1000})
	assert.Equal(t, nethttp.StatusConflict, res.StatusCode)

	res = e.request(t, nethttp.MethodGet, "/api/cards/card_1", nil)
	var account ledger.Account
	decodeBody(t, res, &account)
	assert.Equal(t, int64(40), account.Balance)
}

func TestDepositUnknownCard(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards/card_missing/deposit", fiber.Map{"amount": 10})
	assert.Equal(t, nethttp.StatusNotFound, res.StatusCode)
}

func TestInvalidAmountRejected(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 100})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)

	res = e.request(t, nethttp.MethodPost, "/api/cards/card_1/deposit", fiber.Map{"amount": -5})
	assert.Equal(t, nethttp.StatusBadRequest, res.StatusCode)
	res = e.request(t, nethttp.MethodPost, "/api/cards/card_1/deposit", fiber.Map{"amount": 10.5})
	assert.Equal(t, nethttp.StatusBadRequest, res.StatusCode)
}

func TestTransferEndpoint(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 120})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)
	res = e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_2", "balance": 0})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)

	res = e.request(t, nethttp.MethodPost, "/api/transfers", fiber.Map{"from": "card_1", "to": "card_2", "amount": 80})
	require.Equal(t, nethttp.StatusOK, res.StatusCode)

	var txn ledger.Transaction
	decodeBody(t, res, &txn)
	assert.Equal(t, ledger.KindTransfer, txn.Kind)
	assert.Equal(t, int64(80), txn.Amount)

	res = e.request(t, nethttp.MethodGet, "/api/cards/card_1", nil)
	var from ledger.Account
	decodeBody(t, res, &from)
	assert.Equal(t, int64(40), from.Balance)
}

func TestNFCReadBlankCard(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	e.dev.PresentCard(nfc.Tap{Serial: "04:a2"})
	res := e.request(t, nethttp.MethodPost, "/api/nfc/read", nil)
	require.Equal(t, nethttp.StatusOK, res.StatusCode)

	var body struct {
		Blank bool `json:"blank"`
	}
	decodeBody(t, res, &body)
	assert.True(t, body.Blank)
}

func TestNFCReadID(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	e.dev.PresentCard(nfc.Tap{Serial: "04:a2"})
	res := e.request(t, nethttp.MethodPost, "/api/nfc/read-id", nil)
	require.Equal(t, nethttp.StatusOK, res.StatusCode)

	var body struct {
		CardID string `json:"card_id"`
	}
	decodeBody(t, res, &body)
	assert.Equal(t, "card_04:a2", body.CardID)
}

func TestNFCTimeoutMapsTo408(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)
	e.session.TapTimeout = 20 * time.Millisecond

	res := e.request(t, nethttp.MethodPost, "/api/nfc/read", nil)
	assert.Equal(t, nethttp.StatusRequestTimeout, res.StatusCode)
}

func TestNFCWriteRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	res := e.request(t, nethttp.MethodPost, "/api/cards", fiber.Map{"id": "card_1", "balance": 100})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)

	e.dev.PresentCard(nfc.Tap{Serial: "04"})
	res = e.request(t, nethttp.MethodPost, "/api/nfc/write/card_1", nil)
	require.Equal(t, nethttp.StatusOK, res.StatusCode)
	require.Len(t, e.dev.Written(), 1)

	// Reading the card back yields the written state.
	e.dev.PresentCard(nfc.Tap{Serial: "04", Payload: e.dev.Written()[0]})
	res = e.request(t, nethttp.MethodPost, "/api/nfc/read", nil)
	require.Equal(t, nethttp.StatusOK, res.StatusCode)

	var body struct {
		Blank bool `json:"blank"`
		Card  struct {
			ID      string `json:"id"`
			Balance int64  `json:"balance"`
		} `json:"card"`
	}
	decodeBody(t, res, &body)
	assert.False(t, body.Blank)
	assert.Equal(t, "card_1", body.Card.ID)
	assert.Equal(t, int64(100), body.Card.Balance)
}

func TestNFCFormat(t *testing.T) {
	e := newTestEnv(t)
	login(t, e)

	e.dev.PresentCard(nfc.Tap{Serial: "04"})
	res := e.request(t, nethttp.MethodPost, "/api/nfc/format", fiber.Map{"balance": 1500})
	require.Equal(t, nethttp.StatusCreated, res.StatusCode)

	var account ledger.Account
	decodeBody(t, res, &account)
	assert.Equal(t, int64(1500), account.Balance)
	assert.Equal(t, 1, e.ledger.Count())
}

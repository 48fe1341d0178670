// Package api exposes the ledger and allow-list books over HTTP.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/allowlist"
	"github.com/congo-pay/omnibus/internal/hold"
	"github.com/congo-pay/omnibus/internal/middleware"
	"github.com/congo-pay/omnibus/internal/omnibus"
)

const maxPageSize = 500

// Handler serves both books. The caller identity is taken from
// middleware.Caller, which must run first.
type Handler struct {
	ledger *omnibus.Engine
	allow  *allowlist.Engine
	logger *slog.Logger
}

func NewHandler(ledger *omnibus.Engine, allow *allowlist.Engine, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, allow: allow, logger: logger}
}

// Register mounts every route on r.
func (h *Handler) Register(r fiber.Router) {
	l := r.Group("/ledger")
	l.Post("/accounts/register", h.RegisterAccount)
	l.Get("/accounts/:address/status", h.StatusOf)
	l.Put("/accounts/:address/status", h.SetStatus)
	l.Post("/balances", h.RegisterToken)
	l.Get("/balances/:asset", h.ConfirmedBalance)
	l.Get("/balances/:asset/sell-capacity", h.SellCapacity)
	l.Post("/transfers", h.Transfer)
	l.Post("/sells", h.Sell)
	l.Post("/buys", h.Buy)
	l.Post("/burns", h.Burn)
	l.Get("/holds/:asset", h.ListHolds)
	l.Get("/holds/:asset/:index", h.Hold)
	l.Post("/holds/:asset/:index/confirm", h.Confirm)

	a := r.Group("/allowlist")
	a.Get("/senders/:address", h.ApprovedSender)
	a.Put("/senders/:address", h.SetApprovedSender)
	a.Get("/recipients/:address", h.ApprovedReceiver)
	a.Put("/recipients/:address", h.SetApprovedReceiver)
	a.Post("/transfers", h.AllowTransfer)
	a.Get("/holds/:asset", h.AllowListHolds)
	a.Get("/holds/:asset/:index", h.AllowPending)
	a.Post("/holds/:asset/:index/confirm", h.AllowConfirm)
}

func caller(c *fiber.Ctx) (address.Address, error) {
	addr, ok := middleware.CallerFrom(c)
	if !ok {
		return address.Address{}, fiber.NewError(http.StatusUnauthorized, "missing caller")
	}
	return addr, nil
}

func addressParam(c *fiber.Ctx, name string) (address.Address, error) {
	addr, err := address.Parse(c.Params(name))
	if err != nil {
		return address.Address{}, fiber.NewError(http.StatusBadRequest, name+": "+err.Error())
	}
	return addr, nil
}

func indexParam(c *fiber.Ctx) (uint64, error) {
	idx, err := strconv.ParseUint(c.Params("index"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "index must be a non-negative integer")
	}
	return idx, nil
}

func page(c *fiber.Ctx) (uint64, uint64, error) {
	offset, err := strconv.ParseUint(c.Query("offset", "0"), 10, 64)
	if err != nil {
		return 0, 0, fiber.NewError(http.StatusBadRequest, "invalid offset")
	}
	limit, err := strconv.ParseUint(c.Query("limit", "100"), 10, 64)
	if err != nil || limit == 0 {
		return 0, 0, fiber.NewError(http.StatusBadRequest, "invalid limit")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// fail translates engine errors into HTTP errors.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, omnibus.ErrUnauthorized), errors.Is(err, allowlist.ErrNotApproved):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, omnibus.ErrNotRegistered), errors.Is(err, hold.ErrIndexOutOfRange):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, omnibus.ErrAlreadyRegistered), errors.Is(err, hold.ErrAlreadyClosed),
		errors.Is(err, omnibus.ErrBalanceExists):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, omnibus.ErrInsufficientBalance), errors.Is(err, omnibus.ErrInsufficientSellCapacity),
		errors.Is(err, omnibus.ErrInitiatorMismatch), errors.Is(err, omnibus.ErrBalanceOverflow):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, omnibus.ErrInvalidAmount), errors.Is(err, omnibus.ErrInvalidStatus),
		errors.Is(err, omnibus.ErrSinkAddress):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(c.UserContext(), "ledger request failed",
			slog.String("path", c.Path()),
			slog.String("request_id", middleware.RequestIDFrom(c)),
			slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
}

type holdList struct {
	Length  uint64       `json:"length"`
	Offset  uint64       `json:"offset"`
	Entries []hold.Entry `json:"entries"`
}

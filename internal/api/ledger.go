package api

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/omnibus/internal/account"
	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
)

// RegisterAccount self-registers the caller as Inactive.
func (h *Handler) RegisterAccount(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.ledger.RegisterAccount(c.UserContext(), who); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"account": who, "status": account.Inactive})
}

func (h *Handler) StatusOf(c *fiber.Ctx) error {
	target, err := addressParam(c, "address")
	if err != nil {
		return err
	}
	status, err := h.ledger.StatusOf(c.UserContext(), target)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"account": target, "status": status})
}

type setStatusRequest struct {
	Status account.Status `json:"status"`
}

func (h *Handler) SetStatus(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	target, err := addressParam(c, "address")
	if err != nil {
		return err
	}
	var req setStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.ledger.SetStatus(c.UserContext(), who, target, req.Status); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"account": target, "status": req.Status})
}

type registerTokenRequest struct {
	Account address.Address `json:"account"`
	Asset   address.Address `json:"asset"`
	Amount  int64           `json:"amount"`
}

func (h *Handler) RegisterToken(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req registerTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.ledger.RegisterToken(c.UserContext(), who, req.Account, req.Asset, req.Amount); err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(req)
}

// ConfirmedBalance returns the caller's own settled balance.
func (h *Handler) ConfirmedBalance(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	amount, err := h.ledger.ConfirmedBalanceOf(c.UserContext(), who, asset)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"account": who, "asset": asset, "confirmed": amount})
}

func (h *Handler) SellCapacity(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	capacity, err := h.ledger.SellCapacity(c.UserContext(), who, asset)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"account": who, "asset": asset, "sell_capacity": capacity})
}

type transferRequest struct {
	To     address.Address `json:"to"`
	Asset  address.Address `json:"asset"`
	Amount int64           `json:"amount"`
}

// Transfer answers 200 when the transfer settled and 202 when it was queued.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	out, err := h.ledger.TransferFrom(c.UserContext(), who, req.To, req.Asset, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	if out.Settled {
		return c.Status(http.StatusOK).JSON(fiber.Map{"settled": true})
	}
	return c.Status(http.StatusAccepted).JSON(out)
}

type assetAmountRequest struct {
	Asset  address.Address `json:"asset"`
	Amount int64           `json:"amount"`
}

func (h *Handler) Sell(c *fiber.Ctx) error {
	return h.enqueue(c, h.ledger.SellToken)
}

func (h *Handler) Buy(c *fiber.Ctx) error {
	return h.enqueue(c, h.ledger.BuyToken)
}

func (h *Handler) Burn(c *fiber.Ctx) error {
	return h.enqueue(c, h.ledger.BurnToken)
}

type enqueueFunc func(ctx context.Context, caller, asset address.Address, amount int64) (uint64, error)

func (h *Handler) enqueue(c *fiber.Ctx, fn enqueueFunc) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req assetAmountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	idx, err := fn(c.UserContext(), who, req.Asset, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"index": idx})
}

func (h *Handler) ListHolds(c *fiber.Ctx) error {
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	offset, limit, err := page(c)
	if err != nil {
		return err
	}
	n, err := h.ledger.QueueLen(c.UserContext(), asset)
	if err != nil {
		return h.fail(c, err)
	}
	entries, err := h.ledger.Entries(c.UserContext(), asset, offset, limit)
	if err != nil {
		return h.fail(c, err)
	}
	if entries == nil {
		entries = []hold.Entry{}
	}
	return c.JSON(holdList{Length: n, Offset: offset, Entries: entries})
}

func (h *Handler) Hold(c *fiber.Ctx) error {
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	entry, err := h.ledger.EntryAt(c.UserContext(), asset, idx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(entry)
}

type confirmRequest struct {
	Account address.Address `json:"account"`
}

// Confirm settles a queued entry. Administrator only.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	var req confirmRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	settled, err := h.ledger.ConfirmTransfer(c.UserContext(), who, req.Account, asset, idx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(settled)
}

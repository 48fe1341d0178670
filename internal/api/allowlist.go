package api

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/hold"
)

type approvalRequest struct {
	Approved bool `json:"approved"`
}

func (h *Handler) ApprovedSender(c *fiber.Ctx) error {
	return h.approval(c, h.allow.ApprovedSender)
}

func (h *Handler) ApprovedReceiver(c *fiber.Ctx) error {
	return h.approval(c, h.allow.ApprovedReceiver)
}

func (h *Handler) approval(c *fiber.Ctx, read func(context.Context, address.Address) (bool, error)) error {
	acct, err := addressParam(c, "address")
	if err != nil {
		return err
	}
	ok, err := read(c.UserContext(), acct)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"account": acct, "approved": ok})
}

func (h *Handler) SetApprovedSender(c *fiber.Ctx) error {
	return h.setApproval(c, h.allow.SetApprovedSender)
}

func (h *Handler) SetApprovedReceiver(c *fiber.Ctx) error {
	return h.setApproval(c, h.allow.SetApprovedReceiver)
}

func (h *Handler) setApproval(c *fiber.Ctx, write func(context.Context, address.Address, address.Address, bool) error) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	acct, err := addressParam(c, "address")
	if err != nil {
		return err
	}
	var req approvalRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := write(c.UserContext(), who, acct, req.Approved); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"account": acct, "approved": req.Approved})
}

// AllowTransfer queues a transfer between approved parties.
func (h *Handler) AllowTransfer(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	idx, err := h.allow.TransferFrom(c.UserContext(), who, req.To, req.Asset, req.Amount)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"index": idx})
}

func (h *Handler) AllowListHolds(c *fiber.Ctx) error {
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	offset, limit, err := page(c)
	if err != nil {
		return err
	}
	n, err := h.allow.QueueLen(c.UserContext(), asset)
	if err != nil {
		return h.fail(c, err)
	}
	entries, err := h.allow.Entries(c.UserContext(), asset, offset, limit)
	if err != nil {
		return h.fail(c, err)
	}
	if entries == nil {
		entries = []hold.Entry{}
	}
	return c.JSON(holdList{Length: n, Offset: offset, Entries: entries})
}

func (h *Handler) AllowPending(c *fiber.Ctx) error {
	asset, err := addressParam(c, "asset")
	if err != nil {
		return err
	}
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	p, err := h.allow.PendingTransaction(c.UserContext(), asset, idx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(p)
}

type allowConfirmRequest struct {
	From address.Address `json:"from"`
}

func (h *Handler) AllowConfirm(c *fiber.Ctx) error {
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
	var req allowConfirmRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	settled, err := h.allow.ConfirmTransfer(c.UserContext(), who, req.From, asset, idx)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(settled)
}

package app

import (
	"context"
	"database/sql"
	"errors"

	"rewear/internal/metrics"
	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
)

// Action is a client-requested swap transition.
type Action string

// Supported transition actions.
const (
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// actorRule names which party of a swap may perform a transition.
type actorRule int

const (
	actorOwner actorRule = iota
	actorRequester
	actorEitherParty
)

// transition is one row of the swap state machine: the required prior
// status, the party allowed to act, the resulting status, whether both
// items flip to swapped, and the notification emitted to the counterparty.
type transition struct {
	from       models.SwapStatus
	actor      actorRule
	to         models.SwapStatus
	marksItems bool
	notifyType models.NotificationType
	message    string
}

// transitions is the single authority on legal swap state changes. Items
// are marked swapped at accept time, when both parties are committed;
// complete is informational only. Reject and cancel have no item or point
// side effects: nothing was committed while the swap was pending, and a
// points swap is never pending, so no transition ever refunds.
var transitions = map[Action]transition{
	ActionAccept: {
		from: models.SwapPending, actor: actorOwner, to: models.SwapAccepted,
		marksItems: true, notifyType: models.NotifySwapAccepted,
		message: "Your swap request was accepted",
	},
	ActionReject: {
		from: models.SwapPending, actor: actorOwner, to: models.SwapRejected,
		notifyType: models.NotifySwapRejected,
		message:    "Your swap request was rejected",
	},
	ActionCancel: {
		from: models.SwapPending, actor: actorRequester, to: models.SwapCancelled,
		notifyType: models.NotifySwapCancelled,
		message:    "A swap request for your item was cancelled",
	},
	ActionComplete: {
		from: models.SwapAccepted, actor: actorEitherParty, to: models.SwapCompleted,
		notifyType: models.NotifySwapCompleted,
		message:    "Your swap was marked completed",
	},
}

// ProcessRedeem is the points path of the exchange engine: the requester
// spends points equal to the item's valuation and the exchange completes
// synchronously, with no owner approval step. The debit, the item flip and
// the swap insert run in one storage transaction.
func (app *App) ProcessRedeem(ctx context.Context, requesterID, itemID int64) (*models.Swap, error) {
	item, err := app.requestableItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == requesterID {
		return nil, apperrors.New(apperrors.KindSelfSwapForbidden, "you cannot redeem your own item")
	}

	swap, err := app.db.RedeemItem(ctx, requesterID, item)
	if err != nil {
		return nil, err
	}

	metrics.RecordSwapCreated(string(models.SwapTypePoints))
	metrics.RecordPointsRedeemed(swap.PointsValue)

	app.notifier.Notify(models.Notification{
		RecipientID: item.OwnerID,
		SenderID:    &requesterID,
		Type:        models.NotifyItemRedeemed,
		SwapID:      &swap.ID,
		ItemID:      &item.ID,
		Message:     "Your item \"" + item.Title + "\" was redeemed for points",
	})

	return swap, nil
}

// ProcessCreateSwap is the item-for-item path of the exchange engine: a
// pending swap awaiting the owner's decision. Neither item changes status
// and no points move until the owner accepts.
func (app *App) ProcessCreateSwap(ctx context.Context, requesterID, itemRequestedID, itemOfferedID int64) (*models.Swap, error) {
	requested, err := app.requestableItem(ctx, itemRequestedID)
	if err != nil {
		return nil, err
	}
	if requested.OwnerID == requesterID {
		return nil, apperrors.New(apperrors.KindSelfSwapForbidden, "you cannot request your own item")
	}

	offered, err := app.db.GetItem(ctx, itemOfferedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindInvalidOffer, "offered item not found")
		}
		return nil, err
	}
	if offered.OwnerID != requesterID {
		return nil, apperrors.New(apperrors.KindInvalidOffer, "offered item is not yours")
	}
	if !offered.Status.Requestable() {
		return nil, apperrors.New(apperrors.KindInvalidOffer, "offered item is not available")
	}

	// Fast-path duplicate check; the partial unique index on pending pairs
	// is the authority, so a raced identical request still fails in
	// CreateSwap with DuplicateSwap.
	exists, err := app.db.HasPendingSwap(ctx, itemRequestedID, itemOfferedID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.New(apperrors.KindDuplicateSwap, "an identical swap request is already pending")
	}

	swap := &models.Swap{
		RequesterID:     requesterID,
		OwnerID:         requested.OwnerID,
		ItemRequestedID: requested.ID,
		ItemOfferedID:   &offered.ID,
		Type:            models.SwapTypeItem,
		PointsValue:     requested.PointsValue,
		Status:          models.SwapPending,
	}

	swap, err = app.db.CreateSwap(ctx, swap)
	if err != nil {
		return nil, err
	}

	metrics.RecordSwapCreated(string(models.SwapTypeItem))

	app.notifier.Notify(models.Notification{
		RecipientID: requested.OwnerID,
		SenderID:    &requesterID,
		Type:        models.NotifySwapRequested,
		SwapID:      &swap.ID,
		ItemID:      &requested.ID,
		Message:     "You received a swap request for \"" + requested.Title + "\"",
	})

	return swap, nil
}

// ProcessTransition applies a transition action to a swap on behalf of the
// actor. Authorization and the state precondition are validated against the
// transition table; the storage layer re-checks the prior status
// optimistically so concurrent transitions cannot double-apply.
func (app *App) ProcessTransition(ctx context.Context, actorID, swapID int64, action Action) (*models.Swap, error) {
	t, ok := transitions[action]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindBadRequest, "unknown action %q", action)
	}

	swap, err := app.getSwap(ctx, swapID)
	if err != nil {
		metrics.RecordSwapTransition(string(action), false)
		return nil, err
	}

	if err := authorizeActor(swap, actorID, t.actor); err != nil {
		metrics.RecordSwapTransition(string(action), false)
		return nil, err
	}
	if swap.Status != t.from {
		metrics.RecordSwapTransition(string(action), false)
		return nil, apperrors.Newf(apperrors.KindInvalidStateTransition,
			"cannot %s a %s swap", action, swap.Status)
	}

	if err := app.db.TransitionSwap(ctx, swap, t.from, t.to, t.marksItems); err != nil {
		metrics.RecordSwapTransition(string(action), false)
		return nil, err
	}
	metrics.RecordSwapTransition(string(action), true)

	recipient := swap.RequesterID
	if actorID == swap.RequesterID {
		recipient = swap.OwnerID
	}
	app.notifier.Notify(models.Notification{
		RecipientID: recipient,
		SenderID:    &actorID,
		Type:        t.notifyType,
		SwapID:      &swap.ID,
		ItemID:      &swap.ItemRequestedID,
		Message:     t.message,
	})

	return swap, nil
}

// ProcessGetSwap retrieves a swap; only its two parties may see it.
func (app *App) ProcessGetSwap(ctx context.Context, userID, swapID int64) (*models.Swap, error) {
	swap, err := app.getSwap(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.RequesterID != userID && swap.OwnerID != userID {
		return nil, apperrors.New(apperrors.KindNotAuthorized, "you are not a party to this swap")
	}
	return swap, nil
}

// ProcessListSwaps lists every swap where the user is requester or owner,
// newest first.
func (app *App) ProcessListSwaps(ctx context.Context, userID int64, limit, offset int) (*models.SwapListResponse, error) {
	const defaultPageSize = 20
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	swaps, err := app.db.ListSwaps(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &models.SwapListResponse{Swaps: swaps, Count: len(swaps), Limit: limit, Offset: offset}, nil
}

// requestableItem loads an item and checks it is eligible to be requested.
func (app *App) requestableItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := app.db.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindInvalidTarget, "item not found")
		}
		return nil, err
	}
	if !item.Status.Requestable() {
		return nil, apperrors.Newf(apperrors.KindInvalidTarget, "item is %s", item.Status)
	}
	return item, nil
}

func (app *App) getSwap(ctx context.Context, swapID int64) (*models.Swap, error) {
	swap, err := app.db.GetSwap(ctx, swapID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "swap not found")
		}
		return nil, err
	}
	return swap, nil
}

func authorizeActor(swap *models.Swap, actorID int64, rule actorRule) error {
	switch rule {
	case actorOwner:
		if swap.OwnerID != actorID {
			return apperrors.New(apperrors.KindNotAuthorized, "only the item owner may do this")
		}
	case actorRequester:
		if swap.RequesterID != actorID {
			return apperrors.New(apperrors.KindNotAuthorized, "only the requester may do this")
		}
	case actorEitherParty:
		if swap.OwnerID != actorID && swap.RequesterID != actorID {
			return apperrors.New(apperrors.KindNotAuthorized, "you are not a party to this swap")
		}
	}
	return nil
}

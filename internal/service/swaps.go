package service

import (
	"context"
	"net/http"
	"strconv"

	"rewear/internal/app"
	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
	"rewear/internal/pkg/auth"
)

// createSwapHandler creates a swap. The request type selects the path:
// "redeem" debits points and completes synchronously, "swap" opens a
// pending item-for-item exchange awaiting the owner's decision.
func (handlers *handlers) createSwapHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	var createRequest models.CreateSwapRequest
	if !handlers.decodeBody(res, req, &createRequest) {
		return
	}
	if createRequest.ItemRequestedID == 0 {
		writeErrorResponse(res, http.StatusBadRequest, string(apperrors.KindBadRequest), "itemRequestedId is required")
		return
	}

	var swap *models.Swap
	var err error
	switch createRequest.Type {
	case "redeem":
		swap, err = handlers.app.ProcessRedeem(ctx, userID, createRequest.ItemRequestedID)
	case "swap":
		if createRequest.ItemOfferedID == nil {
			writeErrorResponse(res, http.StatusBadRequest, string(apperrors.KindInvalidOffer), "itemOfferedId is required for an item swap")
			return
		}
		swap, err = handlers.app.ProcessCreateSwap(ctx, userID, createRequest.ItemRequestedID, *createRequest.ItemOfferedID)
	default:
		writeErrorResponse(res, http.StatusBadRequest, string(apperrors.KindBadRequest), `type must be "swap" or "redeem"`)
		return
	}
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusCreated, swap)
}

// mySwapsHandler lists every swap involving the caller, newest first.
func (handlers *handlers) mySwapsHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(req.URL.Query().Get("offset"))

	swaps, err := handlers.app.ProcessListSwaps(ctx, userID, limit, offset)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, swaps)
}

// getSwapHandler returns the full detail of one swap to either party.
func (handlers *handlers) getSwapHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	swapID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	swap, err := handlers.app.ProcessGetSwap(ctx, userID, swapID)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, swap)
}

// acceptSwapHandler lets the owner accept a pending swap; both items become
// swapped.
func (handlers *handlers) acceptSwapHandler(res http.ResponseWriter, req *http.Request) {
	handlers.transitionSwap(res, req, app.ActionAccept)
}

// rejectSwapHandler lets the owner reject a pending swap.
func (handlers *handlers) rejectSwapHandler(res http.ResponseWriter, req *http.Request) {
	handlers.transitionSwap(res, req, app.ActionReject)
}

// completeSwapHandler lets either party mark an accepted swap completed.
func (handlers *handlers) completeSwapHandler(res http.ResponseWriter, req *http.Request) {
	handlers.transitionSwap(res, req, app.ActionComplete)
}

// cancelSwapHandler lets the requester cancel a pending swap.
func (handlers *handlers) cancelSwapHandler(res http.ResponseWriter, req *http.Request) {
	handlers.transitionSwap(res, req, app.ActionCancel)
}

func (handlers *handlers) transitionSwap(res http.ResponseWriter, req *http.Request, action app.Action) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	swapID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	swap, err := handlers.app.ProcessTransition(ctx, userID, swapID, action)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, swap)
}

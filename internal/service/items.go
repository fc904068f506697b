package service

import (
	"context"
	"net/http"
	"strconv"

	"rewear/internal/models"
	"rewear/internal/pkg/auth"
)

// createItemHandler lists a new item; it enters the catalog pending
// moderation.
func (handlers *handlers) createItemHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	var createRequest models.CreateItemRequest
	if !handlers.decodeBody(res, req, &createRequest) {
		return
	}

	item, err := handlers.app.ProcessCreateItem(ctx, userID, createRequest)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusCreated, item)
}

// listItemsHandler browses the catalog. Regular browsing shows requestable
// items only; mine=true restricts to the caller's own items in any status.
func (handlers *handlers) listItemsHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	query := req.URL.Query()
	filter := models.ItemFilter{
		Category:  query.Get("category"),
		Size:      query.Get("size"),
		Condition: query.Get("condition"),
		Search:    query.Get("search"),
	}
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	filter.Offset, _ = strconv.Atoi(query.Get("offset"))
	if query.Get("mine") == "true" {
		filter.OwnerID = userID
	}

	items, err := handlers.app.ProcessListItems(ctx, filter)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, items)
}

// getItemHandler returns one item with its owner's name.
func (handlers *handlers) getItemHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	itemID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	item, err := handlers.app.ProcessGetItem(ctx, itemID)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, item)
}

// updateItemHandler edits an owned item.
func (handlers *handlers) updateItemHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	itemID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	var updateRequest models.UpdateItemRequest
	if !handlers.decodeBody(res, req, &updateRequest) {
		return
	}

	item, err := handlers.app.ProcessUpdateItem(ctx, userID, itemID, updateRequest)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, item)
}

// deleteItemHandler removes an item (owner or admin).
func (handlers *handlers) deleteItemHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	itemID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	role, _ := req.Context().Value(auth.ContextRole).(models.Role)
	if err := handlers.app.ProcessDeleteItem(ctx, userID, role, itemID); err != nil {
		handlers.writeError(res, err)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// approveItemHandler applies an admin approval to a pending item.
func (handlers *handlers) approveItemHandler(res http.ResponseWriter, req *http.Request) {
	handlers.moderateItem(res, req, true)
}

// rejectItemHandler applies an admin rejection to a pending item.
func (handlers *handlers) rejectItemHandler(res http.ResponseWriter, req *http.Request) {
	handlers.moderateItem(res, req, false)
}

func (handlers *handlers) moderateItem(res http.ResponseWriter, req *http.Request, approve bool) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	itemID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	item, err := handlers.app.ProcessModerateItem(ctx, itemID, approve)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, item)
}

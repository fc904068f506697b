// Package service contains HTTP handler implementations for the exchange
// API endpoints. It orchestrates request parsing, calls the underlying
// business logic in the app package, maps business failures to HTTP
// statuses through the apperrors kind table, and writes JSON responses.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"rewear/internal/app"
	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
	"rewear/internal/pkg/auth"
	"rewear/internal/pkg/logger"
)

const requestTimeout = 10 * time.Second

// handlers aggregates dependencies needed by HTTP handlers.
type handlers struct {
	app *app.App
	log *logger.Logger
}

// newHandlers initializes a new handlers instance with the provided app and
// logger dependencies.
func newHandlers(app *app.App, l *logger.Logger) *handlers {
	return &handlers{app: app, log: l}
}

// registerHandler creates a new account and returns a bearer token.
func (handlers *handlers) registerHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var registerRequest models.RegisterRequest
	if !handlers.decodeBody(res, req, &registerRequest) {
		return
	}

	token, err := handlers.app.ProcessRegister(ctx, registerRequest)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, models.AuthResponse{Token: token})
}

// loginHandler verifies credentials and returns a bearer token.
func (handlers *handlers) loginHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	var loginRequest models.LoginRequest
	if !handlers.decodeBody(res, req, &loginRequest) {
		return
	}

	token, err := handlers.app.ProcessLogin(ctx, loginRequest)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, models.AuthResponse{Token: token})
}

// profileHandler returns the caller's profile with the point balance.
func (handlers *handlers) profileHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	user, err := handlers.app.ProcessProfile(ctx, userID)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, user)
}

// leaderboardHandler returns the karma leaderboard. Public.
func (handlers *handlers) leaderboardHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	entries, err := handlers.app.ProcessLeaderboard(ctx, limit)
	if err != nil {
		handlers.writeError(res, err)
		return
	}

	handlers.writeJSON(res, http.StatusOK, entries)
}

// addWishlistHandler puts an item on the caller's wishlist.
func (handlers *handlers) addWishlistHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	itemID, ok := handlers.pathID(res, req, "itemID")
	if !ok {
		return
	}

	if err := handlers.app.ProcessAddWishlist(ctx, userID, itemID); err != nil {
		handlers.writeError(res, err)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// removeWishlistHandler drops an item from the caller's wishlist.
func (handlers *handlers) removeWishlistHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	itemID, ok := handlers.pathID(res, req, "itemID")
	if !ok {
		return
	}

	if err := handlers.app.ProcessRemoveWishlist(ctx, userID, itemID); err != nil {
		handlers.writeError(res, err)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// listWishlistHandler lists the items on the caller's wishlist.
func (handlers *handlers) listWishlistHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	items, err := handlers.app.ProcessWishlist(ctx, userID)
	if err != nil {
		handlers.writeError(res, err)
		return
	}
	handlers.writeJSON(res, http.StatusOK, items)
}

// notificationsHandler returns the caller's notification feed.
func (handlers *handlers) notificationsHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}

	feed, err := handlers.app.ProcessNotifications(ctx, userID)
	if err != nil {
		handlers.writeError(res, err)
		return
	}
	handlers.writeJSON(res, http.StatusOK, feed)
}

// markNotificationReadHandler flags one notification as read.
func (handlers *handlers) markNotificationReadHandler(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID, ok := auth.UserID(req.Context())
	if !ok {
		handlers.writeUnauthorized(res)
		return
	}
	notificationID, ok := handlers.pathID(res, req, "id")
	if !ok {
		return
	}

	if err := handlers.app.ProcessMarkNotificationRead(ctx, userID, notificationID); err != nil {
		handlers.writeError(res, err)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// decodeBody reads and unmarshals the request body into v, answering 400 on
// failure. Returns false when the request was already answered.
func (handlers *handlers) decodeBody(res http.ResponseWriter, req *http.Request, v interface{}) bool {
	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		writeErrorResponse(res, http.StatusBadRequest, string(apperrors.KindBadRequest), err.Error())
		return false
	}
	if err := json.Unmarshal(requestBody, v); err != nil {
		writeErrorResponse(res, http.StatusBadRequest, string(apperrors.KindBadRequest), err.Error())
		return false
	}
	return true
}

// pathID parses a numeric chi URL parameter, answering 400 on failure.
func (handlers *handlers) pathID(res http.ResponseWriter, req *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, name), 10, 64)
	if err != nil || id <= 0 {
		writeErrorResponse(res, http.StatusBadRequest, string(apperrors.KindBadRequest), "invalid "+name)
		return 0, false
	}
	return id, true
}

// writeError maps a business failure to its HTTP status and kind; anything
// that is not an apperrors.Error is logged and answered as a 500.
func (handlers *handlers) writeError(res http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		writeErrorResponse(res, appErr.HTTPStatus(), string(appErr.Kind), appErr.Message)
		return
	}
	handlers.log.Error("unexpected failure", zap.Error(err))
	writeErrorResponse(res, http.StatusInternalServerError, string(apperrors.KindInternal), "internal error")
}

func (handlers *handlers) writeUnauthorized(res http.ResponseWriter) {
	writeErrorResponse(res, http.StatusUnauthorized, string(apperrors.KindUnauthenticated), "unauthorized")
}

func (handlers *handlers) writeJSON(res http.ResponseWriter, statusCode int, v interface{}) {
	result, err := json.Marshal(v)
	if err != nil {
		writeErrorResponse(res, http.StatusInternalServerError, string(apperrors.KindInternal), err.Error())
		return
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	res.Write(result)
}

func writeErrorResponse(res http.ResponseWriter, statusCode int, code, message string) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	json.NewEncoder(res).Encode(models.ErrorBody{Error: models.ErrorDetail{Code: code, Message: message}})
}

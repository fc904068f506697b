// Package app provides the core business logic for the clothing exchange.
// It handles registration and login, the item catalog with its moderation
// lifecycle, wishlists, the notification feed, the karma leaderboard, and
// the exchange engine (see exchange.go). The package integrates with the
// storage layer for persistence and uses the auth package for token
// generation; business failures are reported as apperrors kinds.
package app

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
	"rewear/internal/pkg/auth"
	"rewear/internal/pkg/logger"
	"rewear/internal/storage"
)

// Notifier delivers best-effort notifications to users. Implementations
// must never block the caller on delivery and must swallow failures.
type Notifier interface {
	Notify(n models.Notification)
}

// App encapsulates the application logic and dependencies required to
// process requests.
type App struct {
	db          storage.Storage
	notifier    Notifier
	log         *logger.Logger
	signupBonus int
}

// NewApp creates and returns a new App with the provided dependencies.
// signupBonus is the point balance granted to new accounts.
func NewApp(db storage.Storage, notifier Notifier, l *logger.Logger, signupBonus int) *App {
	return &App{db: db, notifier: notifier, log: l, signupBonus: signupBonus}
}

// ProcessRegister creates a new account with the starting point bonus and
// returns a signed token.
func (app *App) ProcessRegister(ctx context.Context, req models.RegisterRequest) (string, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return "", apperrors.New(apperrors.KindBadRequest, "missing name, email or password")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: req.Password,
		Role:     models.RoleUser,
		Points:   app.signupBonus,
	}

	user, err := app.db.CreateUser(ctx, user)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
			return "", apperrors.New(apperrors.KindDuplicateEmail, "user with provided email already exists")
		}
		return "", err
	}

	return auth.GenerateToken(user.ID, user.Role)
}

// ProcessLogin verifies credentials and returns a signed token.
func (app *App) ProcessLogin(ctx context.Context, req models.LoginRequest) (string, error) {
	if req.Email == "" || req.Password == "" {
		return "", apperrors.New(apperrors.KindBadRequest, "missing email or password")
	}

	user, err := app.db.CheckUser(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", apperrors.New(apperrors.KindUnauthenticated, "invalid email or password")
		}
		return "", err
	}

	return auth.GenerateToken(user.ID, user.Role)
}

// ProcessProfile retrieves the caller's profile with the point balance.
func (app *App) ProcessProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := app.db.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

// ProcessLeaderboard returns the karma leaderboard.
func (app *App) ProcessLeaderboard(ctx context.Context, limit int) ([]models.KarmaEntry, error) {
	const defaultLeaderboardSize = 10
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardSize
	}
	return app.db.Leaderboard(ctx, limit)
}

// ProcessCreateItem lists a new item. The item enters the catalog pending
// moderation; its point valuation is derived from the condition once here.
func (app *App) ProcessCreateItem(ctx context.Context, ownerID int64, req models.CreateItemRequest) (*models.Item, error) {
	if req.Title == "" || req.Condition == "" {
		return nil, apperrors.New(apperrors.KindBadRequest, "missing title or condition")
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Type:        req.Type,
		Size:        req.Size,
		Condition:   req.Condition,
		Brand:       req.Brand,
		Color:       req.Color,
		ImageURLs:   req.ImageURLs,
		PointsValue: models.PointsForCondition(req.Condition),
		Status:      models.ItemPending,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
	if item.ImageURLs == nil {
		item.ImageURLs = []string{}
	}

	return app.db.CreateItem(ctx, item)
}

// ProcessGetItem retrieves one item.
func (app *App) ProcessGetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := app.db.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.New(apperrors.KindNotFound, "item not found")
		}
		return nil, err
	}
	return item, nil
}

// ProcessListItems lists catalog items matching the filter.
func (app *App) ProcessListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	const defaultPageSize = 20
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return app.db.ListItems(ctx, filter)
}

// ProcessUpdateItem edits an owned item. Swapped items are frozen; editing
// the condition recomputes the point valuation.
func (app *App) ProcessUpdateItem(ctx context.Context, userID, itemID int64, req models.UpdateItemRequest) (*models.Item, error) {
	item, err := app.ProcessGetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != userID {
		return nil, apperrors.New(apperrors.KindNotAuthorized, "only the owner may edit an item")
	}
	if item.Status == models.ItemSwapped {
		return nil, apperrors.New(apperrors.KindInvalidStateTransition, "swapped items cannot be edited")
	}

	applyString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	applyString(&item.Title, req.Title)
	applyString(&item.Description, req.Description)
	applyString(&item.Category, req.Category)
	applyString(&item.Type, req.Type)
	applyString(&item.Size, req.Size)
	applyString(&item.Brand, req.Brand)
	applyString(&item.Color, req.Color)
	if req.ImageURLs != nil {
		item.ImageURLs = req.ImageURLs
	}
	if req.Condition != nil && *req.Condition != item.Condition {
		item.Condition = *req.Condition
		item.PointsValue = models.PointsForCondition(item.Condition)
	}

	if err := app.db.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ProcessDeleteItem removes an item. Only the owner or an admin may delete,
// never while the item is swapped or part of a pending or accepted swap.
// Terminal swap rows keep their history; deleting the item nulls their item
// references.
func (app *App) ProcessDeleteItem(ctx context.Context, userID int64, role models.Role, itemID int64) error {
	item, err := app.ProcessGetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != userID && role != models.RoleAdmin {
		return apperrors.New(apperrors.KindNotAuthorized, "only the owner or an admin may delete an item")
	}
	if item.Status == models.ItemSwapped {
		return apperrors.New(apperrors.KindInvalidStateTransition, "swapped items cannot be deleted")
	}
	active, err := app.db.HasActiveSwap(ctx, itemID)
	if err != nil {
		return err
	}
	if active {
		return apperrors.New(apperrors.KindInvalidStateTransition, "item has an active swap")
	}
	return app.db.DeleteItem(ctx, itemID)
}

// ProcessModerateItem applies an admin moderation decision to a pending
// item and notifies its owner.
func (app *App) ProcessModerateItem(ctx context.Context, itemID int64, approve bool) (*models.Item, error) {
	item, err := app.ProcessGetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != models.ItemPending {
		return nil, apperrors.Newf(apperrors.KindInvalidStateTransition, "item is %s, not pending", item.Status)
	}

	status := models.ItemApproved
	notifyType := models.NotifyItemApproved
	if !approve {
		status = models.ItemRejected
		notifyType = models.NotifyItemRejected
	}
	if err := app.db.SetItemStatus(ctx, itemID, status); err != nil {
		return nil, err
	}
	item.Status = status

	app.notifier.Notify(models.Notification{
		RecipientID: item.OwnerID,
		Type:        notifyType,
		ItemID:      &item.ID,
		Message:     "Your listing \"" + item.Title + "\" was " + string(status),
	})

	return item, nil
}

// ProcessAddWishlist puts an existing, requestable item on the wishlist.
func (app *App) ProcessAddWishlist(ctx context.Context, userID, itemID int64) error {
	item, err := app.ProcessGetItem(ctx, itemID)
	if err != nil {
		return err
	}
	if !item.Status.Requestable() {
		return apperrors.New(apperrors.KindInvalidTarget, "item is not available")
	}
	return app.db.AddWishlistItem(ctx, userID, itemID)
}

// ProcessRemoveWishlist drops an item reference from the wishlist.
func (app *App) ProcessRemoveWishlist(ctx context.Context, userID, itemID int64) error {
	return app.db.RemoveWishlistItem(ctx, userID, itemID)
}

// ProcessWishlist lists the items on the caller's wishlist.
func (app *App) ProcessWishlist(ctx context.Context, userID int64) ([]models.Item, error) {
	return app.db.ListWishlist(ctx, userID)
}

// ProcessNotifications returns the caller's notification feed.
func (app *App) ProcessNotifications(ctx context.Context, userID int64) (*models.NotificationFeed, error) {
	return app.db.ListNotifications(ctx, userID)
}

// ProcessMarkNotificationRead flags one of the caller's notifications as
// read.
func (app *App) ProcessMarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	err := app.db.MarkNotificationRead(ctx, userID, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.New(apperrors.KindNotFound, "notification not found")
	}
	return err
}

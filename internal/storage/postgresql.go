// Package storage provides primitives for connecting to and interacting
// with data storage systems. It defines the Storage interface along with a
// PostgreSQL implementation that manages users and their point balances,
// the item catalog, swap records, wishlists and notifications.
//
// The exchange-critical mutations are conditional: the point debit and
// every swap status change carry their precondition in the WHERE clause, so
// a raced request loses cleanly (zero rows affected) instead of
// double-applying.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
	"rewear/internal/pkg/logger"
	"rewear/internal/pkg/security"
)

const (
	createUserQuery = `INSERT INTO users (name, email, password_hash, role, points) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at;`
	checkUserQuery  = `SELECT id, name, password_hash, role, points, created_at FROM users WHERE email = $1;`
	getUserQuery    = `SELECT id, name, email, role, points, created_at FROM users WHERE id = $1;`

	createItemQuery = `INSERT INTO items (owner_id, title, description, category, item_type, size, condition, brand, color, image_urls, points_value, status, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id, created_at, updated_at;`
	getItemQuery = `SELECT i.id, i.owner_id, u.name, i.title, i.description, i.category, i.item_type, i.size, i.condition, i.brand, i.color, i.image_urls, i.points_value, i.status, i.latitude, i.longitude, i.created_at, i.updated_at
		FROM items i JOIN users u ON u.id = i.owner_id WHERE i.id = $1;`
	updateItemQuery = `UPDATE items SET title = $1, description = $2, category = $3, item_type = $4, size = $5, condition = $6, brand = $7, color = $8, image_urls = $9, points_value = $10, updated_at = NOW()
		WHERE id = $11;`
	deleteItemQuery     = `DELETE FROM items WHERE id = $1;`
	setItemStatusQuery  = `UPDATE items SET status = $1, updated_at = NOW() WHERE id = $2;`
	claimItemQuery      = `UPDATE items SET status = 'swapped', updated_at = NOW() WHERE id = $1 AND status IN ('approved', 'available');`
	debitPointsQuery    = `UPDATE users SET points = points - $1, updated_at = NOW() WHERE id = $2 AND points >= $1;`
	createSwapQuery     = `INSERT INTO swaps (requester_id, owner_id, item_requested_id, item_offered_id, swap_type, points_value, status) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at;`
	pendingSwapQuery    = `SELECT COUNT(*) FROM swaps WHERE item_requested_id = $1 AND item_offered_id = $2 AND status = 'pending';`
	activeSwapQuery     = `SELECT COUNT(*) FROM swaps WHERE (item_requested_id = $1 OR item_offered_id = $1) AND status IN ('pending', 'accepted');`
	transitionSwapQuery = `UPDATE swaps SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3;`

	swapSelectColumns = `s.id, s.requester_id, s.owner_id, s.item_requested_id, s.item_offered_id, s.swap_type, s.points_value, s.status, s.created_at, s.updated_at,
		ru.name, ou.name,
		ir.id, ir.title, ir.points_value, ir.status,
		io.id, io.title, io.points_value, io.status`
	swapSelectJoins = ` FROM swaps s
		JOIN users ru ON ru.id = s.requester_id
		JOIN users ou ON ou.id = s.owner_id
		LEFT JOIN items ir ON ir.id = s.item_requested_id
		LEFT JOIN items io ON io.id = s.item_offered_id`

	getSwapQuery   = `SELECT ` + swapSelectColumns + swapSelectJoins + ` WHERE s.id = $1;`
	listSwapsQuery = `SELECT ` + swapSelectColumns + swapSelectJoins + `
		WHERE s.requester_id = $1 OR s.owner_id = $1
		ORDER BY s.created_at DESC LIMIT $2 OFFSET $3;`

	leaderboardQuery = `SELECT u.id, u.name,
		(SELECT COUNT(*) FROM items i WHERE i.owner_id = u.id) AS items_listed,
		(SELECT COUNT(*) FROM swaps s WHERE s.status = 'completed' AND (s.requester_id = u.id OR s.owner_id = u.id)) AS swaps_completed
		FROM users u WHERE u.role = 'user'
		ORDER BY items_listed * 5 + swaps_completed * 10 DESC, u.id ASC LIMIT $1;`

	addWishlistQuery    = `INSERT INTO wishlists (user_id, item_id) VALUES ($1, $2) ON CONFLICT DO NOTHING;`
	removeWishlistQuery = `DELETE FROM wishlists WHERE user_id = $1 AND item_id = $2;`
	listWishlistQuery   = `SELECT i.id, i.owner_id, u.name, i.title, i.description, i.category, i.item_type, i.size, i.condition, i.brand, i.color, i.image_urls, i.points_value, i.status, i.latitude, i.longitude, i.created_at, i.updated_at
		FROM wishlists w JOIN items i ON i.id = w.item_id JOIN users u ON u.id = i.owner_id
		WHERE w.user_id = $1 ORDER BY w.created_at DESC;`

	createNotificationQuery = `INSERT INTO notifications (recipient_id, sender_id, notification_type, swap_id, item_id, message) VALUES ($1, $2, $3, $4, $5, $6);`
	listNotificationsQuery  = `SELECT id, recipient_id, sender_id, notification_type, swap_id, item_id, message, is_read, created_at
		FROM notifications WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT 100;`
	markNotificationQuery = `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2;`
)

// Storage defines the methods required for data storage operations.
// Row-absence surfaces as sql.ErrNoRows; failed conditional mutations
// surface as *apperrors.Error with the matching kind.
type Storage interface {
	// Close closes the database connection.
	Close()

	// Identity methods.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	CheckUser(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	Leaderboard(ctx context.Context, limit int) ([]models.KarmaEntry, error)

	// Catalog methods.
	CreateItem(ctx context.Context, item *models.Item) (*models.Item, error)
	GetItem(ctx context.Context, itemID int64) (*models.Item, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, itemID int64) error
	SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) error

	// Exchange engine operations.
	RedeemItem(ctx context.Context, requesterID int64, item *models.Item) (*models.Swap, error)
	CreateSwap(ctx context.Context, swap *models.Swap) (*models.Swap, error)
	GetSwap(ctx context.Context, swapID int64) (*models.Swap, error)
	HasActiveSwap(ctx context.Context, itemID int64) (bool, error)
	HasPendingSwap(ctx context.Context, itemRequestedID, itemOfferedID int64) (bool, error)
	TransitionSwap(ctx context.Context, swap *models.Swap, from, to models.SwapStatus, markItemsSwapped bool) error
	ListSwaps(ctx context.Context, userID int64, limit, offset int) ([]models.Swap, error)

	// Wishlist methods.
	AddWishlistItem(ctx context.Context, userID, itemID int64) error
	RemoveWishlistItem(ctx context.Context, userID, itemID int64) error
	ListWishlist(ctx context.Context, userID int64) ([]models.Item, error)

	// Notification methods.
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID int64) (*models.NotificationFeed, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID int64) error
}

// PostgreSQL implements the Storage interface using a PostgreSQL database.
type PostgreSQL struct {
	db  *sql.DB        // Connection to the database.
	log *logger.Logger // Logger for recording events and errors.
}

// NewPostgreSQL creates a new PostgreSQL instance with the provided
// connection string and logger. It opens the connection, pings the database
// and bootstraps the schema.
func NewPostgreSQL(configDBString string, l *logger.Logger) (*PostgreSQL, error) {
	db, err := sql.Open("pgx", configDBString)
	if err != nil {
		l.Sugar().Errorf("Failed to open a database: %s", err)
		return &PostgreSQL{db: db, log: l}, err
	}

	const defaultTimeout = 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		l.Sugar().Errorf("Database ping failed: %s", err)
		return &PostgreSQL{db: db, log: l}, err
	}

	if err := createSchema(ctx, db); err != nil {
		l.Sugar().Errorf("Schema bootstrap failed: %s", err)
		return &PostgreSQL{db: db, log: l}, err
	}

	return &PostgreSQL{db: db, log: l}, nil
}

// SeedAdmin creates the configured admin account when it does not exist.
func (postgresql *PostgreSQL) SeedAdmin(ctx context.Context, email, password string) error {
	return seedAdmin(ctx, postgresql.db, email, password)
}

// Close closes the database connection if it is open.
func (postgresql *PostgreSQL) Close() {
	if postgresql.db != nil {
		postgresql.db.Close()
	}
}

// CreateUser registers a new user by hashing the password and inserting the
// user into the database.
func (postgresql *PostgreSQL) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.PasswordHash = security.HashPassword(user.Password)

	err := postgresql.db.QueryRowContext(ctx, createUserQuery,
		user.Name, user.Email, user.PasswordHash, user.Role, user.Points).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createUserQuery: %s", err)
		return user, err
	}
	return user, nil
}

// CheckUser verifies the user's credentials by retrieving the stored hash
// for the email and checking the provided password against it.
func (postgresql *PostgreSQL) CheckUser(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{Email: email}

	err := postgresql.db.QueryRowContext(ctx, checkUserQuery, email).Scan(
		&user.ID, &user.Name, &user.PasswordHash, &user.Role, &user.Points, &user.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			postgresql.log.Sugar().Errorf("Failed to execute a query checkUserQuery: %s", err)
		}
		return user, err
	}

	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		return user, err
	}

	return user, nil
}

// GetUser retrieves a user's profile and point balance by id.
func (postgresql *PostgreSQL) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}

	err := postgresql.db.QueryRowContext(ctx, getUserQuery, userID).Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.Points, &user.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			postgresql.log.Sugar().Errorf("Failed to execute a query getUserQuery: %s", err)
		}
		return user, err
	}

	return user, nil
}

// Leaderboard returns the top users ordered by karma
// (items listed x5 + completed swaps x10).
func (postgresql *PostgreSQL) Leaderboard(ctx context.Context, limit int) ([]models.KarmaEntry, error) {
	rows, err := postgresql.db.QueryContext(ctx, leaderboardQuery, limit)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query leaderboardQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.KarmaEntry, 0, limit)
	for rows.Next() {
		entry := models.KarmaEntry{}
		if err := rows.Scan(&entry.UserID, &entry.Name, &entry.ItemsListed, &entry.SwapsCompleted); err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan leaderboard row: %s", err)
			return nil, err
		}
		entry.Karma = entry.ItemsListed*5 + entry.SwapsCompleted*10
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in Leaderboard method: %s", err)
		return entries, err
	}

	return entries, nil
}

// CreateItem inserts a new catalog item.
func (postgresql *PostgreSQL) CreateItem(ctx context.Context, item *models.Item) (*models.Item, error) {
	imageURLs, err := json.Marshal(item.ImageURLs)
	if err != nil {
		return item, err
	}

	err = postgresql.db.QueryRowContext(ctx, createItemQuery,
		item.OwnerID, item.Title, item.Description, item.Category, item.Type, item.Size,
		item.Condition, item.Brand, item.Color, imageURLs, item.PointsValue, item.Status,
		item.Latitude, item.Longitude).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createItemQuery: %s", err)
		return item, err
	}
	return item, nil
}

// GetItem retrieves a single item joined with its owner's name.
func (postgresql *PostgreSQL) GetItem(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := scanItem(postgresql.db.QueryRowContext(ctx, getItemQuery, itemID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			postgresql.log.Sugar().Errorf("Failed to execute a query getItemQuery: %s", err)
		}
		return item, err
	}
	return item, nil
}

// ListItems returns catalog items matching the filter, newest first.
// Without an owner constraint only requestable items are listed.
func (postgresql *PostgreSQL) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	query := `SELECT i.id, i.owner_id, u.name, i.title, i.description, i.category, i.item_type, i.size, i.condition, i.brand, i.color, i.image_urls, i.points_value, i.status, i.latitude, i.longitude, i.created_at, i.updated_at
		FROM items i JOIN users u ON u.id = i.owner_id`

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != 0 {
		conditions = append(conditions, "i.owner_id = "+arg(filter.OwnerID))
	} else {
		conditions = append(conditions, "i.status IN ('approved', 'available')")
	}
	if filter.Category != "" {
		conditions = append(conditions, "i.category = "+arg(filter.Category))
	}
	if filter.Size != "" {
		conditions = append(conditions, "i.size = "+arg(filter.Size))
	}
	if filter.Condition != "" {
		conditions = append(conditions, "i.condition = "+arg(filter.Condition))
	}
	if filter.Search != "" {
		conditions = append(conditions, "i.title ILIKE '%' || "+arg(filter.Search)+" || '%'")
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY i.created_at DESC LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)

	rows, err := postgresql.db.QueryContext(ctx, query, args...)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query in ListItems method: %s", err)
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Item, 0, filter.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan item row in ListItems method: %s", err)
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in ListItems method: %s", err)
		return items, err
	}

	return items, nil
}

// UpdateItem persists the mutable fields of an item, including a
// recomputed point valuation.
func (postgresql *PostgreSQL) UpdateItem(ctx context.Context, item *models.Item) error {
	imageURLs, err := json.Marshal(item.ImageURLs)
	if err != nil {
		return err
	}

	_, err = postgresql.db.ExecContext(ctx, updateItemQuery,
		item.Title, item.Description, item.Category, item.Type, item.Size, item.Condition,
		item.Brand, item.Color, imageURLs, item.PointsValue, item.ID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query updateItemQuery: %s", err)
		return err
	}
	return nil
}

// DeleteItem removes an item from the catalog.
func (postgresql *PostgreSQL) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := postgresql.db.ExecContext(ctx, deleteItemQuery, itemID); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query deleteItemQuery: %s", err)
		return err
	}
	return nil
}

// SetItemStatus sets the moderation status of an item.
func (postgresql *PostgreSQL) SetItemStatus(ctx context.Context, itemID int64, status models.ItemStatus) error {
	if _, err := postgresql.db.ExecContext(ctx, setItemStatusQuery, status, itemID); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query setItemStatusQuery: %s", err)
		return err
	}
	return nil
}

// RedeemItem performs the points-redemption path in a single transaction:
// a conditional debit of the requester's balance, a conditional flip of the
// item to swapped, and the insertion of an already-completed swap record.
// The balance precondition lives in the debit's WHERE clause, so two
// concurrent redemptions can never overspend.
func (postgresql *PostgreSQL) RedeemItem(ctx context.Context, requesterID int64, item *models.Item) (*models.Swap, error) {
	tx, err := postgresql.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, debitPointsQuery, item.PointsValue, requesterID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query debitPointsQuery: %s", err)
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, apperrors.Newf(apperrors.KindInsufficientPoints,
			"balance below %d points", item.PointsValue)
	}

	result, err = tx.ExecContext(ctx, claimItemQuery, item.ID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query claimItemQuery: %s", err)
		return nil, err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return nil, err
	} else if rows == 0 {
		return nil, apperrors.New(apperrors.KindInvalidTarget, "item is no longer available")
	}

	swap := &models.Swap{
		RequesterID:     requesterID,
		OwnerID:         item.OwnerID,
		ItemRequestedID: item.ID,
		Type:            models.SwapTypePoints,
		PointsValue:     item.PointsValue,
		Status:          models.SwapCompleted,
	}
	err = tx.QueryRowContext(ctx, createSwapQuery,
		swap.RequesterID, swap.OwnerID, swap.ItemRequestedID, nil, swap.Type,
		swap.PointsValue, swap.Status).Scan(&swap.ID, &swap.CreatedAt, &swap.UpdatedAt)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createSwapQuery: %s", err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return swap, nil
}

// CreateSwap inserts a pending item-for-item swap record. A partial unique
// index on the pending (requested, offered) pair backs the duplicate check,
// so a raced identical request fails here with DuplicateSwap.
func (postgresql *PostgreSQL) CreateSwap(ctx context.Context, swap *models.Swap) (*models.Swap, error) {
	err := postgresql.db.QueryRowContext(ctx, createSwapQuery,
		swap.RequesterID, swap.OwnerID, swap.ItemRequestedID, swap.ItemOfferedID,
		swap.Type, swap.PointsValue, swap.Status).Scan(&swap.ID, &swap.CreatedAt, &swap.UpdatedAt)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
			return swap, apperrors.New(apperrors.KindDuplicateSwap, "an identical swap request is already pending")
		}
		postgresql.log.Sugar().Errorf("Failed to execute a query createSwapQuery: %s", err)
		return swap, err
	}
	return swap, nil
}

// GetSwap retrieves a swap joined with both parties and item summaries.
func (postgresql *PostgreSQL) GetSwap(ctx context.Context, swapID int64) (*models.Swap, error) {
	swap, err := scanSwap(postgresql.db.QueryRowContext(ctx, getSwapQuery, swapID))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			postgresql.log.Sugar().Errorf("Failed to execute a query getSwapQuery: %s", err)
		}
		return swap, err
	}
	return swap, nil
}

// HasActiveSwap reports whether a pending or accepted swap references the
// item on either side.
func (postgresql *PostgreSQL) HasActiveSwap(ctx context.Context, itemID int64) (bool, error) {
	var count int
	err := postgresql.db.QueryRowContext(ctx, activeSwapQuery, itemID).Scan(&count)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query activeSwapQuery: %s", err)
		return false, err
	}
	return count > 0, nil
}

// HasPendingSwap reports whether a pending swap for the same item pair
// already exists.
func (postgresql *PostgreSQL) HasPendingSwap(ctx context.Context, itemRequestedID, itemOfferedID int64) (bool, error) {
	var count int
	err := postgresql.db.QueryRowContext(ctx, pendingSwapQuery, itemRequestedID, itemOfferedID).Scan(&count)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query pendingSwapQuery: %s", err)
		return false, err
	}
	return count > 0, nil
}

// TransitionSwap moves a swap from one status to another with an optimistic
// guard on the expected prior status: when a concurrent request already
// moved the swap, zero rows are affected and the transition fails with
// InvalidStateTransition. When markItemsSwapped is set (the accept
// transition), both items are claimed in the same transaction with the same
// conditional update the redeem path uses: an item that left the requestable
// state while the swap sat pending fails the claim with InvalidTarget and
// the whole transition rolls back.
func (postgresql *PostgreSQL) TransitionSwap(ctx context.Context, swap *models.Swap, from, to models.SwapStatus, markItemsSwapped bool) error {
	tx, err := postgresql.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, transitionSwapQuery, to, swap.ID, from)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query transitionSwapQuery: %s", err)
		return err
	}
	if rows, err := result.RowsAffected(); err != nil {
		return err
	} else if rows == 0 {
		return apperrors.Newf(apperrors.KindInvalidStateTransition,
			"swap is no longer %s", from)
	}

	if markItemsSwapped {
		itemIDs := []int64{swap.ItemRequestedID}
		if swap.ItemOfferedID != nil {
			itemIDs = append(itemIDs, *swap.ItemOfferedID)
		}
		for _, itemID := range itemIDs {
			result, err := tx.ExecContext(ctx, claimItemQuery, itemID)
			if err != nil {
				postgresql.log.Sugar().Errorf("Failed to execute a query claimItemQuery: %s", err)
				return err
			}
			if rows, err := result.RowsAffected(); err != nil {
				return err
			} else if rows == 0 {
				return apperrors.New(apperrors.KindInvalidTarget, "item is no longer available")
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	swap.Status = to
	return nil
}

// ListSwaps returns every swap where the user is requester or owner,
// newest first, joined with item summaries and party names.
func (postgresql *PostgreSQL) ListSwaps(ctx context.Context, userID int64, limit, offset int) ([]models.Swap, error) {
	rows, err := postgresql.db.QueryContext(ctx, listSwapsQuery, userID, limit, offset)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query listSwapsQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	swaps := make([]models.Swap, 0, limit)
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan swap row in ListSwaps method: %s", err)
			return nil, err
		}
		swaps = append(swaps, *swap)
	}

	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in ListSwaps method: %s", err)
		return swaps, err
	}

	return swaps, nil
}

// AddWishlistItem records set membership; adding twice is a no-op.
func (postgresql *PostgreSQL) AddWishlistItem(ctx context.Context, userID, itemID int64) error {
	if _, err := postgresql.db.ExecContext(ctx, addWishlistQuery, userID, itemID); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query addWishlistQuery: %s", err)
		return err
	}
	return nil
}

// RemoveWishlistItem removes an item reference from the user's wishlist.
func (postgresql *PostgreSQL) RemoveWishlistItem(ctx context.Context, userID, itemID int64) error {
	if _, err := postgresql.db.ExecContext(ctx, removeWishlistQuery, userID, itemID); err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query removeWishlistQuery: %s", err)
		return err
	}
	return nil
}

// ListWishlist returns the full items on the user's wishlist, newest first.
func (postgresql *PostgreSQL) ListWishlist(ctx context.Context, userID int64) ([]models.Item, error) {
	rows, err := postgresql.db.QueryContext(ctx, listWishlistQuery, userID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query listWishlistQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	const initialWishlistCapacity = 10
	items := make([]models.Item, 0, initialWishlistCapacity)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan item row in ListWishlist method: %s", err)
			return nil, err
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in ListWishlist method: %s", err)
		return items, err
	}

	return items, nil
}

// CreateNotification inserts a notification record.
func (postgresql *PostgreSQL) CreateNotification(ctx context.Context, n *models.Notification) error {
	_, err := postgresql.db.ExecContext(ctx, createNotificationQuery,
		n.RecipientID, n.SenderID, n.Type, n.SwapID, n.ItemID, n.Message)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query createNotificationQuery: %s", err)
		return err
	}
	return nil
}

// ListNotifications returns the user's notification feed, newest first,
// together with the unread count.
func (postgresql *PostgreSQL) ListNotifications(ctx context.Context, userID int64) (*models.NotificationFeed, error) {
	rows, err := postgresql.db.QueryContext(ctx, listNotificationsQuery, userID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query listNotificationsQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	feed := &models.NotificationFeed{Notifications: make([]models.Notification, 0, 10)}
	for rows.Next() {
		n := models.Notification{}
		var senderID, swapID, itemID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.RecipientID, &senderID, &n.Type, &swapID, &itemID,
			&n.Message, &n.Read, &n.CreatedAt); err != nil {
			postgresql.log.Sugar().Errorf("Failed to scan notification row: %s", err)
			return nil, err
		}
		if senderID.Valid {
			n.SenderID = &senderID.Int64
		}
		if swapID.Valid {
			n.SwapID = &swapID.Int64
		}
		if itemID.Valid {
			n.ItemID = &itemID.Int64
		}
		if !n.Read {
			feed.Unread++
		}
		feed.Notifications = append(feed.Notifications, n)
	}

	if err := rows.Err(); err != nil {
		postgresql.log.Sugar().Errorf("The last error encountered by Rows.Scan in ListNotifications method: %s", err)
		return feed, err
	}

	return feed, nil
}

// MarkNotificationRead flags a notification as read; the recipient guard is
// part of the UPDATE so a foreign notification simply affects zero rows.
func (postgresql *PostgreSQL) MarkNotificationRead(ctx context.Context, userID, notificationID int64) error {
	result, err := postgresql.db.ExecContext(ctx, markNotificationQuery, notificationID, userID)
	if err != nil {
		postgresql.log.Sugar().Errorf("Failed to execute a query markNotificationQuery: %s", err)
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var imageURLs []byte
	var latitude, longitude sql.NullFloat64

	err := row.Scan(&item.ID, &item.OwnerID, &item.OwnerName, &item.Title, &item.Description,
		&item.Category, &item.Type, &item.Size, &item.Condition, &item.Brand, &item.Color,
		&imageURLs, &item.PointsValue, &item.Status, &latitude, &longitude,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return item, err
	}

	if err := json.Unmarshal(imageURLs, &item.ImageURLs); err != nil {
		item.ImageURLs = []string{}
	}
	if latitude.Valid {
		item.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		item.Longitude = &longitude.Float64
	}

	return item, nil
}

// scanSwap reads one joined swap row. Item references are nullable: deleting
// an item sets the foreign keys of its historical swap rows to NULL, so both
// summaries may be absent.
func scanSwap(row rowScanner) (*models.Swap, error) {
	swap := &models.Swap{}
	var itemRequestedID, itemOfferedID sql.NullInt64
	var requestedID, offeredID sql.NullInt64
	var requestedTitle, offeredTitle sql.NullString
	var requestedPoints, offeredPoints sql.NullInt64
	var requestedStatus, offeredStatus sql.NullString

	err := row.Scan(&swap.ID, &swap.RequesterID, &swap.OwnerID, &itemRequestedID,
		&itemOfferedID, &swap.Type, &swap.PointsValue, &swap.Status, &swap.CreatedAt,
		&swap.UpdatedAt, &swap.RequesterName, &swap.OwnerName,
		&requestedID, &requestedTitle, &requestedPoints, &requestedStatus,
		&offeredID, &offeredTitle, &offeredPoints, &offeredStatus)
	if err != nil {
		return swap, err
	}

	swap.ItemRequestedID = itemRequestedID.Int64
	if requestedID.Valid {
		swap.ItemRequested = &models.ItemSummary{
			ID:          requestedID.Int64,
			Title:       requestedTitle.String,
			PointsValue: int(requestedPoints.Int64),
			Status:      models.ItemStatus(requestedStatus.String),
		}
	}
	if itemOfferedID.Valid {
		swap.ItemOfferedID = &itemOfferedID.Int64
	}
	if offeredID.Valid {
		swap.ItemOffered = &models.ItemSummary{
			ID:          offeredID.Int64,
			Title:       offeredTitle.String,
			PointsValue: int(offeredPoints.Int64),
			Status:      models.ItemStatus(offeredStatus.String),
		}
	}

	return swap, nil
}

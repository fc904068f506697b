// Package models defines the data structures used throughout the application.
// It includes the persistent entities (users, items, swaps, notifications)
// together with the request and response payloads of the HTTP API.
package models

import "time"

// Role identifies the privilege level of a user account.
type Role string

// Supported account roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ItemStatus is the moderation/exchange status of a catalog item.
type ItemStatus string

// Item lifecycle statuses. An item enters the catalog as pending, is
// approved or rejected by an admin, and becomes swapped as a side effect
// of a finished exchange. "available" is kept as a synonym of approved for
// eligibility checks.
const (
	ItemPending   ItemStatus = "pending"
	ItemApproved  ItemStatus = "approved"
	ItemRejected  ItemStatus = "rejected"
	ItemAvailable ItemStatus = "available"
	ItemSwapped   ItemStatus = "swapped"
)

// Requestable reports whether an item in this status may be requested in a
// swap or redeemed with points.
func (s ItemStatus) Requestable() bool {
	return s == ItemApproved || s == ItemAvailable
}

// SwapStatus is the lifecycle state of a swap record.
type SwapStatus string

// Swap lifecycle states. Completed, rejected and cancelled are terminal.
const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCompleted SwapStatus = "completed"
	SwapCancelled SwapStatus = "cancelled"
)

// SwapType distinguishes a bilateral item-for-item exchange from a
// unilateral point redemption.
type SwapType string

// Supported swap types.
const (
	SwapTypeItem   SwapType = "item"
	SwapTypePoints SwapType = "points"
)

// NotificationType categorizes entries in a user's notification feed.
type NotificationType string

// Notification types emitted by the exchange engine and item moderation.
const (
	NotifySwapRequested NotificationType = "swap_requested"
	NotifySwapAccepted  NotificationType = "swap_accepted"
	NotifySwapRejected  NotificationType = "swap_rejected"
	NotifySwapCancelled NotificationType = "swap_cancelled"
	NotifySwapCompleted NotificationType = "swap_completed"
	NotifyItemRedeemed  NotificationType = "item_redeemed"
	NotifyItemApproved  NotificationType = "item_approved"
	NotifyItemRejected  NotificationType = "item_rejected"
)

// User represents a registered account. Points is the mutable balance used
// by the redeem path of the exchange engine; it is never mutated elsewhere.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Password     string    `json:"-"`
	Role         Role      `json:"role"`
	Points       int       `json:"points"`
	CreatedAt    time.Time `json:"created_at"`
}

// Item represents a listed garment. PointsValue is derived from Condition
// once at creation and is recomputed only when the owner edits the
// condition; it is snapshotted onto swaps at request time.
type Item struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	OwnerName   string     `json:"owner_name,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Type        string     `json:"type"`
	Size        string     `json:"size"`
	Condition   string     `json:"condition"`
	Brand       string     `json:"brand,omitempty"`
	Color       string     `json:"color,omitempty"`
	ImageURLs   []string   `json:"image_urls"`
	PointsValue int        `json:"points_value"`
	Status      ItemStatus `json:"status"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PointsForCondition maps an item condition to its point valuation.
// Unknown conditions get the middle valuation.
func PointsForCondition(condition string) int {
	switch condition {
	case "new":
		return 10
	case "like-new":
		return 8
	case "good":
		return 6
	case "fair":
		return 4
	default:
		return 5
	}
}

// Swap is the core transactional entity of the exchange engine.
// OwnerID is copied from the requested item's owner at creation and frozen.
// Exactly one of ItemOfferedID being set or Type == points holds.
type Swap struct {
	ID              int64      `json:"id"`
	RequesterID     int64      `json:"requester_id"`
	OwnerID         int64      `json:"owner_id"`
	ItemRequestedID int64      `json:"item_requested_id"`
	ItemOfferedID   *int64     `json:"item_offered_id,omitempty"`
	Type            SwapType   `json:"swap_type"`
	PointsValue     int        `json:"points_value"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Joined fields for API responses.
	RequesterName string       `json:"requester_name,omitempty"`
	OwnerName     string       `json:"owner_name,omitempty"`
	ItemRequested *ItemSummary `json:"item_requested,omitempty"`
	ItemOffered   *ItemSummary `json:"item_offered,omitempty"`
}

// ItemSummary is the short form of an item embedded in swap listings.
type ItemSummary struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	PointsValue int        `json:"points_value"`
	Status      ItemStatus `json:"status"`
}

// Notification is an informational record in a user's feed, produced as a
// side effect of exchange transitions and moderation decisions.
type Notification struct {
	ID          int64            `json:"id"`
	RecipientID int64            `json:"recipient_id"`
	SenderID    *int64           `json:"sender_id,omitempty"`
	Type        NotificationType `json:"type"`
	SwapID      *int64           `json:"swap_id,omitempty"`
	ItemID      *int64           `json:"item_id,omitempty"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RegisterRequest is the payload for account registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued bearer token.
type AuthResponse struct {
	Token string `json:"token"`
}

// CreateItemRequest is the payload for listing a new item.
type CreateItemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Size        string   `json:"size"`
	Condition   string   `json:"condition"`
	Brand       string   `json:"brand"`
	Color       string   `json:"color"`
	ImageURLs   []string `json:"image_urls"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// UpdateItemRequest is the payload for editing an owned item. Nil fields
// are left unchanged; editing Condition recomputes the point valuation.
type UpdateItemRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Type        *string  `json:"type"`
	Size        *string  `json:"size"`
	Condition   *string  `json:"condition"`
	Brand       *string  `json:"brand"`
	Color       *string  `json:"color"`
	ImageURLs   []string `json:"image_urls"`
}

// ItemFilter narrows catalog listings. Zero values mean "no constraint".
type ItemFilter struct {
	Category  string
	Size      string
	Condition string
	Search    string
	OwnerID   int64 // restricts to one owner and disables the status filter
	Limit     int
	Offset    int
}

// CreateSwapRequest is the payload for POST /api/swaps. Type selects the
// creation path: "swap" requires ItemOfferedID, "redeem" forbids it.
type CreateSwapRequest struct {
	ItemRequestedID int64  `json:"itemRequestedId"`
	ItemOfferedID   *int64 `json:"itemOfferedId"`
	Type            string `json:"type"`
}

// SwapListResponse is the paginated result of listing a user's swaps.
type SwapListResponse struct {
	Swaps  []Swap `json:"swaps"`
	Count  int    `json:"count"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// NotificationFeed is the result of listing a user's notifications.
type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	Unread        int            `json:"unread"`
}

// KarmaEntry is one leaderboard row. Karma is presentation-only:
// items listed x5 plus completed swaps x10.
type KarmaEntry struct {
	UserID         int64  `json:"user_id"`
	Name           string `json:"name"`
	ItemsListed    int    `json:"items_listed"`
	SwapsCompleted int    `json:"swaps_completed"`
	Karma          int    `json:"karma"`
}

// ErrorBody is the JSON error envelope returned by the API.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable kind and human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package service

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rewear/internal/models"
	"rewear/internal/pkg/apperrors"
)

func TestCreateSwapHandler_Redeem(t *testing.T) {
	testServer, mockDB := newTestServer(t)
	token := testToken(t, 2, models.RoleUser)

	jacket := &models.Item{
		ID:          7,
		OwnerID:     1,
		Title:       "Denim jacket",
		Condition:   "new",
		PointsValue: 10,
		Status:      models.ItemApproved,
	}

	t.Run("Successful redemption", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).Return(jacket, nil)
		mockDB.EXPECT().RedeemItem(gomock.Any(), int64(2), jacket).Return(&models.Swap{
			ID:              41,
			RequesterID:     2,
			OwnerID:         1,
			ItemRequestedID: 7,
			Type:            models.SwapTypePoints,
			PointsValue:     10,
			Status:          models.SwapCompleted,
		}, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "type": "redeem"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var swap models.Swap
		require.NoError(t, json.Unmarshal([]byte(body), &swap))
		assert.Equal(t, models.SwapCompleted, swap.Status)
		assert.Equal(t, models.SwapTypePoints, swap.Type)
		assert.Equal(t, 10, swap.PointsValue)
	})

	t.Run("Insufficient points", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).Return(jacket, nil)
		mockDB.EXPECT().RedeemItem(gomock.Any(), int64(2), jacket).
			Return(nil, apperrors.New(apperrors.KindInsufficientPoints, "balance below 10 points"))

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "type": "redeem"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "INSUFFICIENT_POINTS")
	})

	t.Run("Own item", func(t *testing.T) {
		ownJacket := *jacket
		ownJacket.OwnerID = 2
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).Return(&ownJacket, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "type": "redeem"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, body, "SELF_SWAP_FORBIDDEN")
	})

	t.Run("Unknown item", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(99)).Return(nil, sql.ErrNoRows)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 99, "type": "redeem"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "INVALID_TARGET")
	})
}

func TestCreateSwapHandler_ItemSwap(t *testing.T) {
	testServer, mockDB := newTestServer(t)
	token := testToken(t, 2, models.RoleUser)

	t.Run("Missing type", func(t *testing.T) {
		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "BAD_REQUEST")
	})

	t.Run("Missing requested item", func(t *testing.T) {
		resp, _ := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"type": "swap", "itemOfferedId": 9}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Missing offer", func(t *testing.T) {
		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "type": "swap"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "INVALID_OFFER")
	})

	t.Run("Successful request", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).
			Return(&models.Item{ID: 7, OwnerID: 1, Title: "Denim jacket", PointsValue: 8, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().GetItem(gomock.Any(), int64(9)).
			Return(&models.Item{ID: 9, OwnerID: 2, Title: "Wool scarf", PointsValue: 6, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().HasPendingSwap(gomock.Any(), int64(7), int64(9)).Return(false, nil)
		mockDB.EXPECT().CreateSwap(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ interface{}, swap *models.Swap) (*models.Swap, error) {
				swap.ID = 42
				return swap, nil
			})

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "itemOfferedId": 9, "type": "swap"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var swap models.Swap
		require.NoError(t, json.Unmarshal([]byte(body), &swap))
		assert.Equal(t, int64(42), swap.ID)
		assert.Equal(t, models.SwapPending, swap.Status)
		assert.Equal(t, models.SwapTypeItem, swap.Type)
	})

	t.Run("Duplicate request", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).
			Return(&models.Item{ID: 7, OwnerID: 1, PointsValue: 8, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().GetItem(gomock.Any(), int64(9)).
			Return(&models.Item{ID: 9, OwnerID: 2, PointsValue: 6, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().HasPendingSwap(gomock.Any(), int64(7), int64(9)).Return(true, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "itemOfferedId": 9, "type": "swap"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, "DUPLICATE_SWAP")
	})

	t.Run("Duplicate request losing the race", func(t *testing.T) {
		// The pre-check passes but the insert hits the pending-pair
		// unique index.
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).
			Return(&models.Item{ID: 7, OwnerID: 1, PointsValue: 8, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().GetItem(gomock.Any(), int64(9)).
			Return(&models.Item{ID: 9, OwnerID: 2, PointsValue: 6, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().HasPendingSwap(gomock.Any(), int64(7), int64(9)).Return(false, nil)
		mockDB.EXPECT().CreateSwap(gomock.Any(), gomock.Any()).
			Return(nil, apperrors.New(apperrors.KindDuplicateSwap, "an identical swap request is already pending"))

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/swaps",
			[]byte(`{"itemRequestedId": 7, "itemOfferedId": 9, "type": "swap"}`), token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, "DUPLICATE_SWAP")
	})
}

func TestSwapTransitionHandlers_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)
	ownerToken := testToken(t, 1, models.RoleUser)
	requesterToken := testToken(t, 2, models.RoleUser)
	offeredID := int64(9)

	pendingSwap := func() *models.Swap {
		return &models.Swap{
			ID:              42,
			RequesterID:     2,
			OwnerID:         1,
			ItemRequestedID: 7,
			ItemOfferedID:   &offeredID,
			Type:            models.SwapTypeItem,
			Status:          models.SwapPending,
		}
	}

	t.Run("Owner accepts", func(t *testing.T) {
		swap := pendingSwap()
		mockDB.EXPECT().GetSwap(gomock.Any(), int64(42)).Return(swap, nil)
		mockDB.EXPECT().TransitionSwap(gomock.Any(), swap, models.SwapPending, models.SwapAccepted, true).
			DoAndReturn(func(_ interface{}, s *models.Swap, _, to models.SwapStatus, _ bool) error {
				s.Status = to
				return nil
			})

		resp, body := testRequestWithAuth(t, testServer, http.MethodPut, "/api/swaps/42/accept", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.Swap
		require.NoError(t, json.Unmarshal([]byte(body), &updated))
		assert.Equal(t, models.SwapAccepted, updated.Status)
	})

	t.Run("Requester cannot accept", func(t *testing.T) {
		mockDB.EXPECT().GetSwap(gomock.Any(), int64(42)).Return(pendingSwap(), nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPut, "/api/swaps/42/accept", nil, requesterToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, body, "NOT_AUTHORIZED")
	})

	t.Run("Owner cannot cancel", func(t *testing.T) {
		mockDB.EXPECT().GetSwap(gomock.Any(), int64(42)).Return(pendingSwap(), nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodDelete, "/api/swaps/42", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Contains(t, body, "NOT_AUTHORIZED")
	})

	t.Run("Accept twice", func(t *testing.T) {
		swap := pendingSwap()
		swap.Status = models.SwapAccepted
		mockDB.EXPECT().GetSwap(gomock.Any(), int64(42)).Return(swap, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPut, "/api/swaps/42/accept", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "INVALID_STATE_TRANSITION")
	})

	t.Run("Requester cancels", func(t *testing.T) {
		swap := pendingSwap()
		mockDB.EXPECT().GetSwap(gomock.Any(), int64(42)).Return(swap, nil)
		mockDB.EXPECT().TransitionSwap(gomock.Any(), swap, models.SwapPending, models.SwapCancelled, false).Return(nil)

		resp, _ := testRequestWithAuth(t, testServer, http.MethodDelete, "/api/swaps/42", nil, requesterToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Unknown swap", func(t *testing.T) {
		mockDB.EXPECT().GetSwap(gomock.Any(), int64(77)).Return(nil, sql.ErrNoRows)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPut, "/api/swaps/77/accept", nil, ownerToken)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "NOT_FOUND")
	})
}

func TestMySwapsHandler_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)
	token := testToken(t, 2, models.RoleUser)

	mockDB.EXPECT().ListSwaps(gomock.Any(), int64(2), 20, 0).
		Return([]models.Swap{{ID: 42, RequesterID: 2, OwnerID: 1}}, nil)

	resp, body := testRequestWithAuth(t, testServer, http.MethodGet, "/api/swaps/my-swaps", nil, token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list models.SwapListResponse
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 20, list.Limit)
}

func TestGetSwapHandler_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)

	swap := &models.Swap{ID: 42, RequesterID: 2, OwnerID: 1}
	mockDB.EXPECT().GetSwap(gomock.Any(), int64(42)).Return(swap, nil).Times(2)

	resp, _ := testRequestWithAuth(t, testServer, http.MethodGet, "/api/swaps/42", nil, testToken(t, 2, models.RoleUser))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := testRequestWithAuth(t, testServer, http.MethodGet, "/api/swaps/42", nil, testToken(t, 3, models.RoleUser))
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "NOT_AUTHORIZED")
}

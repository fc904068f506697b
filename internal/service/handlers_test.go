package service

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rewear/internal/app"
	"rewear/internal/models"
	"rewear/internal/pkg/auth"
	"rewear/internal/pkg/logger"
	"rewear/internal/storage/mocks"
)

type noopNotifier struct{}

func (noopNotifier) Notify(models.Notification) {}

func newTestServer(t *testing.T) (*httptest.Server, *mocks.MockStorage) {
	t.Helper()

	auth.Configure("test-secret", time.Hour)

	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockDB := mocks.NewMockStorage(ctrl)
	appInstance := app.NewApp(mockDB, noopNotifier{}, l, 50)

	service := NewService(appInstance, "localhost:8080", l)
	testServer := httptest.NewServer(service.NewRouter())
	t.Cleanup(testServer.Close)

	return testServer, mockDB
}

func testRequest(t *testing.T, ts *httptest.Server, method, path string, requestBody []byte) (*http.Response, string) {
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewBuffer(requestBody))
	require.NoError(t, err)

	client := &http.Client{}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func testRequestWithAuth(t *testing.T, ts *httptest.Server, method, path string, requestBody []byte, token string) (*http.Response, string) {
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewBuffer(requestBody))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func testToken(t *testing.T, userID int64, role models.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func TestRegisterHandler_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)

	type expectedData struct {
		expectedContentType string
		expectedStatusCode  int
		expectedBody        string
	}

	testCases := []struct {
		name        string
		requestBody []byte
		setupMock   func()
		expected    expectedData
	}{
		{
			name:        "Invalid JSON",
			requestBody: []byte("some body"),
			setupMock:   func() {},
			expected: expectedData{
				expectedContentType: "application/json",
				expectedStatusCode:  http.StatusBadRequest,
				expectedBody:        "{\"error\":{\"code\":\"BAD_REQUEST\",\"message\":\"invalid character 's' looking for beginning of value\"}}\n",
			},
		},
		{
			name:        "Missing name",
			requestBody: []byte(`{"name": "", "email": "a@b.cz", "password": "pass"}`),
			setupMock:   func() {},
			expected: expectedData{
				expectedContentType: "application/json",
				expectedStatusCode:  http.StatusBadRequest,
				expectedBody:        "{\"error\":{\"code\":\"BAD_REQUEST\",\"message\":\"missing name, email or password\"}}\n",
			},
		},
		{
			name:        "Missing password",
			requestBody: []byte(`{"name": "Ada", "email": "a@b.cz", "password": ""}`),
			setupMock:   func() {},
			expected: expectedData{
				expectedContentType: "application/json",
				expectedStatusCode:  http.StatusBadRequest,
				expectedBody:        "{\"error\":{\"code\":\"BAD_REQUEST\",\"message\":\"missing name, email or password\"}}\n",
			},
		},
		{
			name:        "Duplicate email",
			requestBody: []byte(`{"name": "Ada", "email": "taken@rewear.io", "password": "pass"}`),
			setupMock: func() {
				mockDB.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
					Return(nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			expected: expectedData{
				expectedContentType: "application/json",
				expectedStatusCode:  http.StatusConflict,
				expectedBody:        "{\"error\":{\"code\":\"DUPLICATE_EMAIL\",\"message\":\"user with provided email already exists\"}}\n",
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.setupMock()

			resp, body := testRequest(t, testServer, http.MethodPost, "/api/auth/register", testCase.requestBody)
			defer resp.Body.Close()

			assert.Equal(t, testCase.expected.expectedStatusCode, resp.StatusCode)
			assert.Equal(t, testCase.expected.expectedContentType, resp.Header.Get("Content-Type"))
			assert.Equal(t, testCase.expected.expectedBody, body)
		})
	}

	t.Run("Successful registration", func(t *testing.T) {
		mockDB.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ interface{}, user *models.User) (*models.User, error) {
				require.Equal(t, "ada@rewear.io", user.Email)
				require.Equal(t, 50, user.Points)
				require.Equal(t, models.RoleUser, user.Role)
				user.ID = 1
				return user, nil
			})

		resp, body := testRequest(t, testServer, http.MethodPost, "/api/auth/register",
			[]byte(`{"name": "Ada", "email": "Ada@ReWear.io", "password": "pass"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var authResponse models.AuthResponse
		require.NoError(t, json.Unmarshal([]byte(body), &authResponse))
		assert.NotEmpty(t, authResponse.Token)

		claims, err := auth.ParseToken(authResponse.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), claims.UserID)
		assert.Equal(t, models.RoleUser, claims.Role)
	})
}

func TestLoginHandler_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)

	type expectedData struct {
		expectedStatusCode int
		expectedBody       string
	}

	testCases := []struct {
		name        string
		requestBody []byte
		setupMock   func()
		expected    expectedData
	}{
		{
			name:        "Missing email",
			requestBody: []byte(`{"email": "", "password": "pass"}`),
			setupMock:   func() {},
			expected: expectedData{
				expectedStatusCode: http.StatusBadRequest,
				expectedBody:       "{\"error\":{\"code\":\"BAD_REQUEST\",\"message\":\"missing email or password\"}}\n",
			},
		},
		{
			name:        "Unknown email",
			requestBody: []byte(`{"email": "nobody@rewear.io", "password": "pass"}`),
			setupMock: func() {
				mockDB.EXPECT().CheckUser(gomock.Any(), "nobody@rewear.io", "pass").
					Return(nil, sql.ErrNoRows)
			},
			expected: expectedData{
				expectedStatusCode: http.StatusUnauthorized,
				expectedBody:       "{\"error\":{\"code\":\"UNAUTHENTICATED\",\"message\":\"invalid email or password\"}}\n",
			},
		},
		{
			name:        "Incorrect password",
			requestBody: []byte(`{"email": "ada@rewear.io", "password": "wrongpass"}`),
			setupMock: func() {
				mockDB.EXPECT().CheckUser(gomock.Any(), "ada@rewear.io", "wrongpass").
					Return(nil, bcrypt.ErrMismatchedHashAndPassword)
			},
			expected: expectedData{
				expectedStatusCode: http.StatusUnauthorized,
				expectedBody:       "{\"error\":{\"code\":\"UNAUTHENTICATED\",\"message\":\"invalid email or password\"}}\n",
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.setupMock()

			resp, body := testRequest(t, testServer, http.MethodPost, "/api/auth/login", testCase.requestBody)
			defer resp.Body.Close()

			assert.Equal(t, testCase.expected.expectedStatusCode, resp.StatusCode)
			assert.Equal(t, testCase.expected.expectedBody, body)
		})
	}

	t.Run("Successful login", func(t *testing.T) {
		mockDB.EXPECT().CheckUser(gomock.Any(), "ada@rewear.io", "pass").
			Return(&models.User{ID: 1, Role: models.RoleUser}, nil)

		resp, body := testRequest(t, testServer, http.MethodPost, "/api/auth/login",
			[]byte(`{"email": "Ada@rewear.io", "password": "pass"}`))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var authResponse models.AuthResponse
		require.NoError(t, json.Unmarshal([]byte(body), &authResponse))
		assert.NotEmpty(t, authResponse.Token)
	})
}

func TestProfileHandler_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)

	t.Run("Missing token", func(t *testing.T) {
		resp, _ := testRequest(t, testServer, http.MethodGet, "/api/users/me", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Garbage token", func(t *testing.T) {
		resp, _ := testRequestWithAuth(t, testServer, http.MethodGet, "/api/users/me", nil, "not.a.token")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Successful profile", func(t *testing.T) {
		mockDB.EXPECT().GetUser(gomock.Any(), int64(1)).
			Return(&models.User{ID: 1, Name: "Ada", Email: "ada@rewear.io", Points: 50, Role: models.RoleUser}, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodGet, "/api/users/me", nil,
			testToken(t, 1, models.RoleUser))
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var user models.User
		require.NoError(t, json.Unmarshal([]byte(body), &user))
		assert.Equal(t, 50, user.Points)
		assert.NotContains(t, body, "password")
	})
}

func TestWishlistHandlers_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)
	token := testToken(t, 1, models.RoleUser)

	t.Run("Add requires an available item", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).
			Return(&models.Item{ID: 7, OwnerID: 2, Status: models.ItemPending}, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPost, "/api/wishlist/7", nil, token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "INVALID_TARGET")
	})

	t.Run("Add success", func(t *testing.T) {
		mockDB.EXPECT().GetItem(gomock.Any(), int64(7)).
			Return(&models.Item{ID: 7, OwnerID: 2, Status: models.ItemApproved}, nil)
		mockDB.EXPECT().AddWishlistItem(gomock.Any(), int64(1), int64(7)).Return(nil)

		resp, _ := testRequestWithAuth(t, testServer, http.MethodPost, "/api/wishlist/7", nil, token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Invalid item id", func(t *testing.T) {
		resp, _ := testRequestWithAuth(t, testServer, http.MethodPost, "/api/wishlist/zero", nil, token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Remove success", func(t *testing.T) {
		mockDB.EXPECT().RemoveWishlistItem(gomock.Any(), int64(1), int64(7)).Return(nil)

		resp, _ := testRequestWithAuth(t, testServer, http.MethodDelete, "/api/wishlist/7", nil, token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestNotificationHandlers_Gomock(t *testing.T) {
	testServer, mockDB := newTestServer(t)
	token := testToken(t, 1, models.RoleUser)

	t.Run("Feed counts unread", func(t *testing.T) {
		mockDB.EXPECT().ListNotifications(gomock.Any(), int64(1)).Return(&models.NotificationFeed{
			Notifications: []models.Notification{
				{ID: 3, RecipientID: 1, Type: models.NotifySwapRequested, Read: false},
				{ID: 2, RecipientID: 1, Type: models.NotifySwapAccepted, Read: true},
			},
			Unread: 1,
		}, nil)

		resp, body := testRequestWithAuth(t, testServer, http.MethodGet, "/api/notifications", nil, token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var feed models.NotificationFeed
		require.NoError(t, json.Unmarshal([]byte(body), &feed))
		assert.Len(t, feed.Notifications, 2)
		assert.Equal(t, 1, feed.Unread)
	})

	t.Run("Mark read on someone else's notification", func(t *testing.T) {
		mockDB.EXPECT().MarkNotificationRead(gomock.Any(), int64(1), int64(9)).Return(sql.ErrNoRows)

		resp, body := testRequestWithAuth(t, testServer, http.MethodPut, "/api/notifications/9/read", nil, token)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "NOT_FOUND")
	})
}

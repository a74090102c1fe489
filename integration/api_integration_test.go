package booking_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/config"
	"tutorbook/internal/email"
	"tutorbook/internal/server"
)

func setupTestServer(t *testing.T, db *sqlx.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecret: "integration-test-secret",
	}

	// Points at nowhere; notification delivery failures are non-fatal.
	emailService := email.New("noreply@test.local", "TutorBook", "localhost", "2525", "", "", "localhost:16379")

	return server.New(db, cfg, emailService).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, emailAddr string) string {
	w := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]any{
		"name":     "API User",
		"email":    emailAddr,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestBookingAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	router := setupTestServer(t, db)
	token := registerAndLogin(t, router, "api@test.com")

	date := nextMonday().Format("2006-01-02")

	// Availability before booking: hour 15 has all four slots
	w := doJSON(t, router, http.MethodGet, "/availability?date="+date, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"hour":15`)

	// Book a slot
	w = doJSON(t, router, http.MethodPost, "/bookings", token, map[string]any{
		"date":         date,
		"hour":         15,
		"student_name": "API Student",
		"package":      "standard",
		"session_type": "math",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID         int    `json:"id"`
		SlotNumber int    `json:"slot_number"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 1, created.SlotNumber)
	assert.Equal(t, "pending", created.Status)

	// The booking shows up in the owner's list
	w = doJSON(t, router, http.MethodGet, "/bookings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf(`"id":%d`, created.ID))

	// Cancel it
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/bookings/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// A cancelled booking cannot be cancelled again
	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/bookings/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestBookingAPI_PastDateRejected_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	router := setupTestServer(t, db)
	token := registerAndLogin(t, router, "past@test.com")

	w := doJSON(t, router, http.MethodPost, "/bookings", token, map[string]any{
		"date":         "2020-01-06",
		"hour":         15,
		"student_name": "Late Student",
		"package":      "standard",
		"session_type": "math",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestAdminEndpointsRequireRole_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	router := setupTestServer(t, db)
	token := registerAndLogin(t, router, "notadmin@test.com")

	w := doJSON(t, router, http.MethodPost, "/admin/blocked-dates", token, map[string]any{
		"date":   nextMonday().Format("2006-01-02"),
		"reason": "holiday",
	})
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

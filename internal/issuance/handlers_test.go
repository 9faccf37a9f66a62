package issuance

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"soulcertify-backend/internal/ledger"
	"soulcertify-backend/internal/middleware"
	"soulcertify-backend/internal/models"
	"soulcertify-backend/internal/requests"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupIssuanceApp wires the coordinator against a real ledger and queue so
// the endpoint tests exercise the whole promote path.
func setupIssuanceApp(t *testing.T) (*fiber.App, *requests.Service, *ledger.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Certificate{}, &models.CertificateRequest{}))

	queue := &requests.Service{DB: db}
	led := &ledger.Service{DB: db, Owner: ownerAddr}
	svc := &Service{Queue: queue, Ledger: led}

	h := &Handlers{Service: svc, Finder: &GormCertificateFinder{DB: db}, Owner: ownerAddr}
	rh := &requests.Handlers{Service: queue}

	app := fiber.New()
	app.Use(middleware.Identity())
	app.Post("/certificate-requests", rh.Submit)
	app.Get("/certificate-requests/:id", rh.Get)
	app.Post("/certificate-requests/reconcile", middleware.RequireIdentity(), h.Reconcile)
	app.Post("/certificate-requests/:id/approve", middleware.RequireIdentity(), h.Approve)
	app.Post("/certificate-requests/:id/reject", middleware.RequireIdentity(), h.Reject)
	return app, queue, led
}

func submitViaAPI(t *testing.T, app *fiber.App) string {
	t.Helper()
	body, _ := json.Marshal(fiber.Map{
		"studentAddress":   requesterAddr,
		"studentName":      "Ada Lovelace",
		"universityName":   "Analytical Academy",
		"yearOfGraduation": 2024,
		"degree":           "B.Sc.",
		"major":            "Mathematics",
		"skills":           []string{"Analysis"},
	})
	req := httptest.NewRequest("POST", "/certificate-requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data, _ := result["data"].(map[string]interface{})
	id, _ := data["requestId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestApproveEndpoint_SubmitToIssuedCertificate(t *testing.T) {
	app, _, led := setupIssuanceApp(t)
	reqID := submitViaAPI(t, app)

	req := httptest.NewRequest("POST", "/certificate-requests/"+reqID+"/approve", nil)
	req.Header.Set("X-Wallet-Address", ownerAddr)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["certificateId"])

	// The certificate landed on the ledger with the staged fields.
	cert, err := led.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", cert.StudentName)
	assert.Equal(t, requesterAddr, cert.StudentAddress)
	assert.False(t, cert.IsApproved)

	// And the request now reads approved.
	getReq := httptest.NewRequest("GET", "/certificate-requests/"+reqID, nil)
	getResp, err := app.Test(getReq)
	require.NoError(t, err)
	assert.Equal(t, 200, getResp.StatusCode)
	var getResult map[string]interface{}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&getResult))
	reqData, _ := getResult["data"].(map[string]interface{})
	assert.Equal(t, models.RequestStatusApproved, reqData["status"])
}

func TestApproveEndpoint_NotOwner(t *testing.T) {
	app, _, _ := setupIssuanceApp(t)
	reqID := submitViaAPI(t, app)

	req := httptest.NewRequest("POST", "/certificate-requests/"+reqID+"/approve", nil)
	req.Header.Set("X-Wallet-Address", requesterAddr)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestApproveEndpoint_UnknownRequest(t *testing.T) {
	app, _, _ := setupIssuanceApp(t)

	req := httptest.NewRequest("POST", "/certificate-requests/req_0_missing/approve", nil)
	req.Header.Set("X-Wallet-Address", ownerAddr)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRejectEndpoint_ThenApproveConflicts(t *testing.T) {
	app, _, _ := setupIssuanceApp(t)
	reqID := submitViaAPI(t, app)

	req := httptest.NewRequest("POST", "/certificate-requests/"+reqID+"/reject", nil)
	req.Header.Set("X-Wallet-Address", ownerAddr)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req = httptest.NewRequest("POST", "/certificate-requests/"+reqID+"/approve", nil)
	req.Header.Set("X-Wallet-Address", ownerAddr)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestRejectEndpoint_NotOwner(t *testing.T) {
	app, queue, _ := setupIssuanceApp(t)
	reqID := submitViaAPI(t, app)

	req := httptest.NewRequest("POST", "/certificate-requests/"+reqID+"/reject", nil)
	req.Header.Set("X-Wallet-Address", requesterAddr)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	stored, err := queue.Get(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, stored.Status)
}

func TestReconcileEndpoint_ReportsHealedCount(t *testing.T) {
	app, _, _ := setupIssuanceApp(t)
	submitViaAPI(t, app)

	req := httptest.NewRequest("POST", "/certificate-requests/reconcile", nil)
	req.Header.Set("X-Wallet-Address", ownerAddr)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	data, _ := result["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["healed"])
}

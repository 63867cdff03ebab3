package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"eventcheck/internal/attendance"
	"eventcheck/internal/config"
	"eventcheck/internal/feed"
	"eventcheck/internal/queue"
	"eventcheck/internal/registration"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.App{
		JWTIssuer:     "eventcheck-test",
		JWTSigningKey: "test-signing-key",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		AdminUser:     "admin",
		AdminPassword: "secret",
		RegIDPrefix:   "NSCC",
	}

	participants := registration.NewMemStore()
	ledger := attendance.NewMemStore()
	directory := registration.NewService(participants, cfg.RegIDPrefix)
	marking := attendance.NewService(participants, ledger, "main-hall")
	feedSvc := feed.NewService(participants, ledger, nil, 0)

	h := New(directory, marking, feedSvc, queue.NewInMemory(16), cfg)
	r := gin.New()
	h.Routes(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, parsed
}

func registerParticipant(t *testing.T, r *gin.Engine, name, email string) map[string]any {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/participants/register", gin.H{"name": name, "email": email}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}
	participant, _ := resp["participant"].(map[string]any)
	if participant == nil {
		t.Fatalf("register response missing participant: %v", resp)
	}
	return participant
}

func adminToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{"username": "admin", "password": "secret"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	token, _ := resp["access_token"].(string)
	if token == "" {
		t.Fatal("no access token issued")
	}
	return token
}

func TestRegisterScanFeedFlow(t *testing.T) {
	r := newTestRouter(t)

	participant := registerParticipant(t, r, "Alice", "alice@x.com")
	regID, _ := participant["registrationId"].(string)
	if regID == "" {
		t.Fatal("no registration id issued")
	}
	qr, _ := participant["qrCode"].(string)
	if !strings.HasPrefix(qr, "data:image/png;base64,") {
		t.Errorf("registration response missing QR data URL")
	}

	// First scan succeeds.
	w, resp := doJSON(t, r, http.MethodPost, "/api/attendance/scan", gin.H{"qrData": regID, "scannedBy": "scanner"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("scan: status %d body %s", w.Code, w.Body.String())
	}
	att, _ := resp["attendance"].(map[string]any)
	if att["status"] != "present" {
		t.Errorf("status = %v", att["status"])
	}
	firstTimestamp := att["timestamp"]

	// Second scan the same day: 400 with the original record attached.
	w, resp = doJSON(t, r, http.MethodPost, "/api/attendance/scan", gin.H{"qrData": regID}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("repeat scan: status %d body %s", w.Code, w.Body.String())
	}
	conflict, _ := resp["attendance"].(map[string]any)
	if conflict == nil {
		t.Fatal("repeat scan response missing conflicting record")
	}
	if conflict["timestamp"] != firstTimestamp {
		t.Errorf("original timestamp changed: %v vs %v", conflict["timestamp"], firstTimestamp)
	}

	// Live feed shows exactly one present entry.
	token := adminToken(t, r)
	w, resp = doJSON(t, r, http.MethodGet, "/api/admin/live-feed", nil, map[string]string{"Authorization": "Bearer " + token})
	if w.Code != http.StatusOK {
		t.Fatalf("live feed: status %d body %s", w.Code, w.Body.String())
	}
	entries, _ := resp["attendance"].([]any)
	if len(entries) != 1 {
		t.Fatalf("got %d feed entries, want 1", len(entries))
	}
	entry, _ := entries[0].(map[string]any)
	if entry["status"] != "present" || entry["registrationId"] != regID {
		t.Errorf("feed entry = %v", entry)
	}
}

func TestScan_UnknownParticipant(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/attendance/scan", gin.H{"qrData": "NSCC-0-XXXXX"}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestRouter(t)
	registerParticipant(t, r, "Alice", "alice@x.com")
	w, _ := doJSON(t, r, http.MethodPost, "/api/participants/register", gin.H{"name": "Alice", "email": "ALICE@x.com"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestStats(t *testing.T) {
	r := newTestRouter(t)
	var regIDs []string
	for i := 0; i < 10; i++ {
		p := registerParticipant(t, r, fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@x.com", i))
		regIDs = append(regIDs, p["registrationId"].(string))
	}
	for i := 0; i < 4; i++ {
		w, _ := doJSON(t, r, http.MethodPost, "/api/attendance/scan", gin.H{"qrData": regIDs[i]}, nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("scan %d: status %d", i, w.Code)
		}
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/attendance/stats", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	if resp["present"] != float64(4) || resp["absent"] != float64(6) || resp["attendanceRate"] != float64(40) {
		t.Errorf("stats = %v", resp)
	}
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/admin/dashboard", "/api/admin/live-feed", "/api/admin/analytics", "/api/admin/export/excel"} {
		w, _ := doJSON(t, r, http.MethodGet, path, nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, w.Code)
		}
	}
}

func TestAdminLogin_BadCredentials(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doJSON(t, r, http.MethodPost, "/api/admin/login", gin.H{"username": "admin", "password": "wrong"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestExport_CSV(t *testing.T) {
	r := newTestRouter(t)
	p := registerParticipant(t, r, "Alice", "alice@x.com")
	if w, _ := doJSON(t, r, http.MethodPost, "/api/attendance/scan", gin.H{"qrData": p["registrationId"]}, nil); w.Code != http.StatusCreated {
		t.Fatalf("scan: status %d", w.Code)
	}

	token := adminToken(t, r)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/export/excel?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("export: status %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attendance-report-") {
		t.Errorf("content disposition = %q", cd)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "Name,Email,Registration ID") {
		t.Errorf("csv header missing: %q", body)
	}
	if !strings.Contains(body, "PRESENT") {
		t.Errorf("scanned participant missing from export: %q", body)
	}
}

func TestDeactivateParticipant(t *testing.T) {
	r := newTestRouter(t)
	p := registerParticipant(t, r, "Alice", "alice@x.com")

	w, _ := doJSON(t, r, http.MethodDelete, "/api/participants/"+p["id"].(string), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/participants/"+p["registrationId"].(string), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("deactivated participant still resolvable: status %d", w.Code)
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/participants", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	if resp["total"] != float64(0) {
		t.Errorf("total = %v, want 0", resp["total"])
	}
}

func TestListAttendance_Pagination(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 5; i++ {
		p := registerParticipant(t, r, fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@x.com", i))
		if w, _ := doJSON(t, r, http.MethodPost, "/api/attendance/scan", gin.H{"qrData": p["registrationId"]}, nil); w.Code != http.StatusCreated {
			t.Fatalf("scan %d: status %d", i, w.Code)
		}
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/attendance?limit=2&page=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d", w.Code)
	}
	records, _ := resp["attendance"].([]any)
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
	if resp["total"] != float64(5) || resp["totalPages"] != float64(3) {
		t.Errorf("total=%v totalPages=%v", resp["total"], resp["totalPages"])
	}
}

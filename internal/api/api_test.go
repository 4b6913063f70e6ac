package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/labintake/internal/auth"
	"github.com/lalith-99/labintake/internal/models"
	"github.com/lalith-99/labintake/internal/repository/memory"
	"github.com/lalith-99/labintake/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "api-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	token  string
	user   *models.User
	now    func() time.Time
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerAt(t, time.Now, time.UTC)
}

// newTestServerAt runs the service on the given clock, with loc as the lab
// time zone.
func newTestServerAt(t *testing.T, now func() time.Time, loc *time.Location) *testServer {
	t.Helper()
	store := memory.NewStore()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: "reception1", PasswordHash: string(hash), Role: models.RoleReception}
	require.NoError(t, store.Users().Create(context.Background(), user))

	token, err := auth.GenerateToken(user, testSecret, time.Hour)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Service:     service.New(store, zap.NewNop(), service.WithClock(now), service.WithLocation(loc)),
		Store:       store,
		Logger:      zap.NewNop(),
		JWTSecret:   testSecret,
		JWTTTL:      time.Hour,
		LabLocation: loc,
	})
	return &testServer{t: t, router: router, token: token, user: user, now: now}
}

// do sends an authenticated request and decodes the JSON response into out
// when out is non-nil.
func (s *testServer) do(method, path string, body any, out any) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if out != nil {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (s *testServer) createClient() models.Client {
	s.t.Helper()
	var c models.Client
	w := s.do(http.MethodPost, "/v1/clients", gin.H{
		"company_name": "Aguas del Valle S.A.",
		"tax_id":       "900123456-7",
		"address":      "Cra 7 # 12-34",
		"city":         "Cali",
		"contact_name": "Marta Ruiz",
		"email":        "lab@aguasdelvalle.co",
		"phone":        "+57 2 555 0101",
	}, &c)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return c
}

func (s *testServer) sampleBody(clientID uuid.UUID) gin.H {
	now := s.now().UTC()
	return gin.H{
		"client_id":         clientID,
		"type":              "WATER",
		"matrix":            "drinking water",
		"description":       "tap outlet",
		"quantity":          "200.00",
		"sampled_at":        now.Add(-3 * time.Hour).Format(time.RFC3339),
		"sampled_by":        "J. Perez",
		"shipped_at":        now.Add(-time.Hour).Format(time.RFC3339),
		"delivery_method":   "COURIER",
		"storage_condition": "REFRIGERATED",
	}
}

func (s *testServer) createSample(clientID uuid.UUID) models.Sample {
	s.t.Helper()
	var smp models.Sample
	w := s.do(http.MethodPost, "/v1/samples", s.sampleBody(clientID), &smp)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return smp
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	var resp authResponse
	w := s.do(http.MethodPost, "/v1/auth/login", gin.H{"username": "reception1", "password": "correct horse"}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := auth.ParseToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, s.user.ID, claims.UserID)

	var errResp errorResponse
	w = s.do(http.MethodPost, "/v1/auth/login", gin.H{"username": "reception1", "password": "wrong"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", errResp.Code)

	w = s.do(http.MethodPost, "/v1/auth/login", gin.H{"username": "ghost", "password": "correct horse"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	w := s.do(http.MethodGet, "/v1/samples", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/v1/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetMe(t *testing.T) {
	s := newTestServer(t)

	var u models.User
	w := s.do(http.MethodGet, "/v1/users/me", nil, &u)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "reception1", u.Username)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestSampleLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient()
	smp := s.createSample(client.ID)

	assert.Regexp(t, `^LIMS-\d{8}-[A-Z0-9]{8}$`, smp.Code)
	assert.Equal(t, s.user.ID, smp.ReceivedBy)

	var tr service.Transition
	w := s.do(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/accept", nil, &tr)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StateAccepted, tr.Sample.State)
	assert.Equal(t, "formally accepted", tr.Entry.Notes)

	var errResp errorResponse
	w = s.do(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/accept", gin.H{"notes": "again"}, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_ACCEPTED", errResp.Code)

	w = s.do(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/state", gin.H{"state": "ACCEPTED"}, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USE_ACCEPT_ENDPOINT", errResp.Code)

	w = s.do(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/state", gin.H{"state": "IN_ANALYSIS", "notes": "bench 3"}, &tr)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StateAccepted, tr.Entry.PreviousState)

	var history []models.HistoryEntry
	w = s.do(http.MethodGet, "/v1/samples/"+smp.ID.String()+"/history", nil, &history)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, history, 2)
	assert.Equal(t, models.StateInAnalysis, history[0].NewState)

	var detail service.SampleDetail
	w = s.do(http.MethodGet, "/v1/samples/"+smp.ID.String(), nil, &detail)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StateInAnalysis, detail.State)
	assert.Len(t, detail.History, 2)

	var listed []models.Sample
	w = s.do(http.MethodGet, "/v1/clients/"+client.ID.String()+"/samples?state=IN_ANALYSIS", nil, &listed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, listed, 1)
}

func TestCreateSampleValidationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient()

	body := s.sampleBody(client.ID)
	body["shipped_at"] = time.Now().UTC().Add(-5 * time.Hour).Format(time.RFC3339)

	var errResp errorResponse
	w := s.do(http.MethodPost, "/v1/samples", body, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_DATE_ORDER", errResp.Code)
	assert.Equal(t, "shipped_at", errResp.Field)

	body = s.sampleBody(uuid.New())
	w = s.do(http.MethodPost, "/v1/samples", body, &errResp)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "client", errResp.Resource)
}

func TestSufficiencyOverHTTP(t *testing.T) {
	s := newTestServer(t)
	smp := s.createSample(s.createClient().ID)

	var res service.Sufficiency
	w := s.do(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/sufficiency", gin.H{"required_quantity": "150.5"}, &res)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Sufficient)
	assert.Equal(t, "mL", res.Unit)

	var errResp errorResponse
	w = s.do(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/sufficiency", gin.H{"required_quantity": "0"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "required_quantity", errResp.Field)
}

func TestAssaysOverHTTP(t *testing.T) {
	s := newTestServer(t)
	smp := s.createSample(s.createClient().ID)
	path := "/v1/samples/" + smp.ID.String() + "/assays"
	due := time.Now().AddDate(0, 0, 7).Format(dateLayout)

	var errResp errorResponse
	w := s.do(http.MethodPost, path, gin.H{"assays": []gin.H{
		{"analysis_name": "Lead", "results_due_by": due},
		{"analysis_name": "pH"},
	}}, &errResp)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FIELD", errResp.Code)
	assert.Equal(t, 2, errResp.Index)
	assert.Equal(t, "results_due_by", errResp.Field)

	var assays []models.Assay
	w = s.do(http.MethodGet, path, nil, &assays)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, assays)

	w = s.do(http.MethodPost, path, gin.H{"assays": []gin.H{
		{"analysis_name": "Lead", "priority": "URGENT", "results_due_by": due},
		{"analysis_name": "pH", "results_due_by": due},
	}}, &assays)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, assays, 2)
	assayID := assays[0].ID.String()

	var a models.Assay
	w = s.do(http.MethodPost, "/v1/assays/"+assayID+"/analyst", gin.H{"analyst_id": s.user.ID}, &a)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, a.AnalystID)

	w = s.do(http.MethodPost, "/v1/assays/"+assayID+"/analyst", gin.H{"analyst_id": uuid.New()}, &errResp)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ANALYST_NOT_FOUND", errResp.Code)

	w = s.do(http.MethodPost, "/v1/assays/"+assayID+"/results", gin.H{"results": ""}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_RESULTS", errResp.Code)

	w = s.do(http.MethodPost, "/v1/assays/"+assayID+"/results", gin.H{"results": "< 0.005 mg/L"}, &a)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.AssayCompleted, a.Status)

	w = s.do(http.MethodPost, "/v1/assays/"+assayID+"/cancel", nil, &errResp)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_ASSAY_TRANSITION", errResp.Code)

	w = s.do(http.MethodGet, "/v1/assays?status=PENDING", nil, &assays)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, assays, 1)
	assert.Equal(t, "pH", assays[0].AnalysisName)
}

func TestClientsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	client := s.createClient()
	path := "/v1/clients/" + client.ID.String()

	var errResp errorResponse
	w := s.do(http.MethodPost, "/v1/clients", gin.H{
		"company_name": "Copy", "tax_id": client.TaxID, "address": "x", "city": "x",
		"contact_name": "x", "email": "x@example.com", "phone": "1",
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DUPLICATE_TAX_ID", errResp.Code)

	var updated models.Client
	w = s.do(http.MethodPatch, path, gin.H{"active": false}, &updated)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, updated.Active)

	var listed []models.Client
	w = s.do(http.MethodGet, "/v1/clients?active=true", nil, &listed)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, listed)

	w = s.do(http.MethodPost, "/v1/samples", s.sampleBody(client.ID), &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CLIENT_NOT_AUTHORIZED", errResp.Code)

	w = s.do(http.MethodDelete, path, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, path, nil, &errResp)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBadParameters(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path string
		code         string
	}{
		{http.MethodGet, "/v1/samples/not-a-uuid", "INVALID_ID"},
		{http.MethodGet, "/v1/samples?accepted=perhaps", "INVALID_VALUE"},
		{http.MethodGet, "/v1/samples?from=yesterday", "INVALID_VALUE"},
		{http.MethodGet, "/v1/samples?state=LOST", "INVALID_VALUE"},
		{http.MethodGet, "/v1/assays?sample_id=42", "INVALID_VALUE"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var errResp errorResponse
			w := s.do(tt.method, tt.path, nil, &errResp)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, errResp.Code)
		})
	}
}

func TestAcceptReadsChunkedBody(t *testing.T) {
	s := newTestServer(t)
	smp := s.createSample(s.createClient().ID)

	// A reader of unknown length leaves ContentLength at -1, as with
	// chunked transfer encoding.
	body := io.MultiReader(strings.NewReader(`{"notes": "seal intact"}`))
	req := httptest.NewRequest(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/accept", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	require.Equal(t, int64(-1), req.ContentLength)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tr service.Transition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tr))
	assert.Equal(t, "seal intact", tr.Entry.Notes)
}

func TestAcceptRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	smp := s.createSample(s.createClient().ID)

	req := httptest.NewRequest(http.MethodPost, "/v1/samples/"+smp.ID.String()+"/accept", strings.NewReader(`{"notes":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_BODY")
}

func TestAddAssaysReportsFirstFailingItem(t *testing.T) {
	s := newTestServer(t)
	smp := s.createSample(s.createClient().ID)
	path := "/v1/samples/" + smp.ID.String() + "/assays"
	due := time.Now().AddDate(0, 0, 7).Format(dateLayout)

	tests := []struct {
		name      string
		assays    []gin.H
		wantCode  string
		wantIndex int
		wantField string
	}{
		{
			name: "missing name before bad date",
			assays: []gin.H{
				{"results_due_by": due},
				{"analysis_name": "pH", "results_due_by": "next tuesday"},
			},
			wantCode: "MISSING_FIELD", wantIndex: 1, wantField: "analysis_name",
		},
		{
			name: "bad date",
			assays: []gin.H{
				{"analysis_name": "Lead", "results_due_by": due},
				{"analysis_name": "pH", "results_due_by": "next tuesday"},
			},
			wantCode: "INVALID_VALUE", wantIndex: 2, wantField: "results_due_by",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp errorResponse
			w := s.do(http.MethodPost, path, gin.H{"assays": tt.assays}, &errResp)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, errResp.Code)
			assert.Equal(t, tt.wantIndex, errResp.Index)
			assert.Equal(t, tt.wantField, errResp.Field)
		})
	}
}

func TestListSamplesDatesUseLabZone(t *testing.T) {
	// 19:30 on 14 March in a UTC-5 lab is already 15 March in UTC.
	lab := time.FixedZone("UTC-5", -5*60*60)
	registered := time.Date(2026, 3, 14, 19, 30, 0, 0, lab)
	s := newTestServerAt(t, func() time.Time { return registered }, lab)
	s.createSample(s.createClient().ID)

	tests := []struct {
		query string
		want  int
	}{
		{"from=2026-03-14&to=2026-03-14", 1},
		{"to=2026-03-13", 0},
		{"from=2026-03-15", 0},
		{"from=2026-03-14T19:00:00-05:00", 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var listed []models.Sample
			w := s.do(http.MethodGet, "/v1/samples?"+tt.query, nil, &listed)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Len(t, listed, tt.want)
		})
	}
}

func TestListUsersByRole(t *testing.T) {
	s := newTestServer(t)

	var all []models.User
	w := s.do(http.MethodGet, "/v1/users", nil, &all)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, all, 1)
	assert.Equal(t, "reception1", all[0].Username)

	var analysts []models.User
	w = s.do(http.MethodGet, "/v1/users?role=ANALYST", nil, &analysts)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, analysts)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	var errResp errorResponse
	w = s.do(http.MethodGet, "/v1/users?role=CHEMIST", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "role", errResp.Field)
}

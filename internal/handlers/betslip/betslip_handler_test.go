package betslip

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tipster-service/internal/domain/auth"
	"tipster-service/internal/domain/betslip"
	"tipster-service/internal/domain/notification"
	"tipster-service/internal/domain/subscription"
	"tipster-service/internal/middleware"
	"tipster-service/internal/pkg/jwt"
	"tipster-service/internal/pkg/response"
	"tipster-service/internal/repository/memory"
	service "tipster-service/internal/service/betslip"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier map[string]*jwt.Claims

func (v stubVerifier) VerifyAccessToken(token string) (*jwt.Claims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

type tierTable map[int64]subscription.Tier

func (t tierTable) ActiveTier(_ context.Context, userID int64) (subscription.Tier, error) {
	return t[userID], nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, notification.Notification) {}

type testEnv struct {
	router *gin.Engine
	store  *memory.BetslipStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewBetslipStore()
	settlement := service.NewSettlementService(store, tierTable{7: subscription.TierMonthly}, memory.NewAuditStore(), nopNotifier{}, nil, zap.NewNop())
	h := NewBetslipHandler(settlement)
	authMW := middleware.NewAuthMiddleware(stubVerifier{
		"user":    {IdentityID: 7, Roles: []string{auth.RoleUser}},
		"visitor": {IdentityID: 8, Roles: []string{auth.RoleUser}},
		"tipster": {IdentityID: 50, Roles: []string{auth.RoleAdmin}},
	})

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/betslips/:id", authMW.Auth(), h.GetBetslip)
	admin := api.Group("/admin/betslips", authMW.AdminOnly()...)
	admin.POST("", h.CreateBetslip)
	admin.POST("/bulk-settle", h.BulkSettle)
	admin.POST("/legs/:legId/settle", h.SettleLeg)
	admin.POST("/:id/legs", h.AddLeg)
	admin.POST("/:id/settle", h.Settle)

	return &testEnv{router: r, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, response.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func (e *testEnv) slip(t *testing.T, id int64) *betslip.Betslip {
	t.Helper()
	b, err := e.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestCreateBetslipRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{
		"league": "Serie A", "title": "Inter v Milan", "selection": "Over 2.5",
		"odds_decimal": 1.85, "stake_units": 2,
	}

	code, _ := env.do(t, http.MethodPost, "/api/v1/admin/betslips", "user", body)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := env.do(t, http.MethodPost, "/api/v1/admin/betslips", "tipster", body)
	require.Equal(t, http.StatusCreated, code, resp.Message)
	assert.Equal(t, betslip.TypeSingle, env.slip(t, 1).Type)

	delete(body, "selection")
	code, _ = env.do(t, http.MethodPost, "/api/v1/admin/betslips", "tipster", body)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMultiSlipSettlesFromLegs(t *testing.T) {
	env := newTestEnv(t)
	slip := env.store.Put(betslip.Betslip{
		Type: betslip.TypeSingle, League: "EPL", Title: "Saturday double", Selection: "Home wins",
		OddsDecimal: 2, StakeUnits: 1, Status: betslip.StatusPending, Outcome: betslip.OutcomePending,
	})
	legsPath := "/api/v1/admin/betslips/1/legs"

	for _, odds := range []float64{1.5, 2.2} {
		code, resp := env.do(t, http.MethodPost, legsPath, "tipster", map[string]interface{}{"title": "leg", "odds_decimal": odds})
		require.Equal(t, http.StatusCreated, code, resp.Message)
	}
	assert.Equal(t, betslip.TypeMulti, env.slip(t, slip.ID).Type)

	code, resp := env.do(t, http.MethodPost, "/api/v1/admin/betslips/1/settle", "tipster", map[string]string{"outcome": "won"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "settle its legs instead")

	code, _ = env.do(t, http.MethodPost, "/api/v1/admin/betslips/legs/1/settle", "tipster", map[string]string{"outcome": "won"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, betslip.StatusPending, env.slip(t, slip.ID).Status)

	code, resp = env.do(t, http.MethodPost, "/api/v1/admin/betslips/legs/2/settle", "tipster", map[string]string{"outcome": "won"})
	require.Equal(t, http.StatusOK, code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "parent")

	settled := env.slip(t, slip.ID)
	assert.Equal(t, betslip.StatusSettled, settled.Status)
	assert.Equal(t, betslip.OutcomeWon, settled.Outcome)

	code, _ = env.do(t, http.MethodPost, "/api/v1/admin/betslips/legs/2/settle", "tipster", map[string]string{"outcome": "lost"})
	assert.Equal(t, http.StatusConflict, code)
}

func TestSettleSingle(t *testing.T) {
	env := newTestEnv(t)
	env.store.Put(betslip.Betslip{
		Type: betslip.TypeSingle, League: "La Liga", Title: "Derby", Selection: "Draw",
		OddsDecimal: 3.4, StakeUnits: 1, Status: betslip.StatusPending, Outcome: betslip.OutcomePending,
	})

	code, resp := env.do(t, http.MethodPost, "/api/v1/admin/betslips/1/settle", "tipster", map[string]string{"outcome": "pending"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", resp.Error)

	code, _ = env.do(t, http.MethodPost, "/api/v1/admin/betslips/1/settle", "tipster", map[string]string{"outcome": "void", "notes": "match abandoned"})
	require.Equal(t, http.StatusOK, code)

	code, resp = env.do(t, http.MethodGet, "/api/v1/betslips/1", "user", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, resp.Data.(map[string]interface{})["betslip"], "outcome")

	code, _ = env.do(t, http.MethodGet, "/api/v1/betslips/42", "user", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodGet, "/api/v1/betslips/1", "visitor", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", resp.Error)
}

func TestBulkSettleReportsPerItemErrors(t *testing.T) {
	env := newTestEnv(t)
	env.store.Put(betslip.Betslip{
		Type: betslip.TypeSingle, League: "Bundesliga", Title: "A", Selection: "Home",
		OddsDecimal: 1.7, StakeUnits: 1, Status: betslip.StatusPending, Outcome: betslip.OutcomePending,
	})
	env.store.Put(betslip.Betslip{
		Type: betslip.TypeMulti, League: "Bundesliga", Title: "B", Selection: "Acca",
		OddsDecimal: 4, StakeUnits: 1, Status: betslip.StatusPending, Outcome: betslip.OutcomePending,
	})

	code, resp := env.do(t, http.MethodPost, "/api/v1/admin/betslips/bulk-settle", "tipster", map[string]interface{}{
		"betslip_ids": []int64{1, 2, 99}, "outcome": "lost",
	})
	require.Equal(t, http.StatusOK, code)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result betslip.BulkResult
	require.NoError(t, json.Unmarshal(raw, &result))

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, []betslip.BulkItemError{
		{ID: 2, Code: "validation", Error: "betslip 2 is a multi, settle its legs instead"},
		{ID: 99, Code: "not_found", Error: "betslip 99 not found"},
	}, result.Errors)
}

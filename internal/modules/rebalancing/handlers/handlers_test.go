package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/allocation"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/planning"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/portfolio"
	"github.com/fxmartin/portfolio-management-sub002/internal/modules/rebalancing"
)

// stubGenerator returns a fixed draft for every request.
type stubGenerator struct {
	draft *planning.DraftPlan
	err   error
}

func (s *stubGenerator) Generate(ctx context.Context, req *planning.GeneratorRequest) (*planning.DraftPlan, error) {
	if s.err != nil {
		return nil, s.err
	}
	draft := *s.draft
	return &draft, nil
}

func setupRouter(t *testing.T, holdings []domain.Holding, gen planning.Generator) chi.Router {
	t.Helper()

	logger := zerolog.Nop()

	openDB := func() *sql.DB {
		db, err := sql.Open("sqlite", ":memory:")
		require.NoError(t, err)
		db.SetMaxOpenConns(1)
		t.Cleanup(func() { db.Close() })
		return db
	}

	holdingRepo := portfolio.NewHoldingRepository(openDB(), logger)
	require.NoError(t, holdingRepo.InitSchema())
	portfolioService := portfolio.NewService(holdingRepo, logger)
	for _, h := range holdings {
		require.NoError(t, portfolioService.Upsert(h))
	}

	modelRepo := allocation.NewRepository(openDB(), logger)
	require.NoError(t, modelRepo.InitSchema())

	analyzer := rebalancing.NewAnalyzer(rebalancing.DefaultPolicy(), logger)
	cache := planning.NewPlanCache(nil, time.Minute, logger)
	planner := planning.NewPlanner(gen, cache, planning.DefaultPriorityPolicy(), logger)

	handler := NewHandler(portfolioService, analyzer, planner, modelRepo, logger)
	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})
	return router
}

func driftedHoldings() []domain.Holding {
	return []domain.Holding{
		{Symbol: "VWCE.DE", AssetClass: domain.AssetClassStock, Quantity: 40, Price: 125},
		{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.07, Price: 50000},
		{Symbol: "XAD1.DE", AssetClass: domain.AssetClassMetal, Quantity: 30, Price: 50},
	}
}

func stubDraft() *planning.DraftPlan {
	return &planning.DraftPlan{
		Summary: "Sell crypto into stocks",
		Actions: []planning.DraftAction{
			{Side: domain.TradeSideBuy, AssetClass: domain.AssetClassStock, Symbol: "VWCE.DE", Quantity: 8, Price: 125, EstimatedValue: 1000},
			{Side: domain.TradeSideSell, AssetClass: domain.AssetClassCrypto, Symbol: "BTC", Quantity: 0.02, Price: 50000, EstimatedValue: 1000},
		},
	}
}

func TestHandleGetAnalysis(t *testing.T) {
	router := setupRouter(t, driftedHoldings(), &stubGenerator{draft: stubDraft()})

	req := httptest.NewRequest(http.MethodGet, "/api/rebalancing/analysis", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var analysis rebalancing.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))

	assert.Equal(t, "moderate", analysis.ModelName)
	assert.InDelta(t, 10000.0, analysis.TotalValue, 1e-9)
	assert.True(t, analysis.RebalancingRequired)
	require.Len(t, analysis.Lines, 3)
	assert.Equal(t, domain.AssetClassStock, analysis.Lines[0].AssetClass)
	assert.InDelta(t, -10.0, analysis.Lines[0].Deviation, 1e-9)
}

func TestHandleGetAnalysis_CustomModel(t *testing.T) {
	router := setupRouter(t, driftedHoldings(), &stubGenerator{draft: stubDraft()})

	req := httptest.NewRequest(http.MethodGet,
		"/api/rebalancing/analysis?model=custom&custom_stocks=50&custom_crypto=35&custom_metals=15", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var analysis rebalancing.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analysis))
	assert.Equal(t, "custom", analysis.ModelName)
	assert.False(t, analysis.RebalancingRequired)
}

func TestHandleGetAnalysis_BadModel(t *testing.T) {
	router := setupRouter(t, driftedHoldings(), &stubGenerator{draft: stubDraft()})

	tests := []struct {
		name string
		url  string
	}{
		{"unknown model", "/api/rebalancing/analysis?model=yolo"},
		{"custom missing params", "/api/rebalancing/analysis?model=custom&custom_stocks=50"},
		{"custom bad sum", "/api/rebalancing/analysis?model=custom&custom_stocks=50&custom_crypto=35&custom_metals=30"},
		{"custom not numeric", "/api/rebalancing/analysis?model=custom&custom_stocks=a&custom_crypto=35&custom_metals=15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleGetRecommendations(t *testing.T) {
	router := setupRouter(t, driftedHoldings(), &stubGenerator{draft: stubDraft()})

	req := httptest.NewRequest(http.MethodPost, "/api/rebalancing/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var plan planning.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))

	assert.Equal(t, domain.PlanPriorityHigh, plan.Priority)
	assert.Len(t, plan.Actions, 2)
	assert.False(t, plan.Cached)

	// Second identical request is served from the cache.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/rebalancing/recommendations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.True(t, plan.Cached)
}

func TestHandleGetRecommendations_Balanced(t *testing.T) {
	balanced := []domain.Holding{
		{Symbol: "VWCE.DE", AssetClass: domain.AssetClassStock, Quantity: 48, Price: 125},
		{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.05, Price: 50000},
		{Symbol: "XAD1.DE", AssetClass: domain.AssetClassMetal, Quantity: 30, Price: 50},
	}
	router := setupRouter(t, balanced, &stubGenerator{draft: stubDraft()})

	req := httptest.NewRequest(http.MethodPost, "/api/rebalancing/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetRecommendations_GeneratorDown(t *testing.T) {
	router := setupRouter(t, driftedHoldings(), &stubGenerator{err: domain.ErrGeneratorUnavailable})

	req := httptest.NewRequest(http.MethodPost, "/api/rebalancing/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleGetRecommendations_InvalidDraft(t *testing.T) {
	draft := stubDraft()
	draft.Actions[1].Side = domain.TradeSideBuy
	router := setupRouter(t, driftedHoldings(), &stubGenerator{draft: draft})

	req := httptest.NewRequest(http.MethodPost, "/api/rebalancing/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

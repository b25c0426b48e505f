package portfolio

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fxmartin/portfolio-management-sub002/internal/domain"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewHoldingRepository(db, zerolog.Nop())
	require.NoError(t, repo.InitSchema())
	return NewService(repo, zerolog.Nop())
}

func TestService_Snapshot_Empty(t *testing.T) {
	svc := setupService(t)

	snapshot, holdings, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snapshot.TotalValue)
	assert.Empty(t, holdings)
}

func TestService_Snapshot_AggregatesByClass(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "VWCE.DE", AssetClass: domain.AssetClassStock, Quantity: 40, Price: 125}))
	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "IWDA.AS", AssetClass: domain.AssetClassStock, Quantity: 10, Price: 100}))
	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.05, Price: 50000}))
	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "XAD1.DE", AssetClass: domain.AssetClassMetal, Quantity: 30, Price: 50}))

	snapshot, holdings, err := svc.Snapshot()
	require.NoError(t, err)

	assert.InDelta(t, 10000.0, snapshot.TotalValue, 1e-9)
	assert.InDelta(t, 6000.0, snapshot.Value(domain.AssetClassStock), 1e-9)
	assert.InDelta(t, 2500.0, snapshot.Value(domain.AssetClassCrypto), 1e-9)
	assert.InDelta(t, 1500.0, snapshot.Value(domain.AssetClassMetal), 1e-9)
	assert.Len(t, holdings, 4)
}

func TestService_Upsert_ComputesMarketValue(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.1, Price: 40000}))

	_, holdings, err := svc.Snapshot()
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.InDelta(t, 4000.0, holdings[0].MarketValue, 1e-9)
	assert.Equal(t, domain.CurrencyEUR, holdings[0].Currency)
}

func TestService_Upsert_UpdatesExistingSymbol(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.1, Price: 40000}))
	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.2, Price: 45000}))

	snapshot, holdings, err := svc.Snapshot()
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.InDelta(t, 9000.0, snapshot.TotalValue, 1e-9)
}

func TestService_Upsert_RejectsInvalid(t *testing.T) {
	svc := setupService(t)

	err := svc.Upsert(domain.Holding{Symbol: "", AssetClass: domain.AssetClassStock})
	assert.ErrorIs(t, err, domain.ErrInvalidHoldings)

	err = svc.Upsert(domain.Holding{Symbol: "TLT", AssetClass: domain.AssetClass("BOND"), Quantity: 1, Price: 90})
	assert.ErrorIs(t, err, domain.ErrInvalidHoldings)

	err = svc.Upsert(domain.Holding{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: -1, Price: 40000, MarketValue: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidHoldings)
}

func TestService_Upsert_CurrencyHandling(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "MSTR", AssetClass: domain.AssetClassStock, Quantity: 2, Price: 300, Currency: domain.CurrencyUSD}))

	_, holdings, err := svc.Snapshot()
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, domain.CurrencyUSD, holdings[0].Currency)

	err = svc.Upsert(domain.Holding{Symbol: "RR.L", AssetClass: domain.AssetClassStock, Quantity: 10, Price: 5, Currency: domain.Currency("GBP")})
	assert.ErrorIs(t, err, domain.ErrInvalidHoldings)
}

func TestService_Replace(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "OLD", AssetClass: domain.AssetClassStock, Quantity: 1, Price: 100}))

	err := svc.Replace([]domain.Holding{
		{Symbol: "VWCE.DE", AssetClass: domain.AssetClassStock, Quantity: 40, Price: 125},
		{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.05, Price: 50000},
	})
	require.NoError(t, err)

	_, holdings, err := svc.Snapshot()
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	for _, h := range holdings {
		assert.NotEqual(t, "OLD", h.Symbol)
	}
}

func TestService_Replace_InvalidRollsBack(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "KEEP", AssetClass: domain.AssetClassStock, Quantity: 1, Price: 100}))

	err := svc.Replace([]domain.Holding{
		{Symbol: "VWCE.DE", AssetClass: domain.AssetClassStock, Quantity: 40, Price: 125},
		{Symbol: "BAD", AssetClass: domain.AssetClass("BOND"), Quantity: 1, Price: 90},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidHoldings)

	_, holdings, snapErr := svc.Snapshot()
	require.NoError(t, snapErr)
	require.Len(t, holdings, 1)
	assert.Equal(t, "KEEP", holdings[0].Symbol)
}

func TestService_Delete(t *testing.T) {
	svc := setupService(t)

	require.NoError(t, svc.Upsert(domain.Holding{Symbol: "BTC", AssetClass: domain.AssetClassCrypto, Quantity: 0.1, Price: 40000}))
	require.NoError(t, svc.Delete("BTC"))

	snapshot, holdings, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Zero(t, snapshot.TotalValue)
	assert.Empty(t, holdings)

	// Deleting a missing symbol is not an error.
	assert.NoError(t, svc.Delete("BTC"))
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealcheck/lmscan/internal/ledger"
	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/store"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

func testStore(t *testing.T) store.Store {
	t.Helper()
	led := ledger.New(taxonomy.Default(), ledger.Options{})
	st, err := store.NewFile(t.TempDir(), led)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.AppendScan(context.Background(), model.ScanRecord{
		Timestamp: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Product:   model.Product{Title: "Corn Flakes Cereal", Manufacturer: "Kellogg India Pvt Ltd"},
		Compliance: model.ComplianceSnapshot{
			Score: 1.0,
			Level: model.LevelExcellent,
		},
		Fields: map[string]string{taxonomy.FieldMRP: "MRP: Rs. 199"},
	})
	require.NoError(t, err)
	return st
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := newRouter(testStore(t), []string{"*"})

	rr := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestOverviewEndpoint(t *testing.T) {
	h := newRouter(testStore(t), []string{"*"})

	rr := get(t, h, "/api/overview")
	require.Equal(t, http.StatusOK, rr.Code)

	var ov ledger.Overview
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ov))
	assert.Equal(t, 1, ov.TotalScans)
	assert.Equal(t, 1, ov.TotalManufacturers)
}

func TestManufacturersEndpoint(t *testing.T) {
	h := newRouter(testStore(t), []string{"*"})

	rr := get(t, h, "/api/manufacturers")
	require.Equal(t, http.StatusOK, rr.Code)

	var rows []model.ManufacturerSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Kellogg India Pvt Ltd", rows[0].Key)
}

func TestManufacturerDetailEndpoint(t *testing.T) {
	h := newRouter(testStore(t), []string{"*"})

	rr := get(t, h, "/api/manufacturers/Kellogg%20India%20Pvt%20Ltd")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "trend")

	rr = get(t, h, "/api/manufacturers/Nobody")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	h := newRouter(testStore(t), []string{"*"})

	rr := get(t, h, "/api/history?manufacturer=Kellogg+India+Pvt+Ltd&limit=5")
	require.Equal(t, http.StatusOK, rr.Code)

	var recs []model.ScanRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Corn Flakes Cereal", recs[0].Product.Title)

	rr = get(t, h, "/api/history?category=Electronics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null\n", rr.Body.String())
}

func TestHistoryEndpointRejectsBadLimit(t *testing.T) {
	h := newRouter(testStore(t), []string{"*"})

	rr := get(t, h, "/api/history?limit=ten")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "limit must be an integer")
}

package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wmsexpress/backend/internal/application/lookup"
	"github.com/wmsexpress/backend/internal/domain/receipt"
	"github.com/wmsexpress/backend/internal/interfaces/http/dto"
	"github.com/wmsexpress/backend/internal/interfaces/http/middleware"
)

func setupReceiptRouter(t *testing.T) *gin.Engine {
	t.Helper()
	catalog := newTestCatalog(t)
	h := NewReceiptHandler(lookup.NewReceiptService(catalog, receipt.NewStaticDetailProvider(catalog), nil))

	middleware.SetupValidator()
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/api/v1/receipts/:id", h.Get)
	r.PUT("/api/v1/receipts/:id", h.Update)
	r.POST("/api/v1/stock-moves", h.MoveStock)
	return r
}

func TestReceiptHandler_Get(t *testing.T) {
	r := setupReceiptRouter(t)

	t.Run("known receipt", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/receipts/wr-004", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var d receipt.Detail
		decodeData(t, w, &d)
		assert.Equal(t, "WR-004", d.ReceiptID)
		assert.Equal(t, "PO-004", d.PurchaseOrder)
		assert.Equal(t, receipt.CarrierGround, d.Carrier)
		assert.True(t, d.Weight.Equal(decimal.NewFromInt(15)))
	})

	t.Run("unknown receipt", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/api/v1/receipts/WR-404", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeNotFound)
	})
}

func TestReceiptHandler_Update(t *testing.T) {
	r := setupReceiptRouter(t)

	t.Run("valid edit is echoed and not persisted", func(t *testing.T) {
		edit := receipt.SampleDetail()
		edit.Carrier = receipt.CarrierAir
		edit.IsHazmat = false

		w := doJSON(r, http.MethodPut, "/api/v1/receipts/WR-002", edit)
		require.Equal(t, http.StatusOK, w.Code)

		var resp lookup.UpdateResponse
		decodeData(t, w, &resp)
		assert.False(t, resp.Persisted)
		assert.Equal(t, "WR-002", resp.Detail.ReceiptID)
		assert.Equal(t, receipt.CarrierAir, resp.Detail.Carrier)
		assert.Empty(t, resp.Detail.HazmatNumber)
	})

	t.Run("field errors are reported", func(t *testing.T) {
		edit := receipt.SampleDetail()
		edit.EmployeeID = " "
		edit.Carrier = "sea"

		w := doJSON(r, http.MethodPut, "/api/v1/receipts/WR-002", edit)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Len(t, resp.Error.Details, 2)
	})

	t.Run("unknown receipt", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/api/v1/receipts/WR-404", receipt.SampleDetail())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReceiptHandler_MoveStock(t *testing.T) {
	r := setupReceiptRouter(t)

	t.Run("accepted", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/stock-moves", receipt.MoveRequest{
			ClientID:      1,
			PurchaseOrder: "PO-002",
			Location:      "D4-E5",
			EmployeeID:    "EMP001",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp lookup.MoveResponse
		decodeData(t, w, &resp)
		assert.Equal(t, "Acme Corp", resp.ClientName)
		assert.Equal(t, "PO-002", resp.PurchaseOrder)
		assert.False(t, resp.Persisted)
	})

	t.Run("purchase order of another client", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/stock-moves", receipt.MoveRequest{
			ClientID:      1,
			PurchaseOrder: "PO-006",
			Location:      "D4",
			EmployeeID:    "EMP001",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeBusinessRule)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/stock-moves", map[string]any{"client_id": 1})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Error.Details, 3)
	})

	t.Run("unknown client", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/api/v1/stock-moves", receipt.MoveRequest{
			ClientID:      77,
			PurchaseOrder: "PO-001",
			Location:      "D4",
			EmployeeID:    "EMP001",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"stockpulse/backend/internal/domain"
	"stockpulse/backend/internal/report"
)

const defaultTrailingDays = 7

type modelNameRequest struct {
	Name string `json:"name"`
}

type priceRequest struct {
	Price json.RawMessage `json:"price"`
}

type pricesRequest struct {
	Prices map[string]json.RawMessage `json:"prices"`
}

type stockRequest struct {
	Stock int `json:"stock"`
}

type periodRequest struct {
	Days int `json:"days"`
}

// parsePrice accepts a JSON number or numeric string. Anything else is 0.
func parsePrice(raw json.RawMessage) decimal.Decimal {
	text := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return price
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": a.service.ListModels(r.Context())})
}

func (a *API) handleAddModel(w http.ResponseWriter, r *http.Request) {
	var req modelNameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	model, err := a.service.AddModel(r.Context(), req.Name)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"model": model})
}

func (a *API) handleRenameModel(w http.ResponseWriter, r *http.Request) {
	var req modelNameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	model, err := a.service.RenameModel(r.Context(), chi.URLParam(r, "model"), req.Name)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": model})
}

func (a *API) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteModel(r.Context(), chi.URLParam(r, "model")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	model, err := a.service.SetPrice(r.Context(), chi.URLParam(r, "model"), parsePrice(req.Price))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": model})
}

func (a *API) handleSetPrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	prices := make(map[string]decimal.Decimal, len(req.Prices))
	for model, raw := range req.Prices {
		prices[model] = parsePrice(raw)
	}
	models, err := a.service.SetPrices(r.Context(), prices)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (a *API) handleSetAttributes(w http.ResponseWriter, r *http.Request) {
	var req domain.AttributeUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	model, err := a.service.SetAttributes(r.Context(), chi.URLParam(r, "model"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": model})
}

func (a *API) handleModelSales(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	raw := strings.TrimSpace(r.URL.Query().Get("days"))

	var (
		sales domain.PeriodSales
		err   error
	)
	if raw == "" {
		sales, err = a.service.SalesForSafetyStockPeriod(r.Context(), model)
	} else {
		days, convErr := strconv.Atoi(raw)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, errors.New("days must be an integer"))
			return
		}
		sales, err = a.service.SalesForPeriod(r.Context(), model, days)
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

func (a *API) handleInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"rows": a.service.Inventory(r.Context())})
}

func (a *API) handleInventoryExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}
	summary := a.service.InventorySummary(r.Context())

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		if err := report.WriteCSV(&buf, summary); err != nil {
			a.writeServiceError(w, err)
			return
		}
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		if err := report.WriteXLSX(&buf, summary); err != nil {
			a.writeServiceError(w, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported export format %q", format))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(summary, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *API) handleSetStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	model, err := a.service.SetStock(r.Context(), chi.URLParam(r, "model"), req.Stock)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"model": model})
}

func (a *API) handleBatchUpdateStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.BatchUpdateStock(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := a.service.ListSales(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req domain.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sale, err := a.service.RecordSale(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (a *API) handleDeleteSaleLineItem(w http.ResponseWriter, r *http.Request) {
	quantity, err := parseOptionalInt(r.URL.Query().Get("quantity"), 0)
	if err != nil || quantity < 1 {
		writeError(w, http.StatusBadRequest, errors.New("quantity must be a positive integer"))
		return
	}

	err = a.service.DeleteSaleLineItem(r.Context(), chi.URLParam(r, "date"), chi.URLParam(r, "model"), quantity)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDayReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.DayReport(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleTrailingReport(w http.ResponseWriter, r *http.Request) {
	days, err := parseOptionalInt(r.URL.Query().Get("days"), defaultTrailingDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("days must be an integer"))
		return
	}

	report, err := a.service.TrailingReport(r.Context(), days)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.MonthReport(r.Context()))
}

func (a *API) handleRangeReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	report, err := a.service.RangeReport(r.Context(), query.Get("start"), query.Get("end"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Settings(r.Context()))
}

func (a *API) handleSetSafetyStockPeriod(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	settings, err := a.service.SetSafetyStockPeriod(r.Context(), req.Days)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleSetMonthlyTargets(w http.ResponseWriter, r *http.Request) {
	var req domain.MonthlyTargets
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	settings, err := a.service.SetMonthlyTargets(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (a *API) handleRecompute(w http.ResponseWriter, r *http.Request) {
	a.service.RecomputeSafetyStock(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"rows": a.service.Inventory(r.Context())})
}

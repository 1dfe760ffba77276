package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mesapos/mesa-backend/api/responses"
	"github.com/mesapos/mesa-backend/api/validators"
	"github.com/mesapos/mesa-backend/internal/availability"
	"github.com/mesapos/mesa-backend/internal/catalog"
	"github.com/mesapos/mesa-backend/internal/ledger"
	"github.com/mesapos/mesa-backend/pkg/enums"
	pkgerrors "github.com/mesapos/mesa-backend/pkg/errors"
	"github.com/mesapos/mesa-backend/pkg/logger"
	"github.com/mesapos/mesa-backend/pkg/types"
)

type restockRequest struct {
	ItemRef  string          `json:"item_ref" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"required"`
	Reason   string          `json:"reason" validate:"omitempty,max=120"`
}

// InventorySnapshot returns every stock pool with current levels. A refs
// query param narrows the read to the named pools.
func InventorySnapshot(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("refs"); raw != "" {
			refs := make([]types.ItemRef, 0)
			for _, part := range strings.Split(raw, ",") {
				ref, err := types.ParseItemRef(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid item ref").WithDetails(map[string]string{"ref": part}))
					return
				}
				refs = append(refs, ref)
			}
			stocks, err := svc.StocksFor(r.Context(), refs)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			pools := make(map[string]string, len(stocks))
			for ref, qty := range stocks {
				pools[ref.String()] = qty.String()
			}
			responses.WriteSuccess(w, pools)
			return
		}

		snap, err := svc.Snapshot(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// InventoryRestock applies a manual stock correction and records it on the
// movement ledger. Restocking a directly tracked menu item re-enables it.
func InventoryRestock(svc ledger.Service, cat catalog.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req restockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref, err := types.ParseItemRef(req.ItemRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item ref"))
			return
		}

		txn, err := svc.ManualRestock(r.Context(), ledger.RestockInput{
			Ref:      ref,
			Quantity: req.Quantity,
			Reason:   req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if ref.Kind == enums.ItemRefKindMenuItemDirect && req.Quantity.IsPositive() {
			if err := cat.SetInventoryAvailable(r.Context(), ref.ID, true); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "re-enable menu item"))
				return
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// InventoryHistory returns recent ledger movements for one stock pool.
func InventoryHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := types.ParseItemRef(r.URL.Query().Get("item_ref"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item ref"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.History(r.Context(), ref, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txns)
	}
}

// MenuItemAvailability reports whether qty units of a menu item can be served
// right now.
func MenuItemAvailability(cat catalog.Repository, stocks ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParsePathUUID(chi.URLParam(r, "menuItemID"), "menuItemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty, err := validators.ParseQueryInt(r, "qty", 1, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := cat.FindMenuItem(r.Context(), itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "menu item not found"))
			return
		}

		pools, err := stocks.StocksFor(r.Context(), availability.RefsFor(item))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := availability.Check(item, qty, pools)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mesapos/mesa-backend/api/responses"
	"github.com/mesapos/mesa-backend/api/validators"
	"github.com/mesapos/mesa-backend/internal/tables"
	"github.com/mesapos/mesa-backend/pkg/logger"
)

// ListTables returns the floor plan with live occupancy.
func ListTables(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetTable returns one table.
func GetTable(svc tables.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := validators.ParsePathUUID(chi.URLParam(r, "tableID"), "tableID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		table, err := svc.Get(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}

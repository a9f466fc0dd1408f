// internal/app/features/contact/messages.go
package contact

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/formdrop/httputil"
	"github.com/dalemusser/formdrop/internal/domain/models"
	"github.com/dalemusser/formdrop/pantry/export"
	"go.uber.org/zap"
)

const exportName = "messages"

// load fetches every submission or writes a 500 and returns false.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) ([]models.Submission, bool) {
	subs, err := h.lister.List(r.Context())
	if err != nil {
		h.logger.Error("list submissions failed", zap.Error(err))
		httputil.JSONError(w, http.StatusInternalServerError, "store_unavailable", "Failed to load messages")
		return nil, false
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, true
}

// listJSON serves GET /api/messages.
func (h *Handler) listJSON(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.load(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subs)
}

// listCSV serves GET /api/messages.csv.
func (h *Handler) listCSV(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := export.ServeCSV(w, exportName+".csv", table(subs)); err != nil {
		h.logger.Error("csv export failed", zap.Error(err))
	}
}

// listExcel serves GET /api/messages.xlsx.
func (h *Handler) listExcel(w http.ResponseWriter, r *http.Request) {
	subs, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := export.ServeExcel(w, exportName+".xlsx", "Messages", table(subs)); err != nil {
		h.logger.Error("excel export failed", zap.Error(err))
	}
}

func table(subs []models.Submission) export.Table {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, s.Email, s.Phone, s.Message, s.Timestamp})
	}
	return export.Table{Headers: models.Columns, Rows: rows}
}

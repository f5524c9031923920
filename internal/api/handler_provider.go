package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/fastprodman/ledgerengine/internal/models"
	"github.com/fastprodman/ledgerengine/internal/repos/snapshots"
	"github.com/fastprodman/ledgerengine/internal/repos/transactions"
	"github.com/fastprodman/ledgerengine/internal/services/processor"
	"github.com/fastprodman/ledgerengine/internal/services/snapshot"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DefaultMaxBody caps the size of an uploaded CSV.
const DefaultMaxBody int64 = 64 << 20

// Runner processes one CSV input into final account states.
type Runner interface {
	Process(ctx context.Context, r io.Reader) (processor.Result, error)
}

// SnapshotStore persists finished runs and reads them back.
type SnapshotStore interface {
	Export(ctx context.Context, res processor.Result) error
	Accounts(ctx context.Context, runID uuid.UUID) (snapshots.Run, []models.Account, error)
}

// HandlerProvider exposes the run endpoints. Snapshots are optional; when
// nil, runs are not exported and the snapshot lookup is not routed.
type HandlerProvider struct {
	runner  Runner
	snaps   SnapshotStore
	maxBody int64
}

// NewHandler returns a new Handler provider.
func NewHandler(runner Runner, snaps SnapshotStore) *HandlerProvider {
	return &HandlerProvider{
		runner:  runner,
		snaps:   snaps,
		maxBody: DefaultMaxBody,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type accountResponse struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

type runResponse struct {
	RunID      string            `json:"run_id"`
	Records    uint64            `json:"records"`
	Rejected   uint64            `json:"rejected"`
	Malformed  uint64            `json:"malformed"`
	DurationMS int64             `json:"duration_ms"`
	Exported   bool              `json:"exported"`
	Accounts   []accountResponse `json:"accounts"`
}

func toAccountResponses(accounts []models.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))

	for _, acc := range accounts {
		out = append(out, accountResponse{
			Client:    acc.ClientID,
			Available: acc.Available.StringFixed(models.AmountPlaces),
			Held:      acc.Held.StringFixed(models.AmountPlaces),
			Total:     acc.Total().StringFixed(models.AmountPlaces),
			Locked:    acc.Locked,
		})
	}

	return out
}

// --- Handlers ---

// CreateRunHandler handles POST /v1/runs. The body is the CSV input.
func (h *HandlerProvider) CreateRunHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	defer r.Body.Close()

	res, err := h.runner.Process(r.Context(), r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError

		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		case errors.Is(err, transactions.ErrDuplicateTransaction):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, context.Canceled):
			slog.Info("run cancelled by client", "error", err)
		default:
			slog.Error("run failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	exported := false

	if h.snaps != nil {
		err = h.snaps.Export(r.Context(), res)
		if err != nil {
			slog.Error("export failed", "run_id", res.RunID.String(), "error", err)
			writeError(w, http.StatusInternalServerError, "export failed")

			return
		}

		exported = true
	}

	writeJSON(w, http.StatusOK, runResponse{
		RunID:      res.RunID.String(),
		Records:    res.Stats.Records,
		Rejected:   res.Stats.RejectedTotal(),
		Malformed:  res.Malformed,
		DurationMS: res.Duration().Milliseconds(),
		Exported:   exported,
		Accounts:   toAccountResponses(res.Accounts),
	})
}

// GetRunAccountsHandler handles GET /v1/runs/{runId}/accounts.
func (h *HandlerProvider) GetRunAccountsHandler(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(chi.URLParam(r, "runId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid runId in path")
		return
	}

	run, accounts, err := h.snaps.Accounts(r.Context(), runID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}

		slog.Error("load snapshot failed", "run_id", runID.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		RunID:      run.ID.String(),
		Records:    run.Records,
		Rejected:   run.Rejected,
		Malformed:  run.Malformed,
		DurationMS: run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
		Exported:   true,
		Accounts:   toAccountResponses(accounts),
	})
}

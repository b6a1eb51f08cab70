// Package api exposes the time-window filter over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"s1apflow/internal/config"
	"s1apflow/internal/enrich"
	"s1apflow/internal/flowset"
	"s1apflow/internal/timefilter"
	"s1apflow/internal/tshark"
	"s1apflow/pkg/parse"
	"s1apflow/pkg/pcap"
)

// Handler serves filter queries over a configured flow set and capture.
type Handler struct {
	flowsPath   string
	capturePath string
	enricher    *enrich.Enricher
}

// NewHandler wires the handler from config.
func NewHandler(cfg *config.Config) *Handler {
	runner := tshark.NewRunner(cfg.Tshark.Path, cfg.Tshark.SummaryFields)
	return &Handler{
		flowsPath:   cfg.API.FlowsPath,
		capturePath: cfg.API.CapturePath,
		enricher:    enrich.New(runner, cfg.Tshark.ChunkBudget, cfg.Enrich.NumWorkers),
	}
}

// Router returns the API routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/flows", h.listFlows).Methods("GET")
	r.HandleFunc("/api/v1/flows/filter", h.filterFlows).Methods("POST")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")
	return r
}

// filterRequest is the body of a filter query. Start and end accept epoch
// seconds or ISO-8601 strings.
type filterRequest struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	Mode       string `json:"mode"`
	ShowTime   bool   `json:"show_time"`
	ShowFrames bool   `json:"show_frames"`
}

func (h *Handler) listFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := flowset.Read(h.flowsPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read flow set: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, flows)
}

func (h *Handler) filterFlows(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}

	start, err := parse.Time(req.Start)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parse.Time(req.End)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = string(timefilter.ModeContained)
	}
	mode, err := timefilter.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flows, err := flowset.Read(h.flowsPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read flow set: %v", err), http.StatusInternalServerError)
		return
	}

	if timefilter.NeedBackfill(flows) {
		times, err := pcap.FrameTimes(h.capturePath)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to extract frame times: %v", err), http.StatusInternalServerError)
			return
		}
		timefilter.Backfill(flows, times)
	}

	kept, err := timefilter.Filter(flows, start, end, mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	set, err := h.enricher.EnrichAll(r.Context(), h.capturePath, kept, enrich.Options{
		ShowTime:   req.ShowTime,
		ShowFrames: req.ShowFrames,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to enrich flows: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, set)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

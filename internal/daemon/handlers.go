package daemon

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"partscope/internal/api"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/services"
	"partscope/internal/workflow"
)

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.daemon.store.Count(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := s.daemon.Status(r.Context())
	checks := make([]api.Check, 0, len(status.Checks))
	for _, c := range status.Checks {
		checks = append(checks, api.Check{Name: c.Name, Passed: c.Passed, Detail: c.Detail})
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:     "ok",
		Items:      count,
		Classifier: s.cfg.Classifier.Backend,
		Insights:   s.cfg.Insights.Backend,
		Checks:     checks,
	})
}

func (s *apiServer) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req api.PredictRequest
	if !s.decode(w, r, &req) {
		return
	}
	data, err := decodeImage(req.ImageBase64)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.daemon.engine.Predict(r.Context(), data)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PredictResponse{Score: result.Score, Label: result.Label})
}

func (s *apiServer) handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.fail(w, r, services.Validationf("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	records, err := s.daemon.engine.PredictionHistory(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.PredictionsResponse{Predictions: api.FromPredictions(records)})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	var filter inventory.Filter
	for _, value := range r.URL.Query()["status"] {
		for part := range strings.SplitSeq(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := inventory.ParseStatus(part)
			if !ok {
				s.fail(w, r, services.Validationf("status %q is not allowed", strings.TrimSpace(part)))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	items, err := s.daemon.engine.Items(r.Context(), filter)
	s.respondItems(w, r, items, err)
}

func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req api.UploadRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		s.fail(w, r, services.Validationf("items cannot be empty"))
		return
	}
	images := make([]workflow.IntakeImage, 0, len(req.Items))
	for i, entry := range req.Items {
		if strings.TrimSpace(entry.ImageBase64) == "" {
			s.fail(w, r, services.Validationf("each item must include image_base64 data (item %d)", i+1))
			return
		}
		data, err := decodeImage(entry.ImageBase64)
		if err != nil {
			s.fail(w, r, services.Validationf("item %d: %s", i+1, services.Message(err)))
			return
		}
		images = append(images, workflow.IntakeImage{Data: data, Name: entry.Name, Filename: entry.Filename})
	}
	items, err := s.daemon.engine.Intake(r.Context(), images)
	s.respondItems(w, r, items, err)
}

func (s *apiServer) handleClassify(w http.ResponseWriter, r *http.Request) {
	opts := workflow.ClassifyOptions{}
	if raw := r.URL.Query().Get("only_unclassified"); raw != "" {
		only, err := strconv.ParseBool(raw)
		if err != nil {
			s.fail(w, r, services.Validationf("only_unclassified must be a boolean"))
			return
		}
		opts.OnlyUnclassified = only
	}
	items, err := s.daemon.engine.ClassifyAll(r.Context(), opts)
	s.respondItems(w, r, items, err)
}

func (s *apiServer) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.fail(w, r, services.Validationf("invalid item id %q", r.PathValue("id")))
		return
	}
	var req api.PatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	item, err := s.daemon.engine.PatchItem(r.Context(), id, api.ToPatch(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromItem(item))
}

func (s *apiServer) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req api.BatchUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}
	items, err := s.daemon.engine.BatchUpdate(r.Context(), req.ItemIDs, api.ToBatchPatch(req))
	s.respondItems(w, r, items, err)
}

func (s *apiServer) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req api.IDsRequest
	if !s.decode(w, r, &req) {
		return
	}
	items, err := s.daemon.engine.BatchDelete(r.Context(), req.ItemIDs)
	s.respondItems(w, r, items, err)
}

func (s *apiServer) handleInsights(w http.ResponseWriter, r *http.Request) {
	var req api.IDsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.ItemIDs) == 0 {
		s.fail(w, r, services.Validationf("item_ids cannot be empty"))
		return
	}
	report, err := s.daemon.engine.GenerateInsights(r.Context(), req.ItemIDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := api.InsightsResponse{
		Insights: make([]api.Insight, 0, len(report.Insights)),
		Missing:  report.Missing,
	}
	for _, in := range report.Insights {
		resp.Insights = append(resp.Insights, api.FromInsight(in))
	}
	if resp.Missing == nil {
		resp.Missing = []int64{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleApplyInsight(w http.ResponseWriter, r *http.Request) {
	var req api.Insight
	if !s.decode(w, r, &req) {
		return
	}
	item, err := s.daemon.engine.ApplyInsight(r.Context(), api.ToInsight(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromItem(item))
}

func (s *apiServer) respondItems(w http.ResponseWriter, r *http.Request, items []*inventory.Item, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromItems(items))
}

// decode reads a JSON body into dst and writes the error response on failure.
func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		s.fail(w, r, services.Validationf("request body is required"))
	default:
		s.fail(w, r, services.Validationf("invalid JSON body: %v", err))
	}
	return false
}

// fail maps err onto the HTTP status for its taxonomy kind.
func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("request failed", logging.Args(logging.ErrorAttrs(err)...)...)
	}
	writeError(w, status, services.Message(err))
}

func statusForError(err error) int {
	switch services.Kind(err) {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "classifier", "insight_service":
		return http.StatusBadGateway
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeImage accepts plain base64 or a data URL.
func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, services.Validationf("image_base64 is empty")
	}
	if strings.HasPrefix(encoded, "data:") {
		if _, payload, ok := strings.Cut(encoded, ","); ok {
			encoded = payload
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, services.Validationf("image_base64 must be valid base64-encoded data")
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: message})
}

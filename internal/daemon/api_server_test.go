package daemon_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"partscope/internal/api"
	"partscope/internal/config"
	"partscope/internal/testsupport"
)

func TestAPIEndToEndUploadClassifyPatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	uploaded := h.upload(t, 3)
	if len(uploaded) != 3 {
		t.Fatalf("expected 3 items, got %d", len(uploaded))
	}
	for _, item := range uploaded {
		if item.Score != nil || item.Label != nil || item.Status != "awaiting_review" {
			t.Fatalf("unexpected fresh item: %+v", item)
		}
	}

	classified, err := h.client.Classify(ctx, false)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for _, item := range classified {
		if item.Score == nil || item.Label == nil {
			t.Fatalf("expected classification for item %d", item.ID)
		}
		want := 0
		if *item.Score >= 0.5 {
			want = 1
		}
		if *item.Label != want {
			t.Fatalf("label %d inconsistent with score %v", *item.Label, *item.Score)
		}
	}

	second := classified[1].ID
	patched, err := h.client.Patch(ctx, second, api.PatchRequest{Status: testsupport.Ptr("cleared")})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if patched.Status != "cleared" {
		t.Fatalf("expected cleared, got %q", patched.Status)
	}

	final, err := h.client.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for i, item := range final {
		if item.ID == second {
			if item.Status != "cleared" {
				t.Fatalf("item 2 status = %q", item.Status)
			}
			continue
		}
		if item.Status != classified[i].Status || *item.Score != *classified[i].Score {
			t.Fatalf("item %d changed unexpectedly: %+v", item.ID, item)
		}
	}

	filtered, err := h.client.List(ctx, "cleared")
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != second {
		t.Fatalf("unexpected filtered list: %+v", filtered)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := h.upload(t, 1)[0]

	cases := []struct {
		name string
		call func() error
		want int
	}{
		{"unknown status", func() error {
			_, err := h.client.Patch(ctx, item.ID, api.PatchRequest{Status: testsupport.Ptr("scrapped")})
			return err
		}, http.StatusBadRequest},
		{"unknown id", func() error {
			_, err := h.client.Patch(ctx, 404, api.PatchRequest{Owner: testsupport.Ptr("x")})
			return err
		}, http.StatusNotFound},
		{"empty batch fields", func() error {
			_, err := h.client.BatchUpdate(ctx, api.BatchUpdateRequest{ItemIDs: []int64{item.ID}})
			return err
		}, http.StatusBadRequest},
		{"empty insight ids", func() error {
			_, err := h.client.Insights(ctx, nil)
			return err
		}, http.StatusBadRequest},
		{"bad list filter", func() error {
			_, err := h.client.List(ctx, "bogus")
			return err
		}, http.StatusBadRequest},
		{"classifier down", func() error {
			h.cls.setDown(true)
			defer h.cls.setDown(false)
			_, err := h.client.Predict(ctx, testsupport.SmallPNG(t))
			return err
		}, http.StatusBadGateway},
		{"predict garbage", func() error {
			_, err := h.client.Predict(ctx, []byte("not an image"))
			return err
		}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var apiErr *api.Error
			if err := tc.call(); !errors.As(err, &apiErr) {
				t.Fatalf("expected *api.Error, got %v", err)
			}
			if apiErr.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d (%s)", apiErr.StatusCode, tc.want, apiErr.Message)
			}
			if apiErr.Message == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}

func TestAPIInvalidPathID(t *testing.T) {
	h := newHarness(t)
	req, _ := http.NewRequest(http.MethodPatch, h.server.URL+"/api/inventory/abc", strings.NewReader(`{}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAPIBatchOperationsAndInsights(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	items := h.upload(t, 2)
	if _, err := h.client.Classify(ctx, false); err != nil {
		t.Fatalf("Classify: %v", err)
	}

	updated, err := h.client.BatchUpdate(ctx, api.BatchUpdateRequest{
		ItemIDs: []int64{items[0].ID, 99},
		Owner:   testsupport.Ptr("Quality"),
	})
	if err != nil {
		t.Fatalf("BatchUpdate: %v", err)
	}
	if updated[0].Owner != "Quality" || updated[1].Owner != "" {
		t.Fatalf("unexpected owners: %+v", updated)
	}

	report, err := h.client.Insights(ctx, []int64{items[0].ID, 404})
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(report.Insights) != 1 || len(report.Missing) != 1 || report.Missing[0] != 404 {
		t.Fatalf("unexpected report: %+v", report)
	}

	applied, err := h.client.ApplyInsight(ctx, report.Insights[0])
	if err != nil {
		t.Fatalf("ApplyInsight: %v", err)
	}
	if applied.Status != report.Insights[0].RecommendedStatus || !strings.Contains(applied.Notes, report.Insights[0].SuggestedNote) {
		t.Fatalf("insight not applied: %+v", applied)
	}

	first, err := h.client.BatchDelete(ctx, []int64{items[0].ID})
	if err != nil {
		t.Fatalf("BatchDelete: %v", err)
	}
	second, err := h.client.BatchDelete(ctx, []int64{items[0].ID})
	if err != nil {
		t.Fatalf("repeat BatchDelete: %v", err)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Fatalf("delete not idempotent: %+v vs %+v", first, second)
	}
}

func TestAPIPredictAndHistory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.client.Predict(ctx, testsupport.SmallPNG(t)); err != nil {
		t.Fatalf("Predict: %v", err)
	}
	history, err := h.client.Predictions(ctx, 5)
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if len(history) != 1 || history[0].Source != "predict" || history[0].ItemID != nil {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestAPIServesImages(t *testing.T) {
	h := newHarness(t)
	item := h.upload(t, 1)[0]

	resp, err := http.Get(h.client.ImageURL(item.ImagePath))
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		t.Fatalf("expected image bytes, got %d (%d bytes)", resp.StatusCode, len(body))
	}

	for _, path := range []string{"/inventory/images/", "/inventory/images/missing.png", "/inventory/images/.upload-1"} {
		resp, err := http.Get(h.server.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestAPIHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.upload(t, 2)

	health, err := h.client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "ok" || health.Items != 2 || len(health.Checks) == 0 {
		t.Fatalf("unexpected health: %+v", health)
	}

	resp, err := http.Get(h.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	text := string(body)
	for _, want := range []string{"partscope_items_ingested_total", "partscope_http_requests_total"} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestAPIRequestIDAndCORS(t *testing.T) {
	h := newHarness(t)

	req, _ := http.NewRequest(http.MethodOptions, h.server.URL+"/api/inventory/upload", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, h.server.URL+"/api/inventory", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

func TestAPITokenRequired(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Server.APIToken = "s3cret" })

	var apiErr *api.Error
	if _, err := h.client.List(context.Background()); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %v", err)
	}
	if _, err := h.client.Health(context.Background()); err != nil {
		t.Fatalf("health should not require a token: %v", err)
	}

	authed, err := api.NewClient(h.server.URL, api.WithToken("s3cret"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := authed.List(context.Background()); err != nil {
		t.Fatalf("List with token: %v", err)
	}
}

func TestAPITokenChallenge(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Server.APIToken = "s3cret" })
	for name, header := range map[string]string{
		"missing":      "",
		"wrong token":  "Bearer nope",
		"wrong scheme": "Basic s3cret",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.daemon.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
		if got := rec.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer") {
			t.Fatalf("%s: expected bearer challenge, got %q", name, got)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
	req.Header.Set("Authorization", "bearer s3cret")
	rec := httptest.NewRecorder()
	h.daemon.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected case-insensitive scheme to pass, got %d", rec.Code)
	}
}

func TestAPIBodyLimit(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.Server.MaxBodyMB = 1 })
	body := `{"items":[{"image_base64":"` + strings.Repeat("A", 2<<20) + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/inventory/upload", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.daemon.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d (%s)", rec.Code, rec.Body.String())
	}
}

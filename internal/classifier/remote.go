package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"partscope/internal/logging"
	"partscope/internal/services"
)

const (
	defaultRemoteTimeout   = 30 * time.Second
	defaultRemoteAttempts  = 3
	defaultRemoteBaseDelay = 250 * time.Millisecond
	defaultRemoteMaxDelay  = 4 * time.Second
)

// RemoteConfig configures the HTTP model server backend.
type RemoteConfig struct {
	Endpoint string
	Timeout  time.Duration
	Attempts int
	// BaseDelay is the first retry delay; it doubles per attempt up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Remote classifies images by posting them to a model server.
type Remote struct {
	cfg        RemoteConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// RemoteOption customizes a Remote classifier.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewRemote returns a classifier backed by the model server at cfg.Endpoint.
func NewRemote(cfg RemoteConfig, logger *slog.Logger, opts ...RemoteOption) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRemoteTimeout
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = defaultRemoteAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultRemoteBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultRemoteMaxDelay
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	r := &Remote{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logging.NewComponentLogger(logger, "classifier"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type remoteRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type remoteResponse struct {
	Score         *float64  `json:"score"`
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error"`
}

type remoteStatusError struct {
	StatusCode int
	Body       string
}

func (e *remoteStatusError) Error() string {
	return fmt.Sprintf("model server returned http %d: %s", e.StatusCode, e.Body)
}

// Classify posts the image and returns the defect probability.
func (r *Remote) Classify(ctx context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, services.Validationf("image payload is empty")
	}
	body, err := json.Marshal(remoteRequest{ImageBase64: base64.StdEncoding.EncodeToString(data)})
	if err != nil {
		return Result{}, wrapClassifier("encode request", err)
	}

	var lastErr error
	for attempt := 1; attempt <= r.cfg.Attempts; attempt++ {
		score, err := r.post(ctx, body)
		if err == nil {
			return Result{Score: score}, nil
		}
		lastErr = err
		if attempt == r.cfg.Attempts || !retryable(ctx, err) {
			break
		}
		delay := r.backoff(attempt)
		r.logger.Debug("retrying classification",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, wrapClassifier("classify", ctx.Err())
		case <-timer.C:
		}
	}
	return Result{}, wrapClassifier("classify", lastErr)
}

func (r *Remote) post(ctx context.Context, body []byte) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return 0, &remoteStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded remoteResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != "" {
		return 0, fmt.Errorf("model server error: %s", decoded.Error)
	}

	var score float64
	switch {
	case decoded.Score != nil:
		score = *decoded.Score
	case len(decoded.Probabilities) == 2:
		score = decoded.Probabilities[1]
	case len(decoded.Probabilities) == 1:
		score = decoded.Probabilities[0]
	default:
		return 0, errors.New("response carries neither score nor probabilities")
	}
	if !validScore(score) {
		return 0, fmt.Errorf("score %v is outside [0,1]", score)
	}
	return score, nil
}

func (r *Remote) backoff(attempt int) time.Duration {
	delay := r.cfg.BaseDelay
	for i := 1; i < attempt && delay < r.cfg.MaxDelay; i++ {
		delay *= 2
	}
	return min(delay, r.cfg.MaxDelay)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	var status *remoteStatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests ||
			status.StatusCode == http.StatusRequestTimeout ||
			status.StatusCode >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func wrapClassifier(operation string, err error) error {
	return services.Wrap(services.ErrClassifier, "classifier", operation, "", err)
}

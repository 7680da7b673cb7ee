package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partscope/internal/logging"
	"partscope/internal/services"
)

const testEndpoint = "http://model.test/v1/classify"

func newMockedRemote(t *testing.T) (*Remote, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	remote := NewRemote(RemoteConfig{
		Endpoint:  testEndpoint,
		Attempts:  3,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	}, logging.NewNop(), WithHTTPClient(&http.Client{Transport: transport}))
	return remote, transport
}

func TestRemoteClassifySendsBase64AndReadsScore(t *testing.T) {
	remote, transport := newMockedRemote(t)
	payload := []byte("image-bytes")

	transport.RegisterResponder(http.MethodPost, testEndpoint, func(req *http.Request) (*http.Response, error) {
		var body remoteRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		decoded, err := base64.StdEncoding.DecodeString(body.ImageBase64)
		require.NoError(t, err)
		assert.Equal(t, payload, decoded)
		return httpmock.NewStringResponse(http.StatusOK, `{"score":0.83}`), nil
	})

	result, err := remote.Classify(context.Background(), payload)
	require.NoError(t, err)
	assert.InDelta(t, 0.83, result.Score, 1e-9)
}

func TestRemoteClassifyAcceptsProbabilities(t *testing.T) {
	remote, transport := newMockedRemote(t)
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"probabilities":[0.3,0.7]}`))

	result, err := remote.Classify(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, result.Score, 1e-9)
}

func TestRemoteClassifyRetriesServerErrors(t *testing.T) {
	remote, transport := newMockedRemote(t)
	calls := 0
	transport.RegisterResponder(http.MethodPost, testEndpoint, func(*http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(http.StatusServiceUnavailable, "warming up"), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, `{"score":0.2}`), nil
	})

	result, err := remote.Classify(context.Background(), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.InDelta(t, 0.2, result.Score, 1e-9)
}

func TestRemoteClassifyDoesNotRetryBadRequest(t *testing.T) {
	remote, transport := newMockedRemote(t)
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusBadRequest, "bad image"))

	_, err := remote.Classify(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrClassifier)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestRemoteClassifyRejectsOutOfRangeScore(t *testing.T) {
	remote, transport := newMockedRemote(t)
	transport.RegisterResponder(http.MethodPost, testEndpoint,
		httpmock.NewStringResponder(http.StatusOK, `{"score":1.7}`))

	_, err := remote.Classify(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, services.ErrClassifier)
	assert.ErrorContains(t, err, "outside [0,1]")
}

func TestRemoteClassifyRejectsEmptyPayload(t *testing.T) {
	remote, _ := newMockedRemote(t)
	_, err := remote.Classify(context.Background(), nil)
	assert.ErrorIs(t, err, services.ErrValidation)
}

package classifier

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partscope/internal/config"
	"partscope/internal/logging"
	"partscope/internal/services"
)

func TestScoreFromOutputs(t *testing.T) {
	cases := []struct {
		name    string
		outputs []float32
		kind    string
		want    float64
	}{
		{"logit pair", []float32{0, 0}, OutputLogits, 0.5},
		{"logit pair summing to one", []float32{0.3, 0.7}, OutputLogits, 0.598688},
		{"single logit at zero", []float32{0}, OutputLogits, 0.5},
		{"single logit in unit range", []float32{0.9}, OutputLogits, 0.710950},
		{"probability pair", []float32{0.25, 0.75}, OutputProbabilities, 0.75},
		{"single probability", []float32{0.9}, OutputProbabilities, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := scoreFromOutputs(tc.outputs, tc.kind)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-5)
		})
	}

	strong, err := scoreFromOutputs([]float32{-4, 4}, OutputLogits)
	require.NoError(t, err)
	assert.Greater(t, strong, 0.99)

	_, err = scoreFromOutputs([]float32{1, 2, 3}, OutputLogits)
	assert.Error(t, err)
}

func TestTensorLayouts(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	nhwc := Tensor(img, 2, NHWC)
	nchw := Tensor(img, 2, NCHW)
	require.Len(t, nhwc, 12)
	require.Len(t, nchw, 12)

	red := (1 - channelMean[0]) / channelStd[0]
	green := (0 - channelMean[1]) / channelStd[1]
	assert.InDelta(t, red, nhwc[0], 1e-5)
	assert.InDelta(t, green, nhwc[1], 1e-5)
	// In NCHW the first plane is entirely red.
	for i := range 4 {
		assert.InDelta(t, red, nchw[i], 1e-5)
	}
	assert.InDelta(t, green, nchw[4], 1e-5)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Classifier.Backend = "remote"
	c, err := New(&cfg, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, c)

	cfg.Classifier.Backend = "quantum"
	_, err = New(&cfg, logging.NewNop())
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

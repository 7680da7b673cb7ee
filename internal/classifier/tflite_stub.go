//go:build !tflite

package classifier

import (
	"log/slog"

	"partscope/internal/services"
)

// TFLiteConfig configures in-process TensorFlow Lite inference.
type TFLiteConfig struct {
	ModelPath string
	InputSize int
	Threads   int
	// Output is OutputLogits or OutputProbabilities.
	Output string
}

// NewTFLite reports a configuration error; this binary was built without the
// tflite build tag.
func NewTFLite(TFLiteConfig, *slog.Logger) (Classifier, error) {
	return nil, services.Wrap(services.ErrConfiguration, "classifier", "init",
		"tflite backend unavailable: rebuild with -tags tflite", nil)
}

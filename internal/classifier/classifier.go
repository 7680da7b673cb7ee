// Package classifier scores part images for defect probability.
//
// Two backends exist: a remote model server reached over HTTP, and in-process
// TensorFlow Lite inference compiled in with the tflite build tag. Both return
// a Result whose Score is the probability of the "defective" class; the label
// is derived by the inventory package, never by the backend.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"partscope/internal/config"
	"partscope/internal/services"
)

// Result is the outcome of a single classification.
type Result struct {
	Score float64
}

// Classifier scores an encoded image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Result, error)
}

// Closer is implemented by backends that hold native resources.
type Closer interface {
	Close() error
}

const (
	BackendRemote = "remote"
	BackendTFLite = "tflite"
)

// New builds the backend selected by cfg.Classifier.Backend.
func New(cfg *config.Config, logger *slog.Logger) (Classifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Classifier.Backend)) {
	case "", BackendRemote:
		return NewRemote(RemoteConfig{
			Endpoint: cfg.Classifier.Endpoint,
			Timeout:  cfg.ClassifierTimeout(),
		}, logger), nil
	case BackendTFLite:
		return NewTFLite(TFLiteConfig{
			ModelPath: cfg.Classifier.ModelPath,
			InputSize: cfg.Classifier.InputSize,
			Threads:   cfg.Classifier.Threads,
			Output:    cfg.Classifier.Output,
		}, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "init",
			fmt.Sprintf("unknown backend %q", cfg.Classifier.Backend), nil)
	}
}

// Output kinds for in-process models.
const (
	OutputLogits        = "logits"
	OutputProbabilities = "probabilities"
)

// scoreFromOutputs converts raw model outputs into a defect probability.
// Index 1 of a two-class output is "defective". Logits are softmaxed (two
// outputs) or passed through a sigmoid (one output); probabilities are
// returned as reported.
func scoreFromOutputs(outputs []float32, kind string) (float64, error) {
	probabilities := kind == OutputProbabilities
	switch len(outputs) {
	case 1:
		v := float64(outputs[0])
		if probabilities {
			return v, nil
		}
		return sigmoid(v), nil
	case 2:
		a, b := float64(outputs[0]), float64(outputs[1])
		if probabilities {
			return b, nil
		}
		return softmax2(a, b), nil
	default:
		return 0, fmt.Errorf("unexpected output size %d", len(outputs))
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax2(a, b float64) float64 {
	m := math.Max(a, b)
	ea, eb := math.Exp(a-m), math.Exp(b-m)
	return eb / (ea + eb)
}

func validScore(score float64) bool {
	return !math.IsNaN(score) && score >= 0 && score <= 1
}

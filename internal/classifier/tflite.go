//go:build tflite

package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/tphakala/go-tflite"

	"partscope/internal/logging"
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

// TFLite runs a TensorFlow Lite model in process. The interpreter is not safe
// for concurrent use, so Classify serializes invocations.
type TFLite struct {
	mu          sync.Mutex
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	size        int
	layout      Layout
	output      string
	logger      *slog.Logger
}

// NewTFLite loads the model and allocates tensors.
func NewTFLite(cfg TFLiteConfig, logger *slog.Logger) (Classifier, error) {
	logger = logging.NewComponentLogger(logger, "classifier")
	data, err := os.ReadFile(cfg.ModelPath)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "init", "read model", err)
	}
	model := tflite.NewModel(data)
	if model == nil {
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "init", "cannot load model "+cfg.ModelPath, nil)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	options := tflite.NewInterpreterOptions()
	options.SetNumThread(threads)
	options.SetErrorReporter(func(msg string, _ any) {
		logger.Warn("tflite runtime", logging.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "init", "cannot create interpreter", nil)
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "init", "tensor allocation failed", nil)
	}

	input := interpreter.GetInputTensor(0)
	size, layout, err := inputGeometry(input, cfg.InputSize)
	if err != nil {
		interpreter.Delete()
		options.Delete()
		model.Delete()
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "init", "inspect input tensor", err)
	}
	logger.Info("tflite model loaded",
		logging.String("model", cfg.ModelPath),
		logging.Int("input_size", size),
		logging.Int("threads", threads),
	)
	return &TFLite{
		model:       model,
		options:     options,
		interpreter: interpreter,
		size:        size,
		layout:      layout,
		output:      cfg.Output,
		logger:      logger,
	}, nil
}

// inputGeometry reads [1,H,W,3] or [1,3,H,W] from the tensor shape, falling
// back to the configured size when the shape is dynamic.
func inputGeometry(input *tflite.Tensor, fallback int) (int, Layout, error) {
	if input == nil || input.NumDims() != 4 {
		return 0, NHWC, errors.New("expected a rank-4 image tensor")
	}
	if input.Dim(1) == 3 && input.Dim(3) != 3 {
		if h := input.Dim(2); h > 0 {
			return h, NCHW, nil
		}
		return fallback, NCHW, nil
	}
	if h := input.Dim(1); h > 0 {
		return h, NHWC, nil
	}
	return fallback, NHWC, nil
}

// Classify decodes, preprocesses, and scores the image.
func (t *TFLite) Classify(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, wrapClassifier("classify", err)
	}
	img, err := Decode(data)
	if err != nil {
		return Result{}, services.Validationf("%v", err)
	}
	pixels := Tensor(img, t.size, t.layout)

	t.mu.Lock()
	defer t.mu.Unlock()

	input := t.interpreter.GetInputTensor(0)
	dst := input.Float32s()
	if len(dst) != len(pixels) {
		return Result{}, wrapClassifier("classify", fmt.Errorf("input tensor holds %d values, image produced %d", len(dst), len(pixels)))
	}
	copy(dst, pixels)
	if status := t.interpreter.Invoke(); status != tflite.OK {
		return Result{}, wrapClassifier("classify", fmt.Errorf("invoke failed with status %v", status))
	}
	output := t.interpreter.GetOutputTensor(0)
	outputs := append([]float32(nil), output.Float32s()...)
	score, err := scoreFromOutputs(outputs, t.output)
	if err != nil {
		return Result{}, wrapClassifier("classify", err)
	}
	return Result{Score: score}, nil
}

// Close releases the native interpreter.
func (t *TFLite) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interpreter != nil {
		t.interpreter.Delete()
		t.interpreter = nil
	}
	if t.options != nil {
		t.options.Delete()
		t.options = nil
	}
	if t.model != nil {
		t.model.Delete()
		t.model = nil
	}
	return nil
}

package classifier

import (
	"errors"

	"github.com/soundprediction/parascore/pkg/features"
)

// ErrNoNativeRuntime is returned when a checkpoint load is requested but the
// binary was built without a native inference runtime.
var ErrNoNativeRuntime = errors.New("classifier: built without a native inference runtime")

// NewNativeModel loads a sequence-classification checkpoint and its paired
// tokenizer from disk using a native runtime (ONNX Runtime, libtorch or
// similar). Checkpoint loading is a deployment concern: this build ships no
// runtime, so the function always fails with ErrNoNativeRuntime. Library
// consumers with their own runtime should register a custom loader in the
// checkpoint registry instead.
func NewNativeModel(path string, doLowerCase bool) (Model, features.Tokenizer, error) {
	return nil, nil, ErrNoNativeRuntime
}

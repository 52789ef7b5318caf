package checkpoint

import (
	"github.com/soundprediction/parascore/pkg/classifier"
	"github.com/soundprediction/parascore/pkg/features"
)

// DefaultRegistry returns a registry covering both model families, backed by
// the native runtime of the current build.
func DefaultRegistry() Registry {
	native := func(meta Metadata, doLowerCase bool) (classifier.Model, features.Tokenizer, error) {
		return classifier.NewNativeModel(meta.Path, doLowerCase)
	}
	return Registry{
		FamilyBERT:       native,
		FamilyXLMRoberta: native,
	}
}

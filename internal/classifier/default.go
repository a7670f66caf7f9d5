package classifier

import (
	_ "embed"
	"sync"
)

//go:embed default_model.json
var defaultArtifact []byte

var loadDefault = sync.OnceValues(func() (*Model, error) {
	return Parse(defaultArtifact, FormatJSON)
})

// Default returns the compiled-in logistic model. It is built on first use
// and shared afterwards.
func Default() (*Model, error) {
	return loadDefault()
}

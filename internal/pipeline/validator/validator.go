package validator

import (
	"github.com/elskow/pypackager/internal/pipeline/types"
)

type Validator interface {
	// ValidateOptions returns a normalized copy of opts or an *InvalidOptionsError.
	ValidateOptions(opts types.BuildOptions) (types.BuildOptions, error)
	// Advise returns non-fatal findings about opts. It never rejects a build.
	Advise(opts types.BuildOptions) []string
}

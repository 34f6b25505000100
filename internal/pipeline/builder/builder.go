package builder

import (
	"github.com/elskow/pypackager/internal/pipeline/types"
)

// Builder renders a BuildOptions value into the argument vector of one
// packaging tool. Implementations must be pure and deterministic.
type Builder interface {
	Tool() string
	Build(opts types.BuildOptions) []string
}

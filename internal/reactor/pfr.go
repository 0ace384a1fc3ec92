package reactor

import (
	"context"
	"fmt"

	"github.com/san-kum/chemgaloo/internal/kinetics"
)

// RunPFR is reserved for the plug-flow reactor.
func RunPFR(ctx context.Context, chemicals []*kinetics.Chemical, reactions []*kinetics.Reaction) (*Trace, error) {
	return nil, fmt.Errorf("%w: plug-flow reactor", ErrNotImplemented)
}

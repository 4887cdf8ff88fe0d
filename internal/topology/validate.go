package topology

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/psidex/topoedit/internal/lib"
)

// ValidateOptions tightens what Validate reports.
type ValidateOptions struct {
	// RequireSequentialIDs demands node IDs 0, 1, 2... in collection order, the
	// layout network runners expect when a topology is handed to them.
	RequireSequentialIDs bool
}

// Validate reports problems the store itself never rejects: duplicate node IDs,
// edges whose endpoints are missing and, optionally, non-sequential node IDs.
// It returns nil for a clean state.
func Validate(st State, opts ValidateOptions) error {
	var errs []error

	seen := lib.NewSet()
	for i, n := range st.Nodes {
		if seen.Contains(n.ID) {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		seen.Add(n.ID)

		if opts.RequireSequentialIDs {
			if v, err := strconv.Atoi(n.ID); err != nil || v != i {
				errs = append(errs, fmt.Errorf("node id must be incrementing integers (got %q, expected \"%d\")", n.ID, i))
			}
		}
	}

	for _, e := range st.Edges {
		if !seen.Contains(e.Source) {
			errs = append(errs, fmt.Errorf("edge %q: source %q does not exist", e.ID, e.Source))
		}
		if !seen.Contains(e.Target) {
			errs = append(errs, fmt.Errorf("edge %q: target %q does not exist", e.ID, e.Target))
		}
	}

	return errors.Join(errs...)
}

// Validate checks the store's current state.
func (s *Store) Validate(opts ValidateOptions) error {
	return Validate(s.Snapshot(), opts)
}

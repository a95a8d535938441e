//go:build !linux

package pmu

// OpenGroup always fails outside Linux.
func OpenGroup() (Group, error) {
	return nil, ErrUnsupported
}

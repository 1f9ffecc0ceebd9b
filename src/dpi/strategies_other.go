//go:build !windows

package dpi

// SystemStrategies returns no OS strategies on this platform; resolvers
// built from it always answer with Default.
func SystemStrategies(preferWindow bool) []Strategy {
	return nil
}

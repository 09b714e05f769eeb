// Package oversight provides the version information for oversight.
package oversight

// Version is the current version of oversight.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

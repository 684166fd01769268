// ABOUTME: Version constants for the Squelch binaries
// ABOUTME: Single place to bump release information
package version

const (
	// Product is the product name reported in logs.
	Product = "Squelch"

	// Manufacturer identifies the project.
	Manufacturer = "Squelch Radio"

	// Version is the release version.
	Version = "0.1.0"
)

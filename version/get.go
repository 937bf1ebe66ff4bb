package version

// Package returns the overall, canonical project import path under which
// the package was built.
func Package() string {
	return mainpkg
}

// Version returns the module version the running binary was built from.
func Version() string {
	return version
}

// Revision returns the VCS (e.g. git) revision being used to build the
// program at linking time.
func Revision() string {
	return revision
}

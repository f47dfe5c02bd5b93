// Package version reports the build of the commonauth plugin and of the
// services that embed it.
//
// Version, GitCommit and BuildTime are set at link time:
//
//	go build -ldflags "-X github.com/plan3/commonauth/version.Version=1.4.0"
//
// Unset fields are filled from the module's embedded VCS build settings.
package version

package build

import "fmt"

// These variables are set at build time via -ldflags, for example
//
//	-X github.com/shaharia-lab/pushrelay/internal/build.Version=v1.4.0
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}

// UserAgent is sent on every outbound call to the token endpoint and FCM.
func UserAgent() string {
	return "pushrelay/" + Version
}

// Package version holds build-time version info injected via ldflags.
//
//	go build -ldflags "-X github.com/clintecker/hector/pkg/version.tag=v1.0.0
//	  -X github.com/clintecker/hector/pkg/version.commit=abc1234
//	  -X github.com/clintecker/hector/pkg/version.date=2026-01-01"
package version

// Name is the server software name sent in the 002 and 004 replies.
const Name = "hector"

var (
	tag    = ""
	commit = "unknown"
	date   = "unknown"
)

// String returns the tag, the commit, or "dev" for local builds.
func String() string {
	if tag != "" {
		return tag
	}
	if commit != "unknown" {
		return commit
	}
	return "dev"
}

// Server returns "hector-<version>", the version token of the 004 reply.
func Server() string {
	return Name + "-" + String()
}

// Full returns "tag (commit) built date" or a sensible fallback.
func Full() string {
	switch {
	case tag != "":
		return tag + " (" + commit + ") built " + date
	case commit != "unknown":
		return commit + " built " + date
	}
	return "dev"
}

// Date returns the build date.
func Date() string { return date }

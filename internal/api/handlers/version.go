package handlers

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/floatbank/floatbank/internal/response"
	"github.com/gin-gonic/gin"
)

// Version is set via ldflags at build time, usually from `git describe --tags --dirty`
var Version = "dev"

// Mode is set by the router based on config
var Mode = "development"

var (
	describePattern = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]{7,40})$`)
	commitPattern   = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
)

// VersionResponse represents version information about the server
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Mode      string `json:"mode"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// BuildVersion returns the normalized version and commit of this build
func BuildVersion() (version, commit string) {
	return parseGitDescribe(Version)
}

// GetVersion godoc
// @Summary Get version information
// @Description Returns version information about the floatbank server
// @Tags system
// @Produce json
// @Success 200 {object} response.Envelope{result=VersionResponse}
// @Router /version [get]
func GetVersion(c *gin.Context) {
	version, commit := BuildVersion()
	response.OK(c, VersionResponse{
		Version:   version,
		Commit:    commit,
		Mode:      Mode,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}, "Version information")
}

// parseGitDescribe turns `git describe` output into a PEP 440 style version.
// Builds past a tag become <tag>.dev+<commit>.
func parseGitDescribe(s string) (version, commit string) {
	s = strings.TrimSpace(s)
	dirty := strings.HasSuffix(s, "-dirty")
	s = strings.TrimSuffix(s, "-dirty")

	if m := describePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimPrefix(m[1], "v") + ".dev+" + m[3], m[3]
	}
	if commitPattern.MatchString(s) {
		return "dev+" + s, s
	}

	s = strings.TrimPrefix(s, "v")
	if dirty {
		return s + ".dev", ""
	}
	return s, ""
}

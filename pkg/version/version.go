package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X github.com/mediafetch/video-downloader/pkg/version.gitVersion=..."
var (
	gitVersion = "unknown"
	gitCommit  = "unknown"
	buildDate  = "unknown"
)

type Info struct {
	GitVersion string `json:"gitVersion"`
	GitCommit  string `json:"gitCommit"`
	BuildDate  string `json:"buildDate"`
	GoVersion  string `json:"goVersion"`
	Platform   string `json:"platform"`
}

func (info Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", info.GitVersion, info.GitCommit, info.BuildDate, info.GoVersion)
}

func Get() Info {
	return Info{
		GitVersion: gitVersion,
		GitCommit:  gitCommit,
		BuildDate:  buildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

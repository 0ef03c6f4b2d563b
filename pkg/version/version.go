package version

import (
	"runtime"
	"strconv"
	"time"

	"github.com/Masterminds/semver"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/models"
)

// These variables typically come from -ldflags settings.
var (
	GITVERSION = "v0.0.0-devel"
	GITCOMMIT  = ""
	BUILDDATE  = ""
)

// Get returns the version of the running binary. Unparseable build
// settings are logged and left empty.
func Get() *models.BuildVersionInfo {
	info := &models.BuildVersionInfo{
		GitVersion: GITVERSION,
		GitCommit:  GITCOMMIT,
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}

	if s, err := semver.NewVersion(GITVERSION); err != nil {
		log.Warn().Err(err).Msgf("could not parse GITVERSION %q", GITVERSION)
	} else {
		info.Major = strconv.FormatInt(s.Major(), 10) //nolint:gomnd
		info.Minor = strconv.FormatInt(s.Minor(), 10) //nolint:gomnd
	}

	if BUILDDATE != "" {
		buildDate, err := time.Parse("2006-01-02T15:04:05Z", BUILDDATE)
		if err != nil {
			log.Warn().Err(err).Msgf("could not parse BUILDDATE %q", BUILDDATE)
		}
		info.BuildDate = buildDate
	}
	return info
}

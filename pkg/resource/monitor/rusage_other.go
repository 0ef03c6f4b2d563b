//go:build !unix

package monitor

import (
	"errors"
	"time"
)

func processCPUTime() (time.Duration, error) {
	return 0, errors.New("process cpu time is not supported on this platform")
}

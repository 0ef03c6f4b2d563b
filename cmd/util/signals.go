package util

import (
	"os"
	"syscall"
)

// ShutdownSignals are the signals that stop a running command.
var ShutdownSignals = []os.Signal{
	syscall.SIGTERM,
	syscall.SIGINT,
}

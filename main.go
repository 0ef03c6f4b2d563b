package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/cmd/cli"
	_ "github.com/bacalhau-project/governor/pkg/logger"
)

func main() {
	start := time.Now()
	log.Trace().Msgf("Top of execution - %s", start.UTC())
	cli.Execute(context.Background())
	log.Trace().Msgf("Execution finished - %s", time.Since(start))
}

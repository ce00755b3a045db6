package main

import (
	"github.com/inquest-labs/inquest/backend/internal/server"
	"github.com/inquest-labs/inquest/backend/internal/util"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
	"github.com/inquest-labs/inquest/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}

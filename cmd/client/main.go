package main

import (
	"github.com/ajtop/tftp/pkg/client"
	"github.com/ajtop/tftp/pkg/utils"
)

var (
	logLevel = utils.GetEnv[string]("TFTP_LOG_LEVEL", "error", false)
	numTries = utils.GetEnv[uint]("TFTP_NUM_TRIES", "5", false)
)

func main() {
	l := utils.NewLogger(logLevel, "").Sugar()

	defer func() {
		_ = l.Sync()
	}()

	c := client.NewClient(l, numTries)

	cli := client.NewCli(l, c)
	cli.Read()
}

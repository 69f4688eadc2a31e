package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajtop/tftp/pkg/server"
	"github.com/ajtop/tftp/pkg/utils"
)

var (
	tftpAddr     = utils.GetEnv[string]("TFTP_ADDR", ":69", false)
	logLevel     = utils.GetEnv[string]("LOG_LEVEL", "info", false)
	logFile      = utils.GetEnv[string]("LOG_FILE", "", false)
	readTimeout  = utils.GetEnv[uint]("READ_TIMEOUT", "5", false)
	writeTimeout = utils.GetEnv[uint]("WRITE_TIMEOUT", "5", false)
	numTries     = utils.GetEnv[uint]("NUM_TRIES", "5", false)
	trace        = utils.GetEnv[bool]("TRACE", "false", false)
	tftpBaseDir  = utils.GetEnv[string]("TFTP_BASE_DIR", "", true)
)

func main() {
	l := utils.NewLogger(logLevel, logFile).Sugar()

	defer func() {
		_ = l.Sync()
	}()

	s := server.NewServer(l, tftpAddr, tftpBaseDir,
		time.Duration(readTimeout)*time.Second,
		time.Duration(writeTimeout)*time.Second,
		int(numTries), trace)

	go func() {
		if err := s.ListenAndServe(); err != nil {
			l.Error(err.Error())
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	if err := s.Close(); err != nil {
		l.Error(err.Error())
	}

	l.Infof("closed listener on %s", tftpAddr)
}

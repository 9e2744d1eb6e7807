package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"github.com/Urethramancer/rv32asm/config"
)

func main() {
	flag.Set("logtostderr", "true")
	defer glog.Flush()

	cfg, err := config.FromEnv()
	if err != nil {
		glog.Exitf("Bad environment: %s", err)
	}
	os.Exit(run(newRootCmd(&cfg)))
}

package main

import (
	"log"
	"ponudaplus/internal/di"
	"ponudaplus/internal/structures"

	flag "github.com/spf13/pflag"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVarP(&flags.ConfigPath, "config", "c", "config.yml", "path to the configuration file")
	flag.BoolVarP(&flags.DebugMode, "debug", "d", false, "force debug logging")
	flag.Parse()

	_, cleanup, err := di.InitApp(flags)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	cleanup()
}

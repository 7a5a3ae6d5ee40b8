package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/scjoymapper/scjoymapper/scjm"
)

func main() {
	debugMode := parseCliArgs()
	router, port := scjm.GetServer(debugMode)
	err := router.Run(port)
	if err != nil {
		log.Fatal(err)
	}
}

func parseCliArgs() bool {
	flag.Usage = func() {
		fmt.Printf("Usage: %s\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	var debugMode bool
	flag.BoolVar(&debugMode, "d", false, "Enable debug mode & deploy pprof handlers.")
	flag.Parse()
	return debugMode
}

package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"

	"hoanbai/internal/log"
	"hoanbai/internal/room"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	quiet := flag.Bool("quiet", false, "suppress per-room event logging")
	flag.Parse()

	var logger log.EventLogger = log.NewTextLogger(os.Stdout)
	if *quiet {
		logger = log.NopLogger{}
	}

	hub := room.NewHub(logger)
	addr := fmt.Sprintf(":%d", *port)
	stdlog.Printf("hoanbai server listening on ws://localhost:%d/ws", *port)
	if err := hub.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

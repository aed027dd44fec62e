package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	hoanbaimcp "hoanbai/internal/mcp"
)

func main() {
	s := server.NewMCPServer("hoanbai", "1.0.0")
	hoanbaimcp.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	hoanbainet "hoanbai/internal/net"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "host":
		runHost(os.Args[2:])
	case "join":
		runJoin(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func loadChants(path string) {
	if path == "" {
		return
	}
	if err := hoanbainet.SetChantFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  hoanbai host [--url URL] [--player ID] [--mode 3|6] [--max-boosts N] [--decks N] [--chants FILE]")
	fmt.Println("  hoanbai join --room CODE [--url URL] [--player ID] [--chants FILE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  host    Create a new room on the server and play in it")
	fmt.Println("  join    Join an existing room by its 6-character code")
}

func runHost(args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/ws", "server websocket URL")
	player := fs.String("player", "", "player ID (random if empty)")
	mode := fs.Int("mode", 3, "hand size, 3 or 6 cards")
	maxBoosts := fs.Int("max-boosts", 3, "swaps allowed per round")
	decks := fs.Int("decks", 1, "number of decks, 1-3")
	chants := fs.String("chants", "", "path to a chant variants YAML file")
	fs.Parse(args)

	if *player == "" {
		*player = uuid.NewString()
	}
	loadChants(*chants)
	if err := hoanbainet.Host(context.Background(), *url, *player, *mode, *maxBoosts, *decks); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runJoin(args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/ws", "server websocket URL")
	room := fs.String("room", "", "room code to join")
	player := fs.String("player", "", "player ID (random if empty)")
	chants := fs.String("chants", "", "path to a chant variants YAML file")
	fs.Parse(args)

	if *room == "" {
		fmt.Fprintln(os.Stderr, "Error: --room is required")
		os.Exit(1)
	}
	if *player == "" {
		*player = uuid.NewString()
	}
	loadChants(*chants)
	if err := hoanbainet.Connect(context.Background(), *url, *room, *player); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

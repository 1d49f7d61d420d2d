// Package main provides an interactive terminal client for the
// Masterminds server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/masterminds-game/masterminds/internal/client"
	"github.com/masterminds-game/masterminds/internal/config"
	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/observability"
)

const usage = `commands:
  create <nickname>           create a room
  join <nickname> <code>      join a room by code
  team <green|purple|none> <guesser|mastermind|none>
  suggest <word>              suggest a board word
  unsuggest <word>            withdraw a suggestion
  board                       print the word board
  users                       print the roster
  log                         print the game log
  leave                       leave the current room
  reconnect                   force a fresh connection
  quit                        exit`

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	prober := &client.HTTPProber{
		BaseURL: cfg.Client.ServerURL,
		Timeout: cfg.Client.ProbeTimeout,
	}
	factory := client.DefaultDialerFactory(cfg.Client.ConnectTimeout)

	mgr, err := client.NewManager(cfg.Client, prober, factory, logger)
	if err != nil {
		log.Fatalf("creating connection manager: %v", err)
	}
	defer mgr.Close()

	unsubscribe := mgr.Status().Subscribe(func(s client.Status) {
		fmt.Printf("* %s\n", s.Message())
	})
	defer unsubscribe()

	proxy := client.NewRoomProxy(mgr, logger)
	proxy.OnNotice(func(text string) {
		fmt.Printf("! %s\n", text)
	})

	mgr.Connect()

	fmt.Println(usage)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "create":
			if len(fields) != 2 {
				fmt.Println("usage: create <nickname>")
				continue
			}
			err = proxy.CreateRoom(fields[1])

		case "join":
			if len(fields) != 3 {
				fmt.Println("usage: join <nickname> <code>")
				continue
			}
			err = proxy.JoinRoom(fields[1], strings.ToUpper(fields[2]))

		case "team":
			if len(fields) != 3 {
				fmt.Println("usage: team <green|purple|none> <guesser|mastermind|none>")
				continue
			}
			team, role := room.Team(fields[1]), room.Role(fields[2])
			if !room.ValidTeam(team) || !room.ValidRole(role) {
				fmt.Println("unrecognised team or role")
				continue
			}
			err = proxy.SetTeamAndRole(team, role)

		case "suggest":
			if len(fields) != 2 {
				fmt.Println("usage: suggest <word>")
				continue
			}
			err = proxy.Suggest(fields[1])

		case "unsuggest":
			if len(fields) != 2 {
				fmt.Println("usage: unsuggest <word>")
				continue
			}
			err = proxy.Unsuggest(fields[1])

		case "board":
			printBoard(proxy)

		case "users":
			for _, u := range proxy.Users() {
				fmt.Printf("  %-14s team=%-6s role=%s\n", u.Username, u.Team, u.Role)
			}

		case "log":
			for _, entry := range proxy.GameLog() {
				fmt.Printf("  [%s] %s %s %s\n", entry.Team, entry.Username, entry.Action, entry.Word)
			}

		case "leave":
			err = proxy.Leave()

		case "reconnect":
			err = mgr.Reconnect(context.Background())

		case "quit", "exit":
			return

		case "help":
			fmt.Println(usage)

		default:
			fmt.Printf("unknown command %q; try 'help'\n", fields[0])
		}

		if err != nil {
			fmt.Printf("! %v\n", err)
		}
	}
}

func printBoard(proxy *client.RoomProxy) {
	board := proxy.Words()
	names := make([]string, 0, len(board))
	for name := range board {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w := board[name]
		marker := " "
		if w.Revealed {
			marker = "*"
		}
		line := fmt.Sprintf("  %s %-14s %s", marker, name, w.Owner)
		if suggesters := proxy.Suggesters(name); len(suggesters) > 0 {
			line += " <- " + strings.Join(suggesters, ", ")
		}
		fmt.Println(line)
	}
}

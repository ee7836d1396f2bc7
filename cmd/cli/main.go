package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/claude-voice/engine"
	"github.com/claude-voice/engine/audio"
)

const helpText = `claude-voice interactive REPL

Commands:
  compile <query>              Parse, plan, and optimize a query; print the AST as a numbered clause list and the plan as an indented tree
  stream create                Create a stream with the default config
  stream start <handle>        Start a stream
  stream stop <handle>         Stop a stream
  stream pause <handle>        Pause a running stream
  stream resume <handle>       Resume a paused stream
  stream drain <handle>        Wait for a stream's buffer to empty
  stream health <handle>       Print a stream's health snapshot
  stream list-playback         List playback devices
  stream list-recording        List recording devices
  help                         Show this help message
  exit / quit                  Exit the REPL

Query examples:
  MATCH (a:Person) WHERE a.age > 30 RETURN a.name ORDER BY a.name LIMIT 10
  MATCH (a)-[:KNOWS]->(b) RETURN a, b
`

func main() {
	mgr, err := audio.NewManager("mock")
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio driver error: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "audio init error: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Shutdown()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("claude-voice — query compiler and audio streaming engine")
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "exit", "quit":
			return

		case "help":
			fmt.Print(helpText)

		case "compile":
			if len(parts) < 2 {
				fmt.Fprintln(os.Stderr, "usage: compile <query>")
				continue
			}
			query := strings.TrimSpace(strings.TrimPrefix(line, parts[0]))
			q, err := engine.Parse(query)
			if err != nil {
				fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
				continue
			}
			fmt.Println(q.String())
			ep, err := engine.Compile(query)
			if err != nil {
				fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
				continue
			}
			fmt.Println(ep.String())

		case "stream":
			handleStreamCommand(mgr, parts[1:])

		default:
			fmt.Fprintf(os.Stderr, "unknown command %q — type 'help' for a list\n", cmd)
		}
	}
}

func handleStreamCommand(mgr *audio.Manager, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: stream <create|start|stop|pause|resume|drain|health|list-playback|list-recording> [handle]")
		return
	}
	sub := strings.ToLower(args[0])

	parseHandle := func() (audio.Handle, bool) {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "usage: stream %s <handle>\n", sub)
			return 0, false
		}
		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid handle %q\n", args[1])
			return 0, false
		}
		return audio.Handle(n), true
	}

	switch sub {
	case "create":
		handle, err := mgr.CreateStream(audio.DefaultStreamConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "create error: %v\n", err)
			return
		}
		fmt.Printf("created stream %d\n", handle)

	case "start":
		if handle, ok := parseHandle(); ok {
			if err := mgr.Start(handle); err != nil {
				fmt.Fprintf(os.Stderr, "start error: %v\n", err)
			}
		}

	case "stop":
		if handle, ok := parseHandle(); ok {
			if err := mgr.Stop(handle); err != nil {
				fmt.Fprintf(os.Stderr, "stop error: %v\n", err)
			}
		}

	case "pause":
		if handle, ok := parseHandle(); ok {
			if err := mgr.Pause(handle); err != nil {
				fmt.Fprintf(os.Stderr, "pause error: %v\n", err)
			}
		}

	case "resume":
		if handle, ok := parseHandle(); ok {
			if err := mgr.Resume(handle); err != nil {
				fmt.Fprintf(os.Stderr, "resume error: %v\n", err)
			}
		}

	case "drain":
		if handle, ok := parseHandle(); ok {
			if err := mgr.Drain(handle); err != nil {
				fmt.Fprintf(os.Stderr, "drain error: %v\n", err)
			}
		}

	case "health":
		if handle, ok := parseHandle(); ok {
			h, err := mgr.GetHealth(handle)
			if err != nil {
				fmt.Fprintf(os.Stderr, "health error: %v\n", err)
				return
			}
			fmt.Printf("fill=%.2f underrun=%d overrun=%d latency_ms=%d state=%s\n",
				h.FillLevel, h.UnderrunCount, h.OverrunCount, h.LatencyMs, h.State)
		}

	case "list-playback":
		devs, err := mgr.ListPlaybackDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		for _, d := range devs {
			fmt.Printf("  %s — %s (%d ch, %d Hz)\n", d.ID, d.Name, d.Channels, d.SampleRate)
		}

	case "list-recording":
		devs, err := mgr.ListRecordingDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return
		}
		for _, d := range devs {
			fmt.Printf("  %s — %s (%d ch, %d Hz)\n", d.ID, d.Name, d.Channels, d.SampleRate)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown stream command %q\n", sub)
	}
}

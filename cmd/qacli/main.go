// Command qacli drives a deterministic question/answer form through a
// terminal wizard, a scriptable JSON-RPC agent mode, or one-shot
// validate/render/publish subcommands, on top of the pure qaengine
// façade.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BimaPangestu28/greentic-qa/internal/config"
	"github.com/BimaPangestu28/greentic-qa/internal/inspector"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaengine"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaevents"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastate"
)

func main() {
	// Subcommands that don't need a loaded config.
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "init":
			if err := handleInit(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "validate":
			if err := handleValidate(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: loading config: %v\n", err)
	}
	platCfg, err := config.LoadPlatformConfig(platformConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: loading platform config: %v\n", err)
	}

	bus := qaevents.NewMemoryBus(500)
	engine := qaengine.New()
	engine.SetEventPublisher(&busPublisher{bus: bus})

	checkpoints, err := qastate.Open(checkpointPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open checkpoint store: %v\n", err)
		os.Exit(1)
	}
	defer checkpoints.Close()

	standaloneServe := len(os.Args) >= 2 && os.Args[1] == "serve"
	if port := detectInspectorPort(cfg); port > 0 && !standaloneServe {
		srv := inspector.New(bus, checkpoints)
		srv.StartAsync(port)
		fmt.Fprintf(os.Stderr, "Inspector running at http://localhost:%d\n", port)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var cmdErr error
	switch os.Args[1] {
	case "wizard":
		cmdErr = handleWizard(engine, checkpoints)
	case "render":
		cmdErr = handleRender(engine)
	case "agent":
		cmdErr = handleAgent(engine, checkpoints)
	case "serve":
		cmdErr = handleServe(bus, checkpoints, cfg)
	case "publish":
		cmdErr = handlePublish(engine, platCfg, cfg)
	default:
		printUsage()
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", cmdErr)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: qacli <command> [args]

Commands:
  wizard <form.json>             walk a form interactively in the terminal
  validate <form.json>           check a form spec loads and has no structural errors
  render <form.json>             render a form's current payload to text/json_ui/card
  publish <form.json>            build a bundle and commit it to a GitHub repo
  agent                          run a JSON-RPC agent over stdin/stdout
  serve                          run the inspector server standalone
  init [--template=X] [--output=Y]   scaffold a new form spec from a template`)
}

// busPublisher adapts qaevents.Bus to qaengine.EventPublisher, mirroring
// the split the teacher keeps between pkg/context.EventPublisher and
// pkg/events.EventBus.
type busPublisher struct {
	bus qaevents.Bus
}

func (p *busPublisher) PublishQAEvent(eventType, formID string, data any, duration time.Duration) {
	p.bus.Publish(qaevents.NewEvent(qaevents.EventType(eventType), formID, data, duration))
}

func configPath() string {
	return filepath.Join(".qacli", "config.yaml")
}

func platformConfigPath() string {
	return filepath.Join(".qacli", "platforms.yaml")
}

func checkpointPath(cfg config.Config) string {
	if cfg.Checkpoint.Path != "" {
		return cfg.Checkpoint.Path
	}
	return filepath.Join(os.TempDir(), "qacli-checkpoints.db")
}

// detectInspectorPort parses --inspector and --inspector-port flags.
// Returns 0 if the inspector is disabled, or the port number to use.
func detectInspectorPort(cfg config.Config) int {
	const defaultPort = 4200

	for _, arg := range os.Args[1:] {
		if arg == "--no-inspector" {
			return 0
		}
	}

	for _, arg := range os.Args[1:] {
		if arg == "--inspector" {
			return defaultPort
		}
		if strings.HasPrefix(arg, "--inspector-port=") {
			portStr := strings.TrimPrefix(arg, "--inspector-port=")
			if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
				return port
			}
		}
	}

	if envVal := os.Getenv("QACLI_INSPECTOR"); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
		return defaultPort
	}

	if cfg.Inspector.Enabled {
		if cfg.Inspector.Port > 0 {
			return cfg.Inspector.Port
		}
		return defaultPort
	}

	return 0
}

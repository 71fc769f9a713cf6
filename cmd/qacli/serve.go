package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BimaPangestu28/greentic-qa/internal/config"
	"github.com/BimaPangestu28/greentic-qa/internal/inspector"
	"github.com/BimaPangestu28/greentic-qa/pkg/qaevents"
	"github.com/BimaPangestu28/greentic-qa/pkg/qastate"
)

// handleServe implements `qacli serve [--port=N]`, running the
// inspector on its own rather than piggybacking on a wizard/agent
// session. Useful for watching checkpoint history between runs.
func handleServe(bus qaevents.Bus, checkpoints qastate.Store, cfg config.Config) error {
	port := cfg.Inspector.Port
	if port <= 0 {
		port = 4200
	}
	for _, arg := range os.Args[2:] {
		if strings.HasPrefix(arg, "--port=") {
			if p, err := strconv.Atoi(strings.TrimPrefix(arg, "--port=")); err == nil {
				port = p
			}
		}
	}

	srv := inspector.New(bus, checkpoints)
	fmt.Fprintf(os.Stderr, "Inspector running at http://localhost:%d\n", port)
	return srv.Start(port)
}

// Fleetkey generates an EC P-256 key pair and publishes the public key
// at the well-known path Tesla's Fleet API probes for domain-ownership
// verification:
//
//	<site>/.well-known/appspecific/com.tesla.3p.public-key.pem
//
// Run with no arguments to generate and publish a fresh key pair, or
// with the "verify" subcommand to self-check an existing enrollment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fleetkey/go-fleetkey/pkg/config"
	"github.com/fleetkey/go-fleetkey/pkg/enroll"
)

func main() {
	configPath := flag.String("config", "", "path to fleetkey.yaml (optional)")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fatal(fmt.Errorf("failed to load configuration: %w", err))
	}

	ctx := context.Background()
	e, err := enroll.New(ctx, cfg)
	if err != nil {
		fatal(err)
	}

	command, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		usage()
		os.Exit(1)
	}

	switch command {
	case "generate":
		result, err := e.Run(ctx)
		if err != nil {
			fatal(err)
		}
		fmt.Print(result.Instructions())

	case "verify":
		if err := e.Verify(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("OK: key pair and published copy are consistent.")
	}
}

// parseCommand validates the positional arguments left after flag
// parsing and returns the selected command. Flags must precede the
// command, so anything after it is rejected rather than dropped.
func parseCommand(args []string) (string, error) {
	if len(args) == 0 {
		return "generate", nil
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments after %q: %s (flags must come before the command)", args[0], strings.Join(args[1:], " "))
	}
	switch args[0] {
	case "generate", "verify":
		return args[0], nil
	}
	return "", fmt.Errorf("unknown command %q", args[0])
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: fleetkey [-config path] [command]

Flags must be given before the command.

Commands:
  generate  generate a key pair and publish the public key (default)
  verify    self-check an existing enrollment

Flags:
`)
	flag.PrintDefaults()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "fleetkey: %v\n", err)
	os.Exit(1)
}

// Package main implements token, an operator tool that prints a signed
// access token for a job owner using the server's auth configuration.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskwatch/internal/config"
	"github.com/phrazzld/taskwatch/internal/service/auth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run prints the token on stdout and the owner id on stderr, so the output
// can be captured directly into an environment variable.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	owner := fs.String("owner", "", "owner uuid; a new one is generated when empty")
	ttl := fs.Duration("ttl", 0, "token lifetime; defaults to auth.token_lifetime_minutes")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	ownerID := uuid.New()
	if *owner != "" {
		parsed, err := uuid.Parse(*owner)
		if err != nil {
			fmt.Fprintf(stderr, "token: invalid owner id: %v\n", err)
			return 2
		}
		ownerID = parsed
	}
	if *ttl < 0 {
		fmt.Fprintln(stderr, "token: -ttl cannot be negative")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "token: %v\n", err)
		return 1
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		fmt.Fprintf(stderr, "token: %v\n", err)
		return 1
	}

	ctx := context.Background()
	var token string
	if *ttl > 0 {
		token, err = jwtService.GenerateTokenWithExpiry(ctx, ownerID, time.Now().Add(*ttl))
	} else {
		token, err = jwtService.GenerateToken(ctx, ownerID)
	}
	if err != nil {
		fmt.Fprintf(stderr, "token: failed to sign token: %v\n", err)
		return 1
	}

	fmt.Fprintf(stderr, "owner: %s\n", ownerID)
	fmt.Fprintln(stdout, token)
	return 0
}

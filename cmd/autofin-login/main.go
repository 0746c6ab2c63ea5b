// Command autofin-login stores the backend user in the local session so the
// server and worker can act on their behalf.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"autofin/internal/api"
	"autofin/internal/cli"
	"autofin/internal/session"
)

func main() {
	email := flag.String("email", os.Getenv("AUTOFIN_EMAIL"), "backend account email")
	password := flag.String("password", "", "backend password (defaults to AUTOFIN_PASSWORD)")
	logout := flag.Bool("logout", false, "clear the stored session")
	whoami := flag.Bool("whoami", false, "print the stored session")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent("login")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	stores := cli.InitBackend(ctx, logger, cfg)
	defer stores.Close()
	sessions := session.NewManager(stores.Sessions)

	switch {
	case *logout:
		if err := sessions.Logout(ctx); err != nil {
			logger.Error("Logout failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("logged out")
		return
	case *whoami:
		s, err := sessions.Current(ctx)
		if errors.Is(err, session.ErrNoSession) {
			fmt.Println("not logged in")
			return
		}
		if err != nil {
			logger.Error("Reading session failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("%s <%s> (%s)\n", s.Name, s.Email, s.UserID)
		return
	}

	pw := *password
	if pw == "" {
		pw = os.Getenv("AUTOFIN_PASSWORD")
	}

	client := api.NewClient(cfg.APIBaseURL, nil, cfg.APITimeout)
	s, err := sessions.Login(ctx, client, *email, pw)
	if err != nil {
		logger.Error("Login failed", "error", err, "email", *email)
		os.Exit(1)
	}
	fmt.Printf("logged in as %s <%s>\n", s.Name, s.Email)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/app"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/config"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/logger"
	"github.com/wadjakorntonsri/shortlink-dashboard/pkg/ports"
	"go.uber.org/zap"
)

var errUsage = errors.New("expected 'status', 'logout', 'export' or 'clicks' subcommands")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one subcommand. Storage and the logger are released before it
// returns, whatever the outcome.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	cfg := config.Load()
	log, err := logger.Init(logger.Config{Development: true, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	defer logger.Sync()

	nav := ports.NavigatorFunc(func(_ context.Context, target string) {
		fmt.Fprintf(os.Stderr, "-> %s\n", target)
	})
	a, err := app.New(ctx, cfg, nav, log)
	if err != nil {
		log.Error("Failed to open session", zap.Error(err))
		return err
	}
	defer a.Close()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		if err := flag.NewFlagSet("status", flag.ContinueOnError).Parse(rest); err != nil {
			return err
		}
		return doStatus(ctx, a, stdout)
	case "logout":
		if err := flag.NewFlagSet("logout", flag.ContinueOnError).Parse(rest); err != nil {
			return err
		}
		if err := a.Flow.Logout(ctx); err != nil {
			log.Error("Logout failed", zap.Error(err))
			return err
		}
		return nil
	case "export":
		if err := flag.NewFlagSet("export", flag.ContinueOnError).Parse(rest); err != nil {
			return err
		}
		return doExport(ctx, a, stdout)
	case "clicks":
		clicksCmd := flag.NewFlagSet("clicks", flag.ContinueOnError)
		code := clicksCmd.String("code", "", "short code to read clicks for")
		page := clicksCmd.Int("page", 0, "zero-based page number")
		sort := clicksCmd.String("sort", "desc", "asc or desc")
		if err := clicksCmd.Parse(rest); err != nil {
			return err
		}
		if *code == "" {
			clicksCmd.PrintDefaults()
			return errors.New("clicks: -code is required")
		}
		return doClicks(ctx, a, stdout, ports.PageRequest{
			ShortCode:  *code,
			PageNumber: *page,
			SortOrder:  domain.ParseSortOrder(*sort),
		})
	}
	return errUsage
}

func doStatus(ctx context.Context, a *app.App, w io.Writer) error {
	if !a.Session.Authenticated(ctx) {
		_, err := fmt.Fprintf(w, "not signed in, open %s%s\n", a.Config.BaseURL, domain.RouteLogin)
		return err
	}
	if sub := a.Session.Subject(ctx); sub != "" {
		_, err := fmt.Fprintf(w, "signed in as %s\n", sub)
		return err
	}
	_, err := fmt.Fprintln(w, "signed in")
	return err
}

// doExport prints every link with its click count.
func doExport(ctx context.Context, a *app.App, w io.Writer) error {
	views, err := a.Links.ListAggregated(ctx)
	if err != nil {
		a.Log.Error("Export failed", zap.Error(err))
		return err
	}
	return printJSON(w, views)
}

func doClicks(ctx context.Context, a *app.App, w io.Writer, req ports.PageRequest) error {
	page, err := a.History.FetchPage(ctx, req)
	if err != nil {
		a.Log.Error("Fetch clicks failed", zap.Error(err))
		return err
	}
	return printJSON(w, page)
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

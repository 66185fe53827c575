package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/TourAgency/internal/config"
	"github.com/Strob0t/TourAgency/internal/service"
)

// runAdmin dispatches admin subcommands (list-tours, reorder-ids).
func runAdmin(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "list-tours":
		return runAdminListTours(ctx, args[1:], out)
	case "reorder-ids":
		return runAdminReorderIDs(ctx, args[1:], out, os.Stdin)
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: touragency admin <command> [options]

Commands:
  list-tours    List all tours
  reorder-ids   Renumber tour ids 1..N (invalidates existing links)
  help          Show this help message

Examples:
  touragency admin list-tours
  touragency admin reorder-ids --yes
  touragency admin reorder-ids --yes --server http://tours.internal:8080

reorder-ids asks the running server (default http://127.0.0.1:$PORT) to
renumber, so its tour cache is cleared. It writes the store directly only
when no server is listening.
`)
}

func loadAdminService(ctx context.Context) (*service.TourService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return openAdminService(ctx, cfg)
}

func openAdminService(ctx context.Context, cfg *config.Config) (*service.TourService, func(), error) {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewTourService(store), closeStore, nil
}

func runAdminListTours(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list-tours", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, cleanup, err := loadAdminService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	tours, err := svc.List(ctx)
	if err != nil {
		return fmt.Errorf("list tours: %w", err)
	}
	if len(tours) == 0 {
		_, _ = fmt.Fprintln(out, "No tours found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDESTINATION\tCATEGORY\tDAYS\tSERVICE\tPRICE\tAVAILABILITY")
	for i := range tours {
		t := &tours[i]
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%.2f\t%s\n",
			t.ID, t.Destination, t.Category, t.Duration, t.Service, t.Price, t.Availability)
	}
	return w.Flush()
}

func runAdminReorderIDs(ctx context.Context, args []string, out io.Writer, in *os.File) error {
	fs := flag.NewFlagSet("reorder-ids", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	server := fs.String("server", "", "base URL of the running server (default http://127.0.0.1:$PORT)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	base := *server
	if base == "" {
		base = "http://127.0.0.1:" + cfg.Server.Port
	}

	if !*yes {
		ok, err := confirm(in, "Renumber all tour ids? Existing links will point to other tours. [y/N]: ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	served, err := reorderViaServer(ctx, base)
	if err != nil {
		return err
	}
	if served {
		_, _ = fmt.Fprintf(out, "IDs have been reordered by the server at %s.\n", base)
		return nil
	}

	svc, cleanup, err := openAdminService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := svc.ReorderIDs(ctx)
	if err != nil {
		return fmt.Errorf("reorder ids: %w", err)
	}
	_, _ = fmt.Fprintf(out, "IDs have been reordered (%d tours).\n", n)
	return nil
}

// reorderViaServer posts to /reorder_ids on the server at base. It reports
// false without error when nothing is listening there.
func reorderViaServer(ctx context.Context, base string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/reorder_ids", http.NoBody)
	if err != nil {
		return false, fmt.Errorf("reorder via %s: %w", base, err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return false, nil
		}
		return false, fmt.Errorf("reorder via %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusSeeOther {
		return true, fmt.Errorf("reorder via %s: unexpected status %s", base, resp.Status)
	}
	return true, nil
}

// confirm asks a yes/no question on the terminal. Without a terminal it refuses
// so scripts must pass --yes explicitly.
func confirm(in *os.File, prompt string) (bool, error) {
	if !term.IsTerminal(int(in.Fd())) { //nolint:gosec // fd fits in int
		return false, errors.New("stdin is not a terminal; pass --yes to confirm")
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

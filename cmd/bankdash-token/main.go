// Command bankdash-token checks a bearer token against the banking API and,
// with -save, stores it in the SQLite session store under a fresh session id.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"bankdash/internal/bankapi"
	"bankdash/internal/cli"
	"bankdash/internal/core"
	"bankdash/internal/log"
	"bankdash/internal/session"
)

func main() {
	tokenFlag := flag.String("token", "", "bearer token (default: $BANK_TOKEN, then stdin)")
	save := flag.Bool("save", false, "store the token in the SQLite session store")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentSession)
	cfg := cli.LoadAndValidateConfig(logger)

	token := session.NormalizeToken(readToken(*tokenFlag))
	if token == "" {
		logger.Error("No token given: pass -token, set BANK_TOKEN or pipe it on stdin")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	client := bankapi.New(cfg.APIBaseURL, cfg.APITimeout, logger)
	profile, err := client.UserDetails(ctx, token)
	if err != nil {
		logger.Error("Token check failed", log.FieldError, err, "api", cfg.APIBaseURL)
		os.Exit(1)
	}
	printProfile(profile)

	if !*save {
		return
	}
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sid := session.NewID()
	if err := repo.SaveToken(ctx, sid, token); err != nil {
		logger.Error("Failed to store token", log.FieldError, err)
		os.Exit(1)
	}
	fmt.Printf("\nSession %s stored in %s\n", sid, cfg.SQLiteDBPath)
}

func readToken(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("BANK_TOKEN"); env != "" {
		return env
	}
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		return strings.TrimSpace(line)
	}
	return ""
}

func printProfile(p core.Profile) {
	fmt.Printf("Signed in as %s\n\n", p.UserDetails.FullName())
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE\t")
	for _, a := range p.Accounts {
		marker := ""
		if p.IsPrimary(a.ID) {
			marker = "primary"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.AccountName, a.Type, core.FormatAmount(a.Balance), marker)
	}
	_ = tw.Flush()
}

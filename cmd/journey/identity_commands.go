package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"journey/internal/identity"
)

func newIdentityCommand(ctx *commandContext) *cobra.Command {
	identityCmd := &cobra.Command{
		Use:   "identity",
		Short: "Inspect and refresh the identifier register",
	}

	identityCmd.AddCommand(newIdentityRefreshCommand(ctx))
	identityCmd.AddCommand(newIdentityLookupCommand(ctx))
	identityCmd.AddCommand(newIdentityStatusCommand(ctx))

	return identityCmd
}

func newIdentityRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Download the register and rewrite the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc := identity.NewServiceFromConfig(cfg, ctx.runLogger())
			if _, err := svc.Refresh(cmd.Context()); err != nil {
				return fmt.Errorf("refresh register: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Register refreshed")
			printIdentityStatus(out, svc.Status())
			return nil
		},
	}
}

func newIdentityStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Load the register and report where it came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc := identity.NewServiceFromConfig(cfg, ctx.runLogger())
			if _, err := svc.Load(cmd.Context()); err != nil {
				return err
			}
			printIdentityStatus(cmd.OutOrStdout(), svc.Status())
			return nil
		},
	}
}

type lookupResult struct {
	Namespace identity.Namespace `json:"namespace"`
	ID        string             `json:"id"`
	identity.Identity
}

func newIdentityLookupCommand(ctx *commandContext) *cobra.Command {
	var namespaceFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "lookup <id>",
		Short: "Translate an identifier into the other namespaces",
		Long: `Translate an identifier into the other namespaces.

Without --namespace every namespace is tried in order: register, major,
league. The first namespace that knows the id wins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			namespaces := identity.Namespaces()
			if strings.TrimSpace(namespaceFlag) != "" {
				ns, err := identity.ParseNamespace(namespaceFlag)
				if err != nil {
					return err
				}
				namespaces = []identity.Namespace{ns}
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc := identity.NewServiceFromConfig(cfg, ctx.runLogger())
			if _, err := svc.Load(cmd.Context()); err != nil {
				return err
			}

			id := strings.TrimSpace(args[0])
			for _, ns := range namespaces {
				found := svc.Lookup(ns, id)
				if found.IsZero() {
					continue
				}
				result := lookupResult{Namespace: ns, ID: id, Identity: found}
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				printLookup(cmd.OutOrStdout(), result)
				return nil
			}
			return fmt.Errorf("id %q is not in the register", id)
		},
	}

	cmd.Flags().StringVarP(&namespaceFlag, "namespace", "n", "", "Namespace of the id: register, major or league")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printLookup(out io.Writer, r lookupResult) {
	league := ""
	if r.LeagueID != 0 {
		league = strconv.FormatInt(r.LeagueID, 10)
	}
	fmt.Fprintf(out, "Matched %s id %s\n", r.Namespace, r.ID)
	fmt.Fprintf(out, "Name:        %s\n", valueOrDash(r.Name))
	fmt.Fprintf(out, "Register ID: %s\n", valueOrDash(r.RegisterID))
	fmt.Fprintf(out, "Major ID:    %s\n", valueOrDash(r.MajorID))
	fmt.Fprintf(out, "League ID:   %s\n", valueOrDash(league))
}

func printIdentityStatus(out io.Writer, status identity.Status) {
	fmt.Fprintf(out, "Origin:  %s\n", status.Origin)
	fmt.Fprintf(out, "Source:  %s\n", valueOrDash(status.Source))
	fmt.Fprintf(out, "Cache:   %s\n", valueOrDash(status.CachePath))
	fmt.Fprintf(out, "Links:   %d\n", status.Links)
	if !status.ModTime.IsZero() {
		fmt.Fprintf(out, "Updated: %s (%s ago)\n",
			status.ModTime.Format(time.RFC3339),
			status.Age(time.Now()).Round(time.Minute))
	}
}

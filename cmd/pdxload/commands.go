package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pdxgraph/internal/validation"
	"pdxgraph/pkg/domain"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "pdxload",
		Short:         "Validate and load PDX provider releases into the graph store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (PDXGRAPH_* env overrides apply)")

	withApp := func(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, configPath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()
			return run(ctx, a, args)
		}
	}

	var catalogPath string
	markers := &cobra.Command{
		Use:   "markers symbol...",
		Short: "Resolve marker symbols against the marker catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			if catalogPath != "" {
				a.cfg.Markers.CatalogPath = catalogPath
			}
			return a.runMarkers(ctx, args)
		}),
	}
	markers.Flags().StringVar(&catalogPath, "catalog", "", "HGNC style TSV catalog (overrides markers.catalog_path)")

	root.AddCommand(
		markers,
		&cobra.Command{
			Use:   "providers",
			Short: "List provider directories found in the source",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
				names, err := a.providers(ctx, nil)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(a.out, n)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "validate [provider...]",
			Short: "Check provider table sets for missing files, columns and required values",
			RunE: withApp(func(ctx context.Context, a *app, args []string) error {
				names, err := a.providers(ctx, args)
				if err != nil {
					return err
				}
				return a.runValidate(ctx, names)
			}),
		},
		&cobra.Command{
			Use:   "load [provider...]",
			Short: "Build and persist the graph for each provider",
			RunE: withApp(func(ctx context.Context, a *app, args []string) error {
				names, err := a.providers(ctx, args)
				if err != nil {
					return err
				}
				return a.runLoad(ctx, names)
			}),
		},
	)
	return root
}

func (a *app) runValidate(ctx context.Context, providers []string) error {
	spec := validation.PDXFileSet()
	bad := 0
	for _, p := range providers {
		tables, err := a.tables(ctx, p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		defects := validation.Validate(tables, spec, p)
		if len(defects) == 0 {
			fmt.Fprintf(a.out, "%s\tok\n", p)
			continue
		}
		bad++
		for _, d := range defects {
			fmt.Fprintf(a.out, "%s\t%s\t%s\n", p, d.Kind, d.Error())
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d providers have validation defects", bad, len(providers))
	}
	return nil
}

func (a *app) runMarkers(ctx context.Context, symbols []string) error {
	res, release, err := a.resolver(ctx)
	if err != nil {
		return err
	}
	defer release()
	unresolved := 0
	for _, s := range symbols {
		r, err := res.Resolve(ctx, domain.MarkerQuery{Source: "cli", Symbol: s})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", s, err)
		}
		if !r.Resolved() {
			unresolved++
			fmt.Fprintf(a.out, "%s\t-\t%s\n", s, r.Note)
			continue
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\n", s, r.Marker.Symbol, r.Note)
	}
	if unresolved > 0 {
		return fmt.Errorf("%d of %d symbols unresolved", unresolved, len(symbols))
	}
	return nil
}

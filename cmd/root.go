package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/app"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/server"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/driveimg"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/normalizer"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "storefront-gateway",
	Short:         "Catalog gateway between the storefront and the product services",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Invoke(server.StartServer).Run()
		return nil
	},
}

var normalizeKind string

// normalizeCmd is handy for checking how a captured upstream payload will be read.
var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize an upstream payload read from stdin",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}

		norm := normalizer.NewResponseNormalizer(logger.MustNamed("normalizer"))
		var match normalizer.Match
		switch normalizeKind {
		case "products":
			match = norm.MatchProducts(raw)
		case "categories":
			match = norm.MatchCategories(raw)
		default:
			return fmt.Errorf("unknown kind %q, want products or categories", normalizeKind)
		}
		if match.Path == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "no list found, printing empty result")
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "matched path %q\n", match.Path)
		}
		return printJSON(cmd.OutOrStdout(), match.Items)
	},
}

var resolveFallback string

var resolveCmd = &cobra.Command{
	Use:   "resolve SOURCE...",
	Short: "Print the renderable URL for each image reference",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := driveimg.NewResolver(resolveFallback).ResolveAll(args)
		for i, u := range urls {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", args[i], u); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeKind, "kind", "k", "products", "payload kind: products or categories")
	resolveCmd.Flags().StringVar(&resolveFallback, "fallback", driveimg.DefaultFallback, "placeholder for unresolvable sources")
	rootCmd.AddCommand(serveCmd, normalizeCmd, resolveCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.MustNamed("cmd").Errorw("command failed", "error", err)
		os.Exit(1)
	}
}

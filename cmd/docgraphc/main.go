// Command docgraphc compiles a tree of Markdown and structured-data
// sources into a document graph: a one-shot compile, a watch mode that
// recompiles incrementally as files change, and a serve mode that also
// exposes the compiled graph over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "docgraphc",
		Short: "Document-graph compiler",
		Long: `docgraphc ingests Markdown and structured-data sources, builds a
typed directed hypergraph of documents, sections, and links, and
rewrites sources in place with stable ids and canonical link syntax.`,
	}

	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile the tree once and exit",
		RunE:  runCompile,
	}
	compileCmd.Flags().String("root", ".", "network root directory")
	compileCmd.Flags().Bool("write-back", true, "rewrite sources with resolved bids and canonical links")
	rootCmd.AddCommand(compileCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Compile once, then recompile incrementally on file changes",
		RunE:  runWatch,
	}
	watchCmd.Flags().String("root", ".", "network root directory")
	rootCmd.AddCommand(watchCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Watch the tree and serve the compiled graph over HTTP",
		RunE:  runServe,
	}
	serveCmd.Flags().String("root", ".", "network root directory")
	serveCmd.Flags().String("address", "", "HTTP listen address (overrides SERVER_ADDRESS)")
	rootCmd.AddCommand(serveCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("docgraphc v%s (%s)\n", version, commit)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var (
	version = "0.1.0"
	commit  = "dev"
)

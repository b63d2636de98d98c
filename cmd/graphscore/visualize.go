package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"graphscore/internal/score"
	"graphscore/internal/tree"
	"graphscore/internal/viz"
)

var (
	visualizeOutput string
	visualizeServe  bool
	visualizeAttr   string
	visualizeScore  string
	visualizeSeed   float64
	visualizeTitle  string
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <graph>",
	Short: "Render an arterial tree as an interactive HTML page",
	Long: `Render an arterial tree as an interactive HTML page.

Edges are colored by obstruction degree, from blue (clear) through
magenta to red (occluded), and laid out hierarchically from the root.
With --score, matched edges carry that scorer's trace labels instead of
raw degrees.

Examples:
  graphscore visualize 55 --output tree.html
  graphscore visualize 55 --serve
  graphscore visualize 55 --score qanadli --serve`,
	Args: cobra.ExactArgs(1),
	Run:  runVisualize,
}

func init() {
	visualizeCmd.Flags().StringVarP(&visualizeOutput, "output", "o", "",
		"HTML output path")
	visualizeCmd.Flags().BoolVar(&visualizeServe, "serve", false,
		"Serve the page on a loopback port until it has been viewed")
	visualizeCmd.Flags().StringVar(&visualizeAttr, "obstruction-attr", "",
		"Edge attribute driving the color ramp (default: the configured max attribute)")
	visualizeCmd.Flags().StringVar(&visualizeScore, "score", "",
		"Label matched edges with this scorer's traces (mastora, qanadli)")
	visualizeCmd.Flags().Float64Var(&visualizeSeed, "seed", 0,
		"Obstruction degree assumed above the root edge")
	visualizeCmd.Flags().StringVar(&visualizeTitle, "title", "",
		"Page title (default: the graph argument)")
	rootCmd.AddCommand(visualizeCmd)
}

func runVisualize(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)
	r := newRunner(cfg, logger, visualizeSeed)

	g := mustLoadAnnotated(cfg, r, args[0])

	attr := visualizeAttr
	if attr == "" {
		attr = cfg.Schema.MaxAttr
	}
	title := visualizeTitle
	if title == "" {
		title = "Arterial tree " + args[0]
	}

	var labels map[*tree.Edge]string
	if visualizeScore != "" {
		params := score.Params{
			ObstructionAttr:      attr,
			MinObstructionThresh: cfg.Thresholds.Min,
			MaxObstructionThresh: cfg.Thresholds.Max,
		}
		_, matches, err := score.ComputeDebug(visualizeScore, g, params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		labels = make(map[*tree.Edge]string, len(matches))
		for _, m := range matches {
			labels[m.Edge] = m.Label
		}
	}

	opts := viz.Options{
		ObstructionAttr: attr,
		Title:           title,
		Labels:          labels,
	}

	if visualizeOutput != "" {
		if err := viz.WriteFile(visualizeOutput, g, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("Visualization written", map[string]interface{}{
			"output": visualizeOutput,
		})
	}

	if visualizeServe {
		html, err := viz.Render(g, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		srv, err := viz.NewServer(html)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Serving visualization at %s (Ctrl-C to stop)\n", srv.URL())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := srv.Wait(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if visualizeOutput == "" {
		html, err := viz.Render(g, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(html)
	}
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kerfcam/kerf/pkg/cam"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "kerf",
	Short: "2.5D toolpath generation for CNC routing",
	Long: `kerf turns 2D outlines into CNC router toolpaths: profile cuts
along a boundary, stepover-cleared pockets, and medial-axis v-carving
with depth clamping and flat-area clearance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			cam.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline events to stderr")
}

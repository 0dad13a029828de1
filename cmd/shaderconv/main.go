// Command shaderconv converts WGSL shaders to GLSL and prints the maps from
// compiled uniform and attribute names back to the original names.
//
// Usage:
//
//	shaderconv convert [flags] <input.wgsl>
//	shaderconv names [flags] <input.wgsl>
//	shaderconv version
//
// Examples:
//
//	shaderconv convert -s vertex:vs_main -s fragment:fs_main lit.wgsl
//	shaderconv convert -o build -I shaders/common lit.wgsl -s fs:fs_main
//	shaderconv names --format yaml -s fragment:fs_main lit.wgsl
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/shaderconv"
)

var rootCmd = &cobra.Command{
	Use:           "shaderconv",
	Short:         "WGSL to GLSL converter with name reconciliation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setup(cmd)
	},
}

func main() {
	rootCmd.Version = shaderconv.Version

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(namesCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "config file (default: nearest shaderconv.toml)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorColor.Sprint("error:"), err)
		os.Exit(1)
	}
}

// setup installs the logger and color mode from the persistent flags.
func setup(cmd *cobra.Command) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	shaderconv.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("unknown --color value %q (auto|on|off)", mode)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shaderconv version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shaderconv version %s\n", shaderconv.Version)
	},
}

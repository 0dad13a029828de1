package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/shaderconv"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <input.wgsl>",
	Short: "Translate entry points to GLSL and reconcile their names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0], true)
	},
}

var namesCmd = &cobra.Command{
	Use:   "names [flags] <input.wgsl>",
	Short: "Print the name maps without writing GLSL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd, args[0], false)
	},
}

func init() {
	addConvertFlags(convertCmd)
	addConvertFlags(namesCmd)
}

func addConvertFlags(c *cobra.Command) {
	c.Flags().StringArrayP("stage", "s", nil, "stage:entry pair to convert (repeatable)")
	c.Flags().StringArrayP("include", "I", nil, "include search directory (repeatable)")
	c.Flags().StringArrayP("define", "D", nil, "NAME[=VALUE] preprocessor define (repeatable)")
	c.Flags().String("profile", "", "GLSL profile, e.g. 330, 450, 300es")
	c.Flags().String("linkage", "", "friendly root for vertex outputs (default \"in\")")
	c.Flags().String("target", "", "friendly root for fragment outputs (default \"target\")")
	c.Flags().String("format", "text", "name map format (text|json|yaml|msgpack)")
	c.Flags().StringP("out", "o", "", "output directory (default: stdout)")
	c.Flags().Bool("no-validate", false, "skip IR validation")
	c.Flags().Int("jobs", 0, "max stages converted in parallel (0=auto)")
}

// stageResult is the outcome of one stage:entry conversion.
type stageResult struct {
	spec   stageSpec
	shader *shaderconv.ConvertedShader
}

func runConvert(cmd *cobra.Command, input string, emitSource bool) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.options()
	if err != nil {
		return err
	}
	format := cfg.Format
	if format == "" {
		format = "text"
	}
	if !validFormat(format) {
		return fmt.Errorf("unknown format %q (text|json|yaml|msgpack)", format)
	}

	raw, err := cmd.Flags().GetStringArray("stage")
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("no stages given, use --stage stage:entry")
	}
	specs := make([]stageSpec, 0, len(raw))
	for _, s := range raw {
		spec, err := parseStageSpec(s)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}

	results, err := convertStages(cmd.Context(), shaderconv.NewConverter(opts, nil), input, specs, jobs)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	failed := false
	for _, r := range results {
		failed = printDiagnostics(stderr, input, r.shader) || failed
	}

	if err := writeResults(cmd.OutOrStdout(), cfg.Out, input, results, format, emitSource); err != nil {
		return err
	}
	if failed {
		return fmt.Errorf("%s: some names could not be reconciled", input)
	}
	return nil
}

// convertStages converts every spec concurrently. The first translation
// error cancels the rest.
func convertStages(ctx context.Context, conv *shaderconv.Converter, input string, specs []stageSpec, jobs int) ([]stageResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]stageResult, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(specs)))
	for i, spec := range specs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			shader, err := conv.Convert(input, spec.Stage, spec.Entry)
			if err != nil {
				return fmt.Errorf("%s %s: %w", spec.Stage, spec.Entry, err)
			}
			results[i] = stageResult{spec: spec, shader: shader}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeResults(stdout io.Writer, out, input string, results []stageResult, format string, emitSource bool) error {
	if out == "" {
		return writeStdout(stdout, results, format, emitSource)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	for _, r := range results {
		paths, err := writeStage(out, input, r.shader, format, emitSource)
		if err != nil {
			return err
		}
		for _, p := range paths {
			shaderconv.Logger().Info("wrote", "path", p)
		}
	}
	return nil
}

func writeStdout(w io.Writer, results []stageResult, format string, emitSource bool) error {
	if emitSource {
		for _, r := range results {
			fmt.Fprintf(w, "// %s %s\n%s\n", r.spec.Stage, r.spec.Entry, r.shader.Source)
		}
	}
	reports := make([]shaderconv.Report, len(results))
	for i, r := range results {
		reports[i] = r.shader.Report()
	}
	return encodeReports(w, format, reports)
}

// writeStage writes <out>/<base>.<stage>.glsl and the name map next to it.
func writeStage(out, input string, shader *shaderconv.ConvertedShader, format string, emitSource bool) ([]string, error) {
	base := outputBase(input, shader.Stage)
	var written []string
	if emitSource {
		path := filepath.Join(out, base+".glsl")
		if err := os.WriteFile(path, []byte(shader.Source), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	path := filepath.Join(out, base+".names"+formatExt(format))
	f, err := os.Create(path)
	if err != nil {
		return written, err
	}
	if err := encodeReports(f, format, []shaderconv.Report{shader.Report()}); err != nil {
		f.Close()
		return written, err
	}
	if err := f.Close(); err != nil {
		return written, err
	}
	return append(written, path), nil
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/shaderconv"
	"github.com/gogpu/shaderconv/names"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	stageColor   = color.New(color.FgCyan)
)

var formatExts = map[string]string{
	"text":    ".txt",
	"json":    ".json",
	"yaml":    ".yaml",
	"msgpack": ".msgpack",
}

func validFormat(format string) bool {
	_, ok := formatExts[format]
	return ok
}

func formatExt(format string) string {
	return formatExts[format]
}

// outputBase returns the file name stem for a stage, e.g. "lit.fs".
func outputBase(input string, stage shaderconv.Stage) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + "." + stage.Short()
}

// encodeReports writes reports to w in format.
func encodeReports(w io.Writer, format string, reports []shaderconv.Report) error {
	switch format {
	case "text":
		return writeText(w, reports)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(reports)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, reports []shaderconv.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s %s (%s)\n", stageColor.Sprint(r.Stage), r.EntryPoint, r.Profile)
		writeMappings(tw, "uniforms", r.Uniforms)
		writeMappings(tw, "attributes", r.Attributes)
	}
	return tw.Flush()
}

func writeMappings(w io.Writer, title string, mappings []names.Mapping) {
	if len(mappings) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	for _, m := range mappings {
		friendly := m.Friendly
		if friendly == "" {
			friendly = "-"
		}
		fmt.Fprintf(w, "    %s\t%s\n", m.Compiled, friendly)
	}
}

// printDiagnostics prints the diagnostics and warnings of shader to w.
// Reflection mismatches are errors; it reports whether any were printed.
func printDiagnostics(w io.Writer, input string, shader *shaderconv.ConvertedShader) bool {
	failed := false
	prefix := fmt.Sprintf("%s (%s %s)", input, shader.Stage, shader.EntryPoint)
	for _, err := range shader.Diagnostics {
		var m *names.ReflectionMismatchError
		if errors.As(err, &m) {
			failed = true
			fmt.Fprintf(w, "%s: %s %v\n", prefix, errorColor.Sprint("error:"), err)
			continue
		}
		fmt.Fprintf(w, "%s: %s %v\n", prefix, warningColor.Sprint("warning:"), err)
	}
	for _, msg := range shader.Warnings {
		fmt.Fprintf(w, "%s: %s %s\n", prefix, warningColor.Sprint("warning:"), msg)
	}
	return failed
}

// Package output renders command results as tables, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format selects how a command renders its result
type Format string

const (
	FormatAuto  Format = "auto"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted values of the --output flag
var Formats = []string{string(FormatAuto), string(FormatTable), string(FormatJSON), string(FormatYAML)}

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetWriters redirects output, returning a function restoring the previous writers
func SetWriters(out, errOut io.Writer) func() {
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	return func() {
		stdout, stderr = prevOut, prevErr
	}
}

// Resolve turns the --output flag into a concrete format. Auto renders
// tables on an interactive terminal and JSON when stdout is piped.
func Resolve(flag string) (Format, error) {
	switch Format(flag) {
	case FormatTable, FormatJSON, FormatYAML:
		return Format(flag), nil
	case FormatAuto, "":
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return FormatTable, nil
		}
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of auto, table, json, yaml)", flag)
	}
}

// PrintJSON writes data as indented JSON
func PrintJSON(data any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintYAML writes data as YAML. The value goes through JSON first so that
// json struct tags name the YAML keys.
func PrintYAML(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("failed to decode value: %w", err)
	}

	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}
	return enc.Close()
}

// Print renders data as JSON or YAML. Table output is command specific and
// handled by the caller; Print returns false for it.
func Print(format Format, data any) (bool, error) {
	switch format {
	case FormatJSON:
		return true, PrintJSON(data)
	case FormatYAML:
		return true, PrintYAML(data)
	}
	return false, nil
}

// PrintTable writes tabular data
func PrintTable(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)

	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, h)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, col)
		}
		fmt.Fprintln(w)
	}

	w.Flush()
}

// PrintMessage writes a plain message
func PrintMessage(msg string) {
	fmt.Fprintln(stdout, msg)
}

// PrintRaw writes text exactly as given
func PrintRaw(text string) {
	fmt.Fprint(stdout, text)
}

// PrintError writes an error message to stderr
func PrintError(err error) {
	fmt.Fprintf(stderr, "Error: %v\n", err)
}

// Package export renders stored simulations for download or the terminal.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/personapanel/internal/core/model"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

var formats = map[Format]string{
	FormatJSON:     "application/json",
	FormatYAML:     "application/x-yaml",
	FormatMarkdown: "text/markdown; charset=utf-8",
	FormatText:     "text/plain; charset=utf-8",
}

// ParseFormat accepts a format name, "md" and "txt" included. Empty means
// JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case "md":
		return FormatMarkdown, nil
	case "txt":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		if _, ok := formats[f]; !ok {
			return "", fmt.Errorf("%w: unsupported export format %q", model.ErrInvalid, s)
		}
		return f, nil
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	return formats[f]
}

// Bundle is a simulation with the records it refers to. Context and
// Participants may be missing when they were deleted after the run.
type Bundle struct {
	Simulation   *model.Simulation `json:"simulation" yaml:"simulation"`
	Context      *model.Context    `json:"context,omitempty" yaml:"context,omitempty"`
	Participants []model.Entity    `json:"participants" yaml:"participants"`
}

func Render(b Bundle, f Format) ([]byte, error) {
	if b.Simulation == nil {
		return nil, fmt.Errorf("%w: nothing to export", model.ErrInvalid)
	}
	if b.Participants == nil {
		b.Participants = []model.Entity{}
	}

	switch f {
	case FormatJSON:
		return json.MarshalIndent(b, "", "  ")
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatMarkdown:
		return renderMarkdown(b), nil
	case FormatText:
		return renderText(b), nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", model.ErrInvalid, f)
	}
}

func renderMarkdown(b Bundle) []byte {
	var buf bytes.Buffer
	sim := b.Simulation

	fmt.Fprintf(&buf, "# Simulation %s\n\n", sim.ID)
	fmt.Fprintf(&buf, "- Status: %s\n", sim.Status)
	fmt.Fprintf(&buf, "- Turns: %d\n", sim.FinalTurnNumber)
	fmt.Fprintf(&buf, "- Created: %s\n", sim.CreatedAt.Format(time.RFC3339))
	if sim.BatchID != "" {
		fmt.Fprintf(&buf, "- Batch: %s\n", sim.BatchID)
	}

	if b.Context != nil {
		fmt.Fprintf(&buf, "\n## Context\n\n%s\n", b.Context.Description)
	}

	if len(b.Participants) > 0 {
		buf.WriteString("\n## Participants\n\n")
		for _, e := range b.Participants {
			fmt.Fprintf(&buf, "### %s\n\n", e.Name)
			if e.Description != "" {
				fmt.Fprintf(&buf, "%s\n\n", e.Description)
			}
			if len(e.Attributes) > 0 {
				buf.WriteString("| Attribute | Value |\n|---|---|\n")
				for _, k := range sortedKeys(e.Attributes) {
					fmt.Fprintf(&buf, "| %s | %v |\n", k, e.Attributes[k])
				}
				buf.WriteByte('\n')
			}
		}
	}

	buf.WriteString("\n## Dialogue\n\n")
	if sim.Error != "" {
		fmt.Fprintf(&buf, "> Failed: %s\n", sim.Error)
	} else {
		buf.WriteString(sim.Content)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func renderText(b Bundle) []byte {
	var buf bytes.Buffer
	sim := b.Simulation

	fmt.Fprintf(&buf, "Simulation %s (%s, %d turns)\n", sim.ID, sim.Status, sim.FinalTurnNumber)
	if b.Context != nil {
		fmt.Fprintf(&buf, "Context: %s\n", b.Context.Description)
	}
	if len(b.Participants) > 0 {
		names := make([]string, len(b.Participants))
		for i, e := range b.Participants {
			names[i] = e.Name
		}
		fmt.Fprintf(&buf, "Participants: %s\n", strings.Join(names, ", "))
	}
	buf.WriteByte('\n')
	if sim.Error != "" {
		fmt.Fprintf(&buf, "Failed: %s\n", sim.Error)
	} else {
		buf.WriteString(sim.Content)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

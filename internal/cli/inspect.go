package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"topnote/pkg/rtedoc"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(10)
	flagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	rowStyle    = lipgloss.NewStyle().PaddingLeft(2)
	imageStyle  = lipgloss.NewStyle().PaddingLeft(4)
)

func newInspectCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the structure of a note, rich note or project file.",
		Long: heredoc.Doc(`
			Print what a file holds without opening the window: text size,
			images and their placement, and for projects every tab.

			Encrypted files need --password or storage.password.
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd.OutOrStdout(), args[0], rt.LoadOptions())
		},
	}
}

func inspect(w io.Writer, path string, opts rtedoc.LoadOptions) error {
	kind := rtedoc.KindForPath(path)
	env, err := rtedoc.InspectEnvelope(path)
	if err != nil {
		return err
	}

	header := headerStyle.Render(filepath.Base(path)) + "  " + kind.String()
	if tags := envelopeTags(env); tags != "" {
		header += "  " + flagStyle.Render(tags)
	}
	fmt.Fprintln(w, header)

	switch kind {
	case rtedoc.KindProject:
		p, err := rtedoc.LoadProject(path, opts)
		if err != nil {
			return err
		}
		writeProject(w, p)
	case rtedoc.KindRich:
		doc, err := rtedoc.LoadRich(path, opts)
		if err != nil {
			return err
		}
		field(w, "version", doc.Version)
		field(w, "text", textStats(doc.Text))
		field(w, "images", fmt.Sprint(len(doc.Images)))
		writeImages(w, doc.Images)
	default:
		text, err := rtedoc.LoadPlain(path)
		if err != nil {
			return err
		}
		field(w, "text", textStats(text))
	}
	return nil
}

func writeProject(w io.Writer, p *rtedoc.Project) {
	field(w, "name", p.ProjectName)
	field(w, "version", p.Version)
	field(w, "created", p.CreatedTime)
	field(w, "modified", p.ModifiedTime)
	field(w, "tabs", fmt.Sprintf("%d (current %d)", len(p.Tabs), p.TabIndex()))
	for i, tab := range p.Tabs {
		parts := []string{fmt.Sprintf("[%d] %s", i, tab.Title)}
		if tab.Filename != nil && *tab.Filename != "" {
			parts = append(parts, *tab.Filename)
		}
		parts = append(parts, textStats(tab.Content), fmt.Sprintf("%d images", len(tab.Images)))
		if tab.CursorPos != "" {
			parts = append(parts, "cursor "+tab.CursorPos)
		}
		if tab.CustomColor != nil {
			parts = append(parts, *tab.CustomColor)
		}
		if tab.Modified {
			parts = append(parts, flagStyle.Render("modified"))
		}
		fmt.Fprintln(w, rowStyle.Render(strings.Join(parts, "  ")))
		writeImages(w, tab.Images)
	}
}

func writeImages(w io.Writer, images []rtedoc.ImageEntry) {
	for i, e := range images {
		parts := []string{fmt.Sprintf("#%d %s", i, e.Type)}
		if e.Name != "" {
			parts = append(parts, fmt.Sprintf("%q", e.Name))
		}
		switch e.Type {
		case rtedoc.TypeEmbedded:
			xo, yo := e.Offsets()
			parts = append(parts, "at "+e.Position, fmt.Sprintf("offset %d,%d", xo, yo))
		case rtedoc.TypeFloating:
			x, y := e.Coordinates()
			parts = append(parts, fmt.Sprintf("at %d,%d", x, y))
		}
		if e.Draggable {
			parts = append(parts, "draggable")
		}
		parts = append(parts, humanSize(len(e.ImageData)*3/4))
		if err := e.Validate(); err != nil {
			parts = append(parts, flagStyle.Render(err.Error()))
		}
		fmt.Fprintln(w, imageStyle.Render(strings.Join(parts, "  ")))
	}
}

func field(w io.Writer, label, value string) {
	fmt.Fprintln(w, labelStyle.Render(label)+value)
}

func envelopeTags(env rtedoc.EnvelopeInfo) string {
	var tags []string
	if env.Compressed {
		tags = append(tags, "compressed")
	}
	if env.Encrypted {
		tags = append(tags, "encrypted")
	}
	return strings.Join(tags, ", ")
}

func textStats(text string) string {
	lines := strings.Count(text, "\n") + 1
	return fmt.Sprintf("%d lines, %d chars", lines, utf8.RuneCountInString(text))
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

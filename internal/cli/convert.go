package cli

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"topnote/internal/editor"
	"topnote/internal/session"
	"topnote/pkg/rtedoc"
)

// flagPrompter answers session prompts from command line flags.
type flagPrompter struct {
	discardImages bool
}

func (p flagPrompter) ConfirmUnsaved(string) session.Choice { return session.ChoiceDiscard }

func (p flagPrompter) ConfirmDiscardImages(string, int) bool { return p.discardImages }

func (p flagPrompter) SavePath(string) (string, bool) { return "", false }

func newConvertCommand(rt *Runtime) *cobra.Command {
	var prompt flagPrompter

	cmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Convert between plain text, rich text and project files.",
		Long: heredoc.Doc(`
			Load <src> and write it to <dst> in the format its extension
			names: .rtep for a project, .rted for rich text, anything else
			for plain text.

			Converting a project to a single file writes its current tab.
			Writing plain text drops images, which needs --discard-images.

			Examples:
			  topnote convert notes.txt notes.rted
			  topnote convert notes.rted notes.rtep
			  topnote convert work.rtep today.txt --discard-images
		`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return convert(cmd, rt, args[0], args[1], prompt)
		},
	}

	cmd.Flags().BoolVar(&prompt.discardImages, "discard-images", false, "allow dropping images when writing plain text")
	return cmd
}

func convert(cmd *cobra.Command, rt *Runtime, src, dst string, prompt flagPrompter) error {
	s := session.New(editor.NewState(), rt.SessionOptions())

	report, err := s.Open(src, prompt)
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), flagStyle.Render("warning: ")+w.Error())
	}

	if rtedoc.KindForPath(dst) == rtedoc.KindProject {
		err = s.SaveProject(dst)
	} else {
		err = s.SaveAs(dst, prompt)
	}
	if errors.Is(err, session.ErrUserCancelled) {
		return fmt.Errorf("%s has %d images; pass --discard-images to write plain text: %w",
			src, len(s.Active().Images), err)
	}
	if err != nil {
		return err
	}

	rt.Log.Info("converted", zap.String("src", src), zap.String("dst", dst))
	fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", src, dst, rtedoc.KindForPath(dst))
	return nil
}

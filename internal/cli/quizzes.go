package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"quiz-battle-service/internal/domain"
	"quiz-battle-service/internal/infra/memory"
)

// NewQuizzesCmd groups quiz pool maintenance commands.
func NewQuizzesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "Manage quiz seed files",
	}
	cmd.AddCommand(newValidateQuizzesCmd())
	return cmd
}

func newValidateQuizzesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a YAML quiz seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateQuizFile(cmd.OutOrStdout(), file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to the YAML quiz file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func validateQuizFile(out io.Writer, path string) error {
	items, err := memory.ReadQuizFile(path)
	if err != nil {
		return err
	}
	var failures []domain.BulkFailure
	for i, item := range items {
		if _, err := item.Quiz(); err != nil {
			failures = append(failures, domain.BulkFailure{Index: i, Reason: err.Error()})
		}
	}
	fmt.Fprintf(out, "%d valid, %d invalid\n", len(items)-len(failures), len(failures))
	for _, f := range failures {
		fmt.Fprintf(out, "  quiz %d: %s\n", f.Index, f.Reason)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d invalid quizzes in %s", len(failures), path)
	}
	return nil
}

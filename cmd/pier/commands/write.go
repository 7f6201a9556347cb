package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/bob/internal/core/domain"
)

// newWriteCmd builds the "write" command: it reads stdin and freezes it into
// the artifact store at the given sandbox-relative path, printing the
// resulting artifact's real, project-root-relative path.
func (c *CLI) newWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <path>",
		Short: "Write stdin to the artifact store at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := domain.NewRelPath(args[0])
			if err != nil {
				return err
			}
			contents, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			artifact, err := c.app.WriteArtifact(cmd.Context(), path, contents)
			if err != nil {
				return err
			}
			fmt.Println(artifact.RealPathIn())
			return nil
		},
	}
}

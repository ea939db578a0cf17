package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"patchlink/internal/application/commands"
	"patchlink/internal/domain"
)

var (
	reduceUnchanged string
	reducePrevious  string
	reduceExcluded  string
	reduceOutput    string
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Reduce a list of unchanged paths to a link manifest",
	Long: `Reduce the paths identical between two patches to the smallest list of
files and directories to link. Whole directories are linked when they are
identical in both patches and contain no excluded path.

Path lists hold one path per line; "-" reads from stdin.

Examples:
  patchlink reduce --unchanged same.txt --previous old.txt --excluded changed.txt
  patchlink reduce --unchanged - --previous old.txt -o 14.3.links.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		unchanged, err := readPathList(cmd, reduceUnchanged)
		if err != nil {
			return err
		}
		previous, err := readPathList(cmd, reducePrevious)
		if err != nil {
			return err
		}
		var excluded []string
		if reduceExcluded != "" {
			if excluded, err = readPathList(cmd, reduceExcluded); err != nil {
				return err
			}
		}

		result, err := commands.NewReduceCommand(unchanged, previous, excluded).Execute(cmd.Context())
		if err != nil {
			return err
		}

		if reduceOutput == "" {
			_, err = result.Links.WriteTo(cmd.OutOrStdout())
			return err
		}
		if err := os.WriteFile(reduceOutput, result.Links.Encode(), 0o644); err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), result.Message)
		return nil
	},
}

func readPathList(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open path list: %w", err)
		}
		defer f.Close()
		r = f
	}

	paths, err := domain.ReadLinkManifest(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return paths, nil
}

func init() {
	rootCmd.AddCommand(reduceCmd)
	reduceCmd.Flags().StringVar(&reduceUnchanged, "unchanged", "", "paths identical in both patches")
	reduceCmd.Flags().StringVar(&reducePrevious, "previous", "", "all paths of the previous patch")
	reduceCmd.Flags().StringVar(&reduceExcluded, "excluded", "", "changed paths no link may cover")
	reduceCmd.Flags().StringVarP(&reduceOutput, "output", "o", "", "write the manifest to a file instead of stdout")
	_ = reduceCmd.MarkFlagRequired("unchanged")
	_ = reduceCmd.MarkFlagRequired("previous")
}

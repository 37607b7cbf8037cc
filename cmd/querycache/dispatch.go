package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/goforj/querycache/dispatch"
)

func newDispatchCmd(a *app) *cobra.Command {
	var (
		file       string
		bestEffort bool
	)
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Transform a JSON array of tagged records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(filepath.Clean(file))
			if err != nil {
				return errors.Wrapf(err, "read %s", file)
			}
			records, err := dispatch.DecodeRecords(data)
			if err != nil {
				return errors.Wrapf(err, "%s", file)
			}
			policy := a.cfg.Policy()
			if bestEffort {
				policy = dispatch.BestEffort
			}
			lines, err := dispatch.New(
				dispatch.WithPolicy(policy),
				dispatch.WithReporter(dispatch.WriterReporter(cmd.ErrOrStderr())),
				dispatch.WithLogger(a.logger),
			).Dispatch(records)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding the record batch")
	cmd.Flags().BoolVar(&bestEffort, "best-effort", false, "skip records that fail to transform instead of aborting")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"evidence-hub/importer"
)

var syncAll bool

func init() {
	cmd := &cobra.Command{
		Use:   "sync [integration-id]",
		Short: "Run integration syncs in the foreground",
		Args: func(cmd *cobra.Command, args []string) error {
			if syncAll && len(args) > 0 {
				return errors.New("pass an integration id or --all, not both")
			}
			if !syncAll && len(args) != 1 {
				return errors.New("an integration id is required unless --all is set")
			}
			return nil
		},
		RunE: runSync,
	}
	cmd.Flags().BoolVar(&syncAll, "all", false, "sync every active G2 and Capterra integration")
	rootCmd.AddCommand(cmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if syncAll {
		reports, err := a.runner.SyncAll(cmd.Context())
		if err != nil {
			return err
		}
		if err := printJSON(cmd, reports); err != nil {
			return err
		}
		for _, r := range reports {
			if !r.Success {
				return fmt.Errorf("%d integration(s) did not sync cleanly", countFailed(reports))
			}
		}
		return nil
	}

	res, err := a.runner.Sync(cmd.Context(), args[0])
	return reportResult(cmd, res, err)
}

func countFailed(reports []importer.SyncReport) int {
	n := 0
	for _, r := range reports {
		if !r.Success {
			n++
		}
	}
	return n
}

func reportResult(cmd *cobra.Command, res *importer.Result, err error) error {
	if res != nil {
		if perr := printJSON(cmd, res); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New(res.Message)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

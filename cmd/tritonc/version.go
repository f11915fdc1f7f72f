package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recht/triton/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionFormat string

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show tritonc build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := versionPayload{
			Tool:      "tritonc",
			Version:   version.Version,
			GitCommit: version.GitCommit,
			BuildDate: version.BuildDate,
		}
		switch strings.ToLower(versionFormat) {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		case "pretty":
			fmt.Printf("tritonc %s\n", payload.Version)
			if payload.GitCommit != "" {
				fmt.Printf("  commit %s\n", payload.GitCommit)
			}
			if payload.BuildDate != "" {
				fmt.Printf("  built  %s\n", payload.BuildDate)
			}
			return nil
		default:
			return fmt.Errorf("unknown format %q (pretty|json)", versionFormat)
		}
	},
}

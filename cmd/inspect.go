package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	config "github.com/thirdweb-dev/offline-replay/configs"
	"github.com/thirdweb-dev/offline-replay/internal/dataset"
)

var (
	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Check a snapshot's datasets without writing anything",
		Long:  "Validate every dataset of a snapshot against the column mapping and print its columns and row count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunInspect(cmd, args)
		},
	}
)

func RunInspect(cmd *cobra.Command, args []string) error {
	if config.Cfg.Data.Dir == "" {
		return fmt.Errorf("--data is required")
	}
	reader, err := dataset.Open(config.Cfg.Data.Dir, dataset.Options{BatchSize: config.Cfg.Data.BatchSize})
	if err != nil {
		return err
	}
	return inspect(cmd.OutOrStdout(), reader)
}

func inspect(out io.Writer, reader *dataset.Reader) error {
	fmt.Fprintf(out, "Snapshot: %s (mapping version %d)\n", reader.Dir(), dataset.MappingVersion)
	for _, spec := range dataset.Specs {
		if !reader.Has(spec.Name) {
			fmt.Fprintf(out, "\n%s: not present\n", spec.Name.FileName())
			continue
		}
		f, err := reader.Open(spec.Name)
		if err != nil {
			return err
		}
		rows := f.NumRows()
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s: %d rows\n", spec.Name.FileName(), rows)
		for _, field := range spec.Fields {
			fmt.Fprintf(out, "  %-14s %s\n", field.Name, field.Class)
		}
	}
	return nil
}

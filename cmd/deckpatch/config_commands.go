package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"deckpatch/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage deckpatch configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFlagOrDefault(cmd)
			if err != nil {
				return err
			}
			if path == "" {
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			} else if path, err = config.ExpandPath(path); err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFlagOrDefault(cmd)
			if err != nil {
				return err
			}
			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				return err
			}

			source := resolved
			if !exists {
				source = "(defaults; no config file found)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n\n", source)

			rows := [][]string{
				{"paths.staging_dir", cfg.Paths.StagingDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"soffice.binary", cfg.Soffice.Binary},
				{"soffice.convert_timeout", strconv.Itoa(cfg.Soffice.ConvertTimeout)},
				{"export.include_notes", strconv.FormatBool(cfg.Export.IncludeNotes)},
				{"export.include_subtitle", strconv.FormatBool(cfg.Export.IncludeSubtitle)},
				{"export.include_footer", strconv.FormatBool(cfg.Export.IncludeFooter)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Setting", "Value"}, rows,
				[]columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFlagOrDefault(cmd)
			if err != nil {
				return err
			}
			_, resolved, exists, err := config.Load(path)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(cmd.OutOrStdout(), "No config file found; defaults are valid\n")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", resolved)
			return nil
		},
	}
}

// configFlagOrDefault reads the persistent --config flag from the root.
func configFlagOrDefault(cmd *cobra.Command) (string, error) {
	flag := cmd.Root().PersistentFlags().Lookup("config")
	if flag == nil {
		return "", nil
	}
	return flag.Value.String(), nil
}

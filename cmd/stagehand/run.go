package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/stagehand/internal/config"
	"github.com/alexisbeaulieu97/stagehand/internal/create"
	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/publish"
	"github.com/alexisbeaulieu97/stagehand/internal/scratch"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	var validateOnly bool

	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Drive the registered pipeline headless and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ParseConfig(args[0])
			if err != nil {
				return err
			}

			level := cfg.EffectiveLogLevel()
			if flags.verbose {
				level = "debug"
			}
			log, err := logger.New(logger.Options{
				Level:         level,
				HumanReadable: true,
				Writer:        cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			cctx, err := create.NewContext(create.Options{
				Logger:          log,
				Creators:        appPipeline.Creators,
				Convertors:      appPipeline.Convertors,
				PublishPlugins:  appPipeline.PublishPlugins,
				Targets:         cfg.EffectiveTargets(),
				DiscoverCrashes: appPipeline.DiscoverCrashes,
			})
			if err != nil {
				return err
			}

			ctrl, err := publish.NewController(publish.Options{
				Interactive:   cfg.Interactive,
				Logger:        log,
				CreateContext: cctx,
				Scratch:       scratch.NewProvider(cfg.ScratchDir),
				Context:       cmd.Context(),
			})
			if err != nil {
				return err
			}

			if err := ctrl.Reset(); err != nil {
				return err
			}
			if cfg.Comment != "" {
				ctrl.SetComment(cfg.Comment)
			}

			if validateOnly {
				err = ctrl.Validate()
			} else {
				err = ctrl.Publish()
			}
			if err != nil {
				return err
			}

			report := ctrl.GetPublishReport()
			encoded, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

			if ctrl.HasCrashed() {
				return fmt.Errorf("publish crashed: %s", ctrl.ErrorMessage())
			}
			if ctrl.HasBlockingErrors() {
				return fmt.Errorf("publish halted on blocking validation errors")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "Stop once the validation boundary is crossed")

	return cmd
}

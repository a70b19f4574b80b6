// Command flock runs flocking simulations.
//
// Usage
//
//	flock [--config file] [--log-level level] <command>
//
// Commands:
//
//	view     interactive simulation in an OpenGL window
//	term     interactive simulation in the terminal
//	record   simulation saved to an HDF5 file
//	replay   replay of an HDF5 recording in the terminal or a window
//	version  print version information
//
// Config file
//
// The config file is written in TOML (.toml) or YAML (.yaml, .yml).
// Missing keys keep their default values, see DefaultConf.
//
//	size = 300
//	dimensions = 3
//	overflow = "wrap"
//
//	[settings]
//	repulsion = 0.3
//
//	[[events]]
//	step = 200
//	kind = "seek"
//	point = [0.5, 0.5, 0.5]
//
// Events are applied before the tick of their step, in every command
// that runs a simulation.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/PrincetonUniversity/flock/hdf5"
	"github.com/PrincetonUniversity/flock/internal/logging"
	"github.com/PrincetonUniversity/flock/opengl"
	"github.com/PrincetonUniversity/flock/term"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func init() {
	// Most OpenGL functions have to run from the main thread.
	// This is needed to arrange that main() runs on main thread.
	// See https://github.com/golang/go/wiki/LockOSThread for more info.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		Fatal(err)
	}
}

// Fatal prints an error on the standard error and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flock",
		Short: "Flocking simulations",
		Long: `flock simulates a flock of point agents steered by separation,
cohesion, alignment and speed regulation in a unit square or cube.

Simulations run interactively in an OpenGL window or in the terminal,
or are recorded to HDF5 files that can be replayed later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a TOML or YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newViewCmd(),
		newTermCmd(),
		newRecordCmd(),
		newReplayCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file named by the persistent flags, or the defaults.
func loadConfig(cmd *cobra.Command) (*Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	conf := DefaultConf.clone()
	if path != "" {
		var err error
		if conf, err = ParseConfig(path); err != nil {
			return nil, nil, err
		}
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		conf.LogLevel = level
	}
	return conf, logging.NewLogger(conf.LogLevel, cmd.ErrOrStderr()), nil
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Run an interactive simulation in an OpenGL window",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			paused, _ := cmd.Flags().GetBool("pause")

			s, err := setup(conf, log)
			if err != nil {
				return err
			}
			return opengl.Run(s.flock, &opengl.Config{
				MaxSwarmSize: conf.Size,
				Step:         s.step,
				ForcePause:   paused,
				Control:      s.flock,
				Log:          log,
				Xmin:         0,
				Ymin:         0,
				Xmax:         1,
				Ymax:         1,
			})
		},
	}
	cmd.Flags().Bool("pause", false, "Step manually with the right arrow")
	return cmd
}

func newTermCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Run an interactive simulation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			paused, _ := cmd.Flags().GetBool("pause")

			// log records would garble the screen
			s, err := setup(conf, slog.New(slog.DiscardHandler))
			if err != nil {
				return err
			}
			return term.Run(s.flock, &term.Config{
				Step:       s.step,
				ForcePause: paused,
				Control:    s.flock,
			})
		},
	}
	cmd.Flags().Bool("pause", false, "Step manually with the right arrow")
	return cmd
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Run a simulation and save it to an HDF5 file",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				conf.Output, _ = cmd.Flags().GetString("output")
			}
			if cmd.Flags().Changed("steps") {
				conf.Steps, _ = cmd.Flags().GetInt("steps")
			}
			if conf.Output == "" {
				return errors.New("no output file, use --output or the output key")
			}
			if conf.Steps <= 0 {
				return fmt.Errorf("bad number of steps %d", conf.Steps)
			}

			s, err := setup(conf, log)
			if err != nil {
				return err
			}
			rc := &hdf5.Config{
				Output: conf.Output,
				Steps:  conf.Steps,
				Step:   s.step,
				Datasets: []*hdf5.Dataset{
					hdf5.Agents(conf.Size),
					hdf5.EffectiveSettings(),
				},
				Meta:     conf,
				Progress: cmd.ErrOrStderr(),
			}
			log.Info("recording", "output", conf.Output, "steps", conf.Steps, "size", conf.Size)
			if err := hdf5.Run(s.flock, rc); err != nil {
				return err
			}
			log.Info("recorded", "output", conf.Output, "run", rc.RunID)
			return nil
		},
	}
	cmd.Flags().String("output", "", "Path of the HDF5 file to write")
	cmd.Flags().Int("steps", 0, "Number of steps to record")
	return cmd
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Replay an HDF5 recording in the terminal or an OpenGL window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			_, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			window, _ := cmd.Flags().GetBool("window")
			paused, _ := cmd.Flags().GetBool("pause")

			r, err := newReplay(args[0])
			if err != nil {
				return err
			}
			defer func() {
				if cerr := r.Close(); err == nil {
					err = cerr
				}
			}()
			log.Info("replaying", "file", args[0], "steps", r.Steps(), "dimensions", r.Dimensions())

			if window {
				return opengl.Run(r, &opengl.Config{
					MaxSwarmSize: len(r.bodies),
					Step:         r.step,
					ForcePause:   paused,
					Log:          log,
					Xmin:         0,
					Ymin:         0,
					Xmax:         1,
					Ymax:         1,
				})
			}
			return term.Run(r, &term.Config{Step: r.step, ForcePause: paused})
		},
	}
	cmd.Flags().Bool("window", false, "Replay in an OpenGL window instead of the terminal")
	cmd.Flags().Bool("pause", false, "Step manually with the right arrow")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flock version %s\n", version)
		},
	}
}

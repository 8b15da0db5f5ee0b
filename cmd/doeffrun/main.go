// Command doeffrun is a thin external launcher for doeff programs: it
// parses flags, builds the default environment/state a Run call takes, logs
// the run's lifecycle, and reports the result. It does not host any domain
// program registry — that belongs to whatever repository imports doeff and
// defines programs of its own; this stub only exercises the public facade
// end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"code.doeff.dev/doeff"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "doeffrun",
		Short: "Launch a doeff program and report its result",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newReplayCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var envPairs []string
	var async bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run [message]",
		Short: "Run the built-in demo program",
		Long: "Run executes a small demonstration Program through doeff.Run (or\n" +
			"doeff.RunAsync with --async), reporting its value, log, and final state.\n" +
			"There is no program registry in this repository: the program run here is\n" +
			"always the built-in demo, which echoes its argument through Env/Tell/State.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("doeffrun: building logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			message := "hello from doeffrun"
			if len(args) == 1 {
				message = args[0]
			}
			env, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}
			env["message"] = message

			logger.Info("run starting", zap.String("message", message), zap.Bool("async", async))

			opts := []doeff.RunOption{
				doeff.WithEnv(env),
				doeff.WithInitialState(map[string]any{"runs": 0}),
			}

			var result doeff.RunResult[string]
			if async {
				ctx := context.Background()
				if timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}
				result = <-doeff.RunAsync(ctx, demoProgram(), opts...)
			} else {
				result = doeff.Run(demoProgram(), opts...)
			}

			if v, ok := result.Value.GetRight(); ok {
				logger.Info("run finished", zap.String("value", v), zap.Any("log", result.Log))
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			}
			runErr, _ := result.Value.GetLeft()
			logger.Error("run failed", zap.Error(runErr))
			return runErr
		},
	}
	cmd.Flags().StringArrayVar(&envPairs, "env", nil, "key=value pairs added to the program's environment")
	cmd.Flags().BoolVar(&async, "async", false, "drive the program through RunAsync instead of Run")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "cancel the run after this duration (--async only)")
	return cmd
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <record>",
		Short: "Replay a previously captured run (not implemented)",
		Long: "replay is reserved for the runbox-record replay feature described\n" +
			"alongside run/run_async; only the command surface exists here.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("doeffrun: replay is not implemented")
		},
	}
}

func parseEnvPairs(pairs []string) (map[string]any, error) {
	env := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := splitPair(p)
		if !ok {
			return nil, fmt.Errorf("doeffrun: --env expects key=value, got %q", p)
		}
		env[key] = value
	}
	return env, nil
}

func splitPair(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// demoProgram reads "message" from the environment, logs it through Tell,
// increments a "runs" counter in the state store, and returns the message
// unchanged.
func demoProgram() doeff.Program[string] {
	return doeff.FlatMap(doeff.Env("message"), func(v any) doeff.Program[string] {
		message, _ := v.(string)
		return doeff.FlatMap(doeff.Perform(doeff.Tell[any]{Value: message}), func(struct{}) doeff.Program[string] {
			return doeff.FlatMap(doeff.GetStateValue("runs"), func(v any) doeff.Program[string] {
				runs, _ := v.(int)
				return doeff.FlatMap(doeff.PutStateValue("runs", runs+1), func(struct{}) doeff.Program[string] {
					return doeff.Pure(message)
				})
			})
		})
	})
}

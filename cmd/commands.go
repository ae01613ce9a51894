package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"hybridmcp/internal/service"
	"hybridmcp/pkg/config"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/logger"
	"hybridmcp/pkg/monitoring"
	"hybridmcp/pkg/store/memory"

	"github.com/spf13/cobra"
)

func newInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.WriteDefault(*configPath, force); err != nil {
				return &exitError{Code: 1, Err: err}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", *configPath)
			return err
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

type routeOptions struct {
	name        string
	cpu         float64
	memory      float64
	gpu         float64
	network     bool
	duration    time.Duration
	usesGPU     bool
	specialized bool
	priority    string
}

func newRouteCmd(configPath *string) *cobra.Command {
	var opts routeOptions

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show where a task would run",
		Long: `Evaluate the routing decision for a task description.

Resource readings given with --cpu, --memory or --gpu replace a live sample.
A reading left out when any other is given counts as unavailable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := newOfflineExecutionService(*configPath)
			if err != nil {
				return &exitError{Code: 1, Err: err}
			}

			task := hybrid.TaskDescriptor{
				Name:                       opts.name,
				EstimatedDuration:          opts.duration,
				UsesGPU:                    opts.usesGPU,
				RequiresSpecializedService: opts.specialized,
				Priority:                   hybrid.ParsePriority(opts.priority),
			}

			var snapshot *hybrid.ResourceSnapshot
			flags := cmd.Flags()
			if flags.Changed("cpu") || flags.Changed("memory") || flags.Changed("gpu") {
				snapshot = &hybrid.ResourceSnapshot{NetworkAvailable: opts.network, SampledAt: time.Now()}
				if flags.Changed("cpu") {
					snapshot.CPUPercent = hybrid.Percent(opts.cpu)
				}
				if flags.Changed("memory") {
					snapshot.MemoryPercent = hybrid.Percent(opts.memory)
				}
				if flags.Changed("gpu") {
					snapshot.GPUPercent = hybrid.Percent(opts.gpu)
				}
			}

			ctx := cmd.Context()
			if snapshot == nil {
				snap := exec.Sample(ctx)
				snapshot = &snap
			}
			decision := exec.Decide(ctx, snapshot, task)
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"decision": decision,
				"snapshot": snapshot,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.name, "name", "cli", "task name")
	flags.Float64Var(&opts.cpu, "cpu", 0, "CPU usage percent")
	flags.Float64Var(&opts.memory, "memory", 0, "memory usage percent")
	flags.Float64Var(&opts.gpu, "gpu", 0, "GPU usage percent")
	flags.BoolVar(&opts.network, "network", true, "whether the network is reachable")
	flags.DurationVar(&opts.duration, "duration", 0, "estimated task duration, e.g. 90s or 10m")
	flags.BoolVar(&opts.usesGPU, "gpu-task", false, "task needs a GPU")
	flags.BoolVar(&opts.specialized, "specialized", false, "task needs a specialized remote service")
	flags.StringVar(&opts.priority, "priority", "medium", "task priority: low, medium or high")
	return cmd
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Sample this machine and print the routing status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := newOfflineExecutionService(*configPath)
			if err != nil {
				return &exitError{Code: 1, Err: err}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			status, err := exec.Status(ctx)
			if err != nil {
				return &exitError{Code: 1, Err: err}
			}
			return writeJSON(cmd.OutOrStdout(), status)
		},
	}
}

// newOfflineExecutionService builds an execution service for one-shot
// commands: no API key is required and nothing is executed or recorded.
func newOfflineExecutionService(configPath string) (*service.ExecutionService, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Setup(cfg.Logger, os.Stderr); err != nil {
		return nil, err
	}

	router, err := newHybridRouter(cfg)
	if err != nil {
		return nil, err
	}

	sampler := newSystemSampler(cfg.Monitoring)
	aggregator := monitoring.NewAggregator(sampler, memory.NewHistory(1))
	return service.NewExecutionService(router, sampler, aggregator, nil, nil, false), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

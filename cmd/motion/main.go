// Command motion inspects and exercises the motion resilience layer from
// a shell: detect a capability profile for a user agent, resolve an
// animation config for accessibility flags, validate or watch a config
// file, and print a dashboard export for a synthetic sample run.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/config"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/dashboard"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/motion"
	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/platform"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "motion",
	Short: "Motion resilience layer diagnostics",
	Long: `Diagnostics for the motion resilience and performance layer.

Inspect what the layer would decide for a given environment: capability
detection, accessible config resolution, alert thresholds, and the
exported performance snapshot.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return logging.Init(cfg.Logging, logger)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Print the capability profile for an environment",
	RunE:  runDetect,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve an animation config for accessibility flags and mode",
	RunE:  runResolve,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run synthetic samples through a dashboard and print the export",
	RunE:  runExport,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config file operations",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE:  runConfigValidate,
}

var configWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the config file and print each reload until interrupted",
	RunE:  runConfigWatch,
}

var (
	userAgent   string
	deviceMemGB float64
	deviceCPUs  int

	duration      time.Duration
	stagger       time.Duration
	easing        string
	reducedMotion bool
	screenReader  bool
	modeFlag      string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "motion.yaml", "config file path")

	detectCmd.Flags().StringVar(&userAgent, "user-agent", "", "user agent string to classify")
	detectCmd.Flags().Float64Var(&deviceMemGB, "device-memory", 0, "device memory in GB")
	detectCmd.Flags().IntVar(&deviceCPUs, "cpus", 0, "hardware concurrency (0 = this machine)")

	resolveCmd.Flags().DurationVar(&duration, "duration", 300*time.Millisecond, "requested duration")
	resolveCmd.Flags().DurationVar(&stagger, "stagger", 0, "requested stagger")
	resolveCmd.Flags().StringVar(&easing, "easing", "ease-out", "requested easing curve")
	resolveCmd.Flags().BoolVar(&reducedMotion, "reduced-motion", false, "reduced motion preference")
	resolveCmd.Flags().BoolVar(&screenReader, "screen-reader", false, "screen reader detected")
	resolveCmd.Flags().StringVar(&modeFlag, "mode", "high", "performance mode: high|balanced|battery")

	configCmd.AddCommand(configValidateCmd, configWatchCmd)
	rootCmd.AddCommand(detectCmd, resolveCmd, exportCmd, configCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	profile := platform.Detect(platform.Environment{
		UserAgent:           userAgent,
		DeviceMemoryGB:      deviceMemGB,
		HardwareConcurrency: deviceCPUs,
	})
	return printYAML(cmd, profile)
}

func runResolve(cmd *cobra.Command, args []string) error {
	mode, err := motion.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	resolved := motion.Resolve(motion.Config{
		Duration: duration,
		Stagger:  stagger,
		Easing:   easing,
	}, reducedMotion, screenReader, mode)

	cmd.Printf("should_animate: %v\n", motion.ShouldAnimate(true, reducedMotion, screenReader))
	return printYAML(cmd, resolved)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	d := dashboard.New(dashboard.Thresholds{
		LowFrameRate: cfg.Dashboard.LowFrameRate,
		MemoryMB:     cfg.Dashboard.MemoryThresholdMB,
		SlowRender:   cfg.Dashboard.SlowRender.Std(),
		MetricCap:    cfg.Dashboard.MetricCap,
	})

	// A small synthetic run: one healthy surface, one degrading one.
	for i := 0; i < 5; i++ {
		d.AddMetric(dashboard.Metric{
			ComponentID:   "hero",
			FrameRate:     60,
			RenderTime:    8 * time.Millisecond,
			MemoryUsageMB: 42,
			BatteryImpact: dashboard.BatteryLow,
		})
		d.AddMetric(dashboard.Metric{
			ComponentID:   "gallery",
			FrameRate:     float64(55 - i*8),
			RenderTime:    time.Duration(12+i*4) * time.Millisecond,
			MemoryUsageMB: float64(80 + i*10),
			BatteryImpact: dashboard.BatteryHigh,
		})
	}

	out, err := d.ExportMetrics()
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cmd.Printf("config ok: registry cap %d, metric cap %d, low fps %.0f\n",
		cfg.Registry.MaxActive, cfg.Dashboard.MetricCap, cfg.Dashboard.LowFrameRate)
	return nil
}

func runConfigWatch(cmd *cobra.Command, args []string) error {
	w, err := config.NewWatcher(configPath, func(cfg config.Config) {
		cmd.Printf("reloaded: registry cap %d, low fps %.0f\n",
			cfg.Registry.MaxActive, cfg.Dashboard.LowFrameRate)
	})
	if err != nil {
		return err
	}
	if err := w.Start(cmd.Context()); err != nil {
		return err
	}
	defer w.Stop()

	cmd.Printf("watching %s (ctrl-c to stop)\n", configPath)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}
	return nil
}

func printYAML(cmd *cobra.Command, v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	cmd.Print(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

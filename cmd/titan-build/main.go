package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/titankernel/titan-build/internal/bootimg"
	"github.com/titankernel/titan-build/internal/flash"
	"github.com/titankernel/titan-build/internal/fragment"
	"github.com/titankernel/titan-build/internal/kconfig"
	"github.com/titankernel/titan-build/internal/logging"
	"github.com/titankernel/titan-build/internal/magisk"
	"github.com/titankernel/titan-build/internal/pipeline"
	"github.com/titankernel/titan-build/internal/request"
	"github.com/titankernel/titan-build/internal/setup"
	"github.com/titankernel/titan-build/internal/state"
	"github.com/titankernel/titan-build/internal/tools"
)

const defaultLogLevel = "info"

// buildEnv are the variables established for the kernel build tools when the
// caller has not set them already.
var buildEnv = map[string]string{
	"ARCH":                  "arm64",
	"ANDROID_MAJOR_VERSION": "r",
}

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar).With("run", uuid.NewString()[:8])
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted", "error", err)
		os.Exit(130)
	case request.IsParseError(err):
		fmt.Fprintln(os.Stderr, request.Usage())
		logger.Error("invalid invocation", "error", err)
		os.Exit(1)
	default:
		logger.Error("build failed", "error", err)
		os.Exit(pipeline.ExitStatus(err))
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	root := &cobra.Command{
		Use:           "titan-build",
		Short:         "Build, package and flash the Titan kernel for Exynos 9820 devices",
		Long:          request.Usage(),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Stage commands parse their own argument grammar: fragment toggles
	// look like flags to cobra, so flag parsing stays off and the tool's
	// own flags are extracted by hand.
	for _, keyword := range []string{"config", "build", "mkimg", "flash", ":build", ":mkimg", ":flash"} {
		keyword := keyword
		root.AddCommand(&cobra.Command{
			Use:                keyword,
			Short:              stageShort(keyword),
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runStage(cmd.Context(), logger, levelVar, keyword, args)
			},
		})
	}
	return root
}

func stageShort(keyword string) string {
	if strings.HasPrefix(keyword, ":") {
		return "Run only the " + keyword[1:] + " stage"
	}
	return "Run the pipeline up to and including " + keyword
}

// runStage wires the pipeline for one invocation and executes it.
func runStage(ctx context.Context, logger *slog.Logger, levelVar *slog.LevelVar, keyword string, args []string) error {
	tokens, opts, err := extractToolFlags(args)
	if err != nil {
		return err
	}
	level, err := parseLogLevel(opts.logLevel)
	if err != nil {
		return err
	}
	levelVar.Set(level)
	logger = logger.With("command", keyword)

	settings, err := setup.Load(opts.settingsPath)
	if err != nil {
		return err
	}
	ensureEnvironment(logger)

	frags, err := fragment.Discover(settings.FragmentDir())
	if err != nil {
		return err
	}
	store := state.NewStore(settings.TreeRoot)

	req, err := request.Parse(logger, append([]string{keyword}, tokens...), frags, store)
	if err != nil {
		return err
	}

	kernel := &tools.ExecKernel{Root: settings.TreeRoot, Logger: logger.With("tool", "make")}
	driver := pipeline.NewDriver(logger,
		&kconfig.Materializer{
			Kernel: kernel,
			Magisk: &magisk.HTTPSyncer{
				StableURL: settings.Magisk.StableURL,
				CanaryURL: settings.Magisk.CanaryURL,
				Dest:      settings.MagiskDest(),
				Logger:    logger.With("tool", "magisk"),
			},
			Store:      store,
			RecordPath: settings.RecordPath(),
			Logger:     logger.With("stage", "config"),
		},
		&pipeline.BuildStage{Kernel: kernel, Jobs: settings.Jobs},
		&bootimg.Packager{
			Imager:  &tools.ExecBootImager{Dir: settings.TreeRoot},
			Store:   store,
			Root:    settings.TreeRoot,
			Image:   settings.Image,
			Archive: settings.Archive,
			Logger:  logger.With("stage", "mkimg"),
		},
		&flash.Flasher{
			Heimdall: &tools.ExecHeimdall{Logger: logger.With("tool", "heimdall")},
			ADB:      &tools.ExecADB{},
			Image:    filepath.Join(settings.TreeRoot, settings.Image),
			Logger:   logger.With("stage", "flash"),
		},
	)
	return driver.Run(ctx, req)
}

// ensureEnvironment establishes the build environment variables unless the
// caller already set them, and prints the effective values.
func ensureEnvironment(logger *slog.Logger) {
	for key, fallback := range buildEnv {
		value := os.Getenv(key)
		if value == "" {
			value = fallback
			os.Setenv(key, value)
		}
		logger.Info("build environment", key, value)
	}
}

type toolFlags struct {
	logLevel     string
	settingsPath string
}

// extractToolFlags splits the tool's own --flags out of the stage argument
// list, leaving the key=value and toggle tokens for the request parser.
func extractToolFlags(args []string) ([]string, toolFlags, error) {
	opts := toolFlags{logLevel: defaultLogLevel, settingsPath: setup.DefaultSettingsFile}
	var tokens []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			tokens = append(tokens, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !hasValue {
			if i+1 >= len(args) {
				return nil, opts, fmt.Errorf("flag --%s requires a value", name)
			}
			i++
			value = args[i]
		}
		switch name {
		case "log-level":
			opts.logLevel = value
		case "settings":
			opts.settingsPath = value
		default:
			return nil, opts, fmt.Errorf("unknown flag --%s", name)
		}
	}
	return tokens, opts, nil
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwantia/webproducer"
	"github.com/mwantia/webproducer/config"
	"github.com/mwantia/webproducer/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	// Global flags
	cfgFile  string
	logLevel string
	logFile  string
	jsonLog  bool

	// Build flags
	relativeRoot string
	dataGlobs    []string
	theme        []string
	scripts      []string
	stylesheets  []string
	files        []string
	transform    string
	out          string
	prefixCSS    bool
	noScripts    bool
	noCSS        bool
	noFiles      bool
	noPages      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command and binds its flags to the package flag
// variables, resetting them to their defaults.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webproducer",
		Short: "Build a static site and deploy the changed files",
		Long: `webproducer renders handlebars templates with data from a file, a GraphQL
or HTTP endpoint, a database or Consul, bundles scripts and stylesheets, copies
static files and writes everything that differs from the destination.

Without --config every value comes from the flags and their defaults. With
--config, flags set on the command line override the configuration.`,
		Version:      version,
		SilenceUsage: true,
		RunE:         runProduce,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file, or inline YAML")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error, fatal)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write the log into this file")
	cmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "log json lines instead of text")

	flags := cmd.Flags()
	flags.StringVarP(&relativeRoot, "relative-root", "r", config.DefaultRelativeRoot, "static files are placed relative to this folder")
	flags.StringSliceVarP(&dataGlobs, "data", "d", []string{config.DefaultData}, "data files")
	flags.StringSliceVarP(&theme, "theme", "t", []string{config.DefaultTheme}, "handlebars templates and partials")
	flags.StringSliceVarP(&scripts, "scripts", "s", []string{config.DefaultScripts}, "script entry points")
	flags.StringSliceVarP(&stylesheets, "css", "c", []string{config.DefaultStylesheets}, "stylesheet entry points")
	flags.StringSliceVarP(&files, "files", "f", []string{config.DefaultFiles}, "static files copied as is")
	flags.StringVarP(&transform, "transform", "x", "", "registered transform applied to the data")
	flags.StringVarP(&out, "out", "o", config.DefaultDestination, "destination folder")
	flags.BoolVarP(&prefixCSS, "prefix-css", "p", false, "add vendor prefixes to stylesheets")
	flags.BoolVar(&noScripts, "no-scripts", false, "skip bundling scripts")
	flags.BoolVar(&noCSS, "no-css", false, "skip bundling stylesheets")
	flags.BoolVar(&noFiles, "no-files", false, "skip static files")
	flags.BoolVar(&noPages, "no-pages", false, "skip rendering pages")

	return cmd
}

func runProduce(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := log.Parse(cfg.LogLevel)
	if err != nil {
		return err
	}

	opts := []webproducer.WebProducerOption{
		webproducer.WithLogLevel(level),
		webproducer.WithLogFile(cfg.LogFile),
	}
	if jsonLog {
		opts = append(opts, webproducer.WithJSONLog())
	}

	wp, err := webproducer.New(opts...)
	if err != nil {
		return err
	}

	_, err = wp.Produce(ctx, &webproducer.Params{Config: cfg})
	return err
}

// loadConfig reads --config when given and applies every flag that was set
// explicitly. Without --config all flags apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	apply := func(name string) bool {
		return cfgFile == "" || flags.Changed(name)
	}

	if apply("relative-root") {
		cfg.Build.RelativeRoot = relativeRoot
	}
	if apply("data") {
		cfg.Build.Data = dataGlobs
	}
	if apply("theme") {
		cfg.Build.Theme = theme
	}
	if apply("scripts") {
		cfg.Build.Scripts = scripts
	}
	if apply("css") {
		cfg.Build.Stylesheets = stylesheets
	}
	if apply("files") {
		cfg.Build.Files = files
	}
	if apply("transform") {
		cfg.Build.Transform = transform
	}
	if apply("out") {
		cfg.Destination = config.StorageConfig{Type: config.StorageFilesystem, Path: out}
	}
	if apply("prefix-css") {
		cfg.Build.PrefixCSS = prefixCSS
	}
	if apply("no-scripts") {
		cfg.Build.NoScripts = noScripts
	}
	if apply("no-css") {
		cfg.Build.NoCSS = noCSS
	}
	if apply("no-files") {
		cfg.Build.NoFiles = noFiles
	}
	if apply("no-pages") {
		cfg.Build.NoPages = noPages
	}
	if apply("log-level") {
		cfg.LogLevel = logLevel
	}
	if apply("log-file") {
		cfg.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

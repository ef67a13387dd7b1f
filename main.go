// Package main provides the entry point for the notereader CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/notereader/internal/audio"
	"github.com/dgnsrekt/notereader/internal/notes"
	"github.com/dgnsrekt/notereader/internal/observe"
	para "github.com/dgnsrekt/notereader/internal/paragraph"
	"github.com/dgnsrekt/notereader/internal/pipeline"
	"github.com/dgnsrekt/notereader/internal/settings"
	"github.com/dgnsrekt/notereader/internal/synth"
	"github.com/dgnsrekt/notereader/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	engine      string
	queueSize   int
	pause       time.Duration
	mute        bool
	noTUI       bool
	showAll     bool
	match       string
	metricsAddr string

	rootCmd = &cobra.Command{
		Use:   "notereader [PATH]",
		Short: "Read your markdown notes out loud",
		Long: paragraph(
			fmt.Sprintf("\nPick a random note from a folder and %s, paragraph by paragraph.", keyword("read it out loud")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOptions()
		},
		RunE: execute,
	}
)

func validateOptions() error {
	// grab config values from Viper
	engine = strings.ToLower(strings.TrimSpace(viper.GetString("engine")))
	queueSize = viper.GetInt("queue_size")
	pause = viper.GetDuration("pause")
	mute = viper.GetBool("mute")
	noTUI = viper.GetBool("no_tui")
	showAll = viper.GetBool("all")
	match = viper.GetString("match")
	metricsAddr = viper.GetString("metrics_addr")

	switch engine {
	case synth.EnginePolly, synth.EngineGTTS:
	default:
		return fmt.Errorf("%w: %q (use %s or %s)", synth.ErrUnknownEngine, engine, synth.EnginePolly, synth.EngineGTTS)
	}
	if queueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", queueSize)
	}
	if pause < 0 {
		return fmt.Errorf("pause cannot be negative, got %s", pause)
	}
	return nil
}

// synthConfig builds engine settings from viper and the persisted AWS
// credentials. Persisted values win over the config file.
func synthConfig(st *settings.Settings) synth.Config {
	cfg := synth.Config{
		Polly: synth.PollyConfig{
			AccessKeyID:     st.AWS.AccessKeyID,
			SecretAccessKey: st.AWS.SecretAccessKey,
			Region:          viper.GetString("polly.region"),
			Voice:           viper.GetString("polly.voice"),
			Engine:          viper.GetString("polly.engine"),
			LanguageCode:    viper.GetString("polly.language"),
			SampleRate:      viper.GetInt("polly.sample_rate"),
		},
		GTTS: synth.GTTSConfig{
			Language:          viper.GetString("gtts.language"),
			Slow:              viper.GetBool("gtts.slow"),
			RequestsPerMinute: viper.GetInt("gtts.requests_per_minute"),
		},
	}
	if st.AWS.Region != "" {
		cfg.Polly.Region = st.AWS.Region
	}
	return cfg
}

func newSink(info synth.Info) (audio.Sink, error) {
	if mute {
		log.Debug("audio muted", "sample_rate", info.SampleRate)
		return audio.NewDiscard(info.SampleRate, info.Channels), nil
	}
	cfg := audio.DefaultPlayerConfig()
	cfg.SampleRate = info.SampleRate
	cfg.Channels = info.Channels
	p, err := audio.NewPlayer(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device: %w", err)
	}
	return p, nil
}

// resolvePath returns the notes path from args or the persisted
// settings, and remembers a path given on the command line.
func resolvePath(args []string, st *settings.Settings, settingsFile string) (string, error) {
	if len(args) == 0 {
		return st.NotesPath(), nil
	}
	p, err := homedir.Expand(args[0])
	if err != nil {
		return "", fmt.Errorf("unable to expand path: %w", err)
	}
	p, err = filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path: %w", err)
	}
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("unable to open path: %w", err)
	}
	if p != st.Path {
		st.Path = p
		if err := st.Save(settingsFile); err != nil {
			log.Warn("Could not save settings", "error", err)
		}
	}
	return p, nil
}

func execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settingsFile, err := settings.DefaultFile()
	if err != nil {
		return err
	}
	st, err := settings.Load(settingsFile)
	if err != nil {
		return err
	}
	path, err := resolvePath(args, st, settingsFile)
	if err != nil {
		return err
	}

	var opts []pipeline.Option
	if metricsAddr != "" {
		shutdown, err := observe.InitProvider()
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.WithoutCancel(ctx)) }()
		go func() {
			if err := observe.Serve(ctx, metricsAddr); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithMetrics(observe.DefaultMetrics()))
	}

	if engine == synth.EnginePolly && !st.Valid() {
		log.Info("no stored AWS credentials, using the default AWS chain", "hint", "notereader credentials")
	}

	s, err := synth.New(ctx, engine, synthConfig(st))
	if err != nil {
		return err
	}
	info := s.Info()
	sink, err := newSink(info)
	if err != nil {
		return err
	}

	opts = append(opts,
		pipeline.WithQueueSize(queueSize),
		pipeline.WithPause(pause),
		pipeline.WithLogger(log.Default()),
	)
	coord, err := pipeline.New(s, sink, opts...)
	if err != nil {
		return err
	}

	log.Debug("starting",
		"path", path,
		"engine", info.Name,
		"sample_rate", info.SampleRate,
		"queue_size", queueSize,
		"pause", pause,
	)

	if noTUI || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runHeadless(ctx, cmd, coord, path)
	}
	return runTUI(ctx, coord, path, info.Name)
}

// runHeadless plays one random note and prints a summary.
func runHeadless(ctx context.Context, cmd *cobra.Command, coord *pipeline.Coordinator, path string) error {
	if path == "" {
		return errors.New("please first load a path")
	}
	c, err := notes.Collect(path, notes.Options{ShowAll: showAll})
	if err != nil {
		return err
	}
	c.SetFilter(match)
	file, err := c.PickRandom()
	if err != nil {
		return err
	}
	note, err := para.ReadNote(file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%s, %d paragraphs, %d speakable)\n",
		keyword("reading"), c.Rel(file), humanize.Bytes(uint64(len(note.Body))),
		len(note.Paragraphs), speakable(note.Paragraphs))

	res, err := coord.Run(ctx, note.Paragraphs)
	if errs := coord.Errors().String(); errs != "" {
		fmt.Fprint(cmd.ErrOrStderr(), errs)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("playback failed: %w", err)
	}
	fmt.Fprintf(out, "played %d of %d paragraphs, %d failed\n", res.Played, res.Total, res.Failed)
	return nil
}

// speakable counts the paragraphs that still hold text after cleaning.
func speakable(ps []para.Paragraph) int {
	n := 0
	for _, p := range ps {
		if p.Speakable() {
			n++
		}
	}
	return n
}

func runTUI(ctx context.Context, coord *pipeline.Coordinator, path, engineName string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	if cfg.GlamourStyle == "" {
		cfg.GlamourStyle = styles.AutoStyle
	}

	cfg.Path = path
	cfg.ShowAllFiles = showAll
	cfg.Match = match
	cfg.Engine = engineName
	cfg.GlamourMaxWidth = 120

	// Run Bubble Tea program
	_, err = ui.NewProgram(ctx, cfg, coord).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&engine, "engine", "e", synth.EnginePolly, "text-to-speech engine (polly/gtts)")
	rootCmd.Flags().IntVar(&queueSize, "queue-size", pipeline.DefaultQueueSize, "synthesized paragraphs waiting for playback")
	rootCmd.Flags().DurationVar(&pause, "pause", pipeline.DefaultPause, "gap between spoken paragraphs")
	rootCmd.Flags().BoolVarP(&mute, "mute", "m", false, "simulate playback without sound")
	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "read one note without the TUI")
	rootCmd.Flags().BoolVarP(&showAll, "all", "a", false, "include files ignored by .gitignore")
	rootCmd.Flags().StringVar(&match, "match", "", "only pick notes matching this fuzzy pattern")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	// Config bindings
	_ = viper.BindPFlag("engine", rootCmd.Flags().Lookup("engine"))
	_ = viper.BindPFlag("queue_size", rootCmd.Flags().Lookup("queue-size"))
	_ = viper.BindPFlag("pause", rootCmd.Flags().Lookup("pause"))
	_ = viper.BindPFlag("mute", rootCmd.Flags().Lookup("mute"))
	_ = viper.BindPFlag("no_tui", rootCmd.Flags().Lookup("no-tui"))
	_ = viper.BindPFlag("all", rootCmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("match", rootCmd.Flags().Lookup("match"))
	_ = viper.BindPFlag("metrics_addr", rootCmd.Flags().Lookup("metrics-addr"))

	setDefaults()

	rootCmd.AddCommand(configCmd, credentialsCmd, manCmd)
}

func setDefaults() {
	viper.SetDefault("engine", synth.EnginePolly)
	viper.SetDefault("queue_size", pipeline.DefaultQueueSize)
	viper.SetDefault("pause", pipeline.DefaultPause)
	viper.SetDefault("all", false)

	viper.SetDefault("polly.voice", "Zhiyu")
	viper.SetDefault("polly.engine", "neural")
	viper.SetDefault("polly.language", "cmn-CN")
	viper.SetDefault("polly.region", "us-east-1")
	viper.SetDefault("polly.sample_rate", 16000)

	viper.SetDefault("gtts.language", "en")
	viper.SetDefault("gtts.slow", false)
	viper.SetDefault("gtts.requests_per_minute", 50)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "notereader")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "notereader")}, dirs...)
	}

	if c := os.Getenv("NOTEREADER_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("notereader")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("notereader")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "notereader.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}

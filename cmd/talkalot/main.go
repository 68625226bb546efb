package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/talkalot/internal/account"
	"github.com/san-kum/talkalot/internal/audio"
	"github.com/san-kum/talkalot/internal/config"
	"github.com/san-kum/talkalot/internal/recorder"
	"github.com/san-kum/talkalot/internal/storage"
	"github.com/san-kum/talkalot/internal/ui"
)

var (
	configFile  string
	dataDir     string
	backendKind string

	email    string
	password string
	confirm  string
	name     string
	dob      string

	buckets int
	height  int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "talkalot",
		Short:         "voice memos from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runApp,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "talkalot.yaml", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&backendKind, "backend", config.BackendFirebase, "backend (firebase, memory)")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "sign in and remember the session",
		RunE:  runLogin,
	}
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password")

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "create an account",
		RunE:  runSignup,
	}
	signupCmd.Flags().StringVar(&name, "name", "", "display name")
	signupCmd.Flags().StringVar(&email, "email", "", "account email")
	signupCmd.Flags().StringVar(&password, "password", "", "password")
	signupCmd.Flags().StringVar(&confirm, "confirm", "", "password again")
	signupCmd.Flags().StringVar(&dob, "dob", "", "date of birth (YYYY-MM-DD)")

	resetCmd := &cobra.Command{
		Use:   "reset-password",
		Short: "send a password reset email",
		RunE:  runReset,
	}
	resetCmd.Flags().StringVar(&email, "email", "", "account email")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "forget the saved session",
		RunE:  runLogout,
	}

	clipsCmd := &cobra.Command{
		Use:   "clips",
		Short: "list recordings",
		RunE:  listClips,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [clip_id]",
		Short: "plot the loudness of a recording (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotClip,
	}
	plotCmd.Flags().IntVar(&buckets, "buckets", 80, "number of envelope points")
	plotCmd.Flags().IntVar(&height, "height", 10, "graph height")

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "list audio devices",
		RunE:  listDevices,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE:  printConfig,
	}

	rootCmd.AddCommand(loginCmd, signupCmd, resetCmd, logoutCmd, clipsCmd, plotCmd, devicesCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig layers flags over environment over file over defaults. Only
// commands that talk to the backend validate the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("data") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend.Kind = backendKind
	}
	return cfg, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	device := audio.NewDevice(audio.Options{
		SampleRate:      env.cfg.Audio.SampleRate,
		FramesPerBuffer: env.cfg.Audio.FramesPerBuffer,
		MeterInterval:   env.cfg.Audio.MeterInterval,
		AllowMicrophone: env.cfg.Audio.AllowMicrophone,
	}, env.store, env.log.Named("audio"))
	defer func() {
		if err := device.Close(); err != nil {
			env.log.Warn("close audio", zap.Error(err))
		}
	}()

	machine := recorder.New(device,
		recorder.WithLogger(env.log.Named("recorder")),
		recorder.WithTimeout(env.cfg.Audio.Timeout),
	)
	defer func() {
		if err := machine.Close(); err != nil {
			env.log.Warn("close recorder", zap.Error(err))
		}
	}()

	user, err := env.store.LoadSession()
	if err != nil && !errors.Is(err, storage.ErrNoSession) {
		env.log.Warn("load session", zap.Error(err))
	}
	index := &clipIndex{
		store:      env.store,
		sampleRate: env.cfg.Audio.SampleRate,
		log:        env.log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	deps := ui.Deps{
		Accounts:  env.accounts,
		Recorder:  machine,
		Sessions:  env.store,
		Animation: animationConfig(env.cfg),
		FPS:       env.cfg.Animation.FPS,
		Timeout:   env.cfg.Backend.Timeout,
		Log:       env.log.Named("ui"),
	}
	err = ui.Run(ctx, deps, user, func(l recorder.Listener) {
		machine.SetListener(tee{l, index})
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runLogin(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := env.callContext()
	defer cancel()
	u, err := env.accounts.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return errors.New(account.MessageOf(err))
	}
	if err := env.store.SaveSession(u); err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", u.Email)
	return nil
}

func runSignup(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	f := account.SignupForm{
		Name:            name,
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirm,
	}
	if dob != "" {
		d, err := account.ParseDate(dob, time.Local)
		if err != nil {
			return fmt.Errorf("dob: %w", err)
		}
		f.DateOfBirth = d
	}

	ctx, cancel := env.callContext()
	defer cancel()
	u, err := env.accounts.Signup(ctx, f)
	if u.ID != "" {
		if serr := env.store.SaveSession(u); serr != nil {
			env.log.Warn("save session", zap.Error(serr))
		}
	}
	if err != nil {
		return errors.New(account.MessageOf(err))
	}
	fmt.Printf("account created for %s\n", u.Email)
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	ctx, cancel := env.callContext()
	defer cancel()
	notice, err := env.accounts.ResetPassword(ctx, strings.TrimSpace(email))
	if err != nil {
		return errors.New(account.MessageOf(err))
	}
	fmt.Println(notice)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := storage.New(cfg.DataDir).ClearSession(); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func listClips(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	clips, err := storage.New(cfg.DataDir).ListClips()
	if err != nil {
		return err
	}

	if len(clips) == 0 {
		fmt.Println("no recordings found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tDURATION\tRATE\tPATH")

	for _, c := range clips {
		fmt.Fprintf(w, "%s\t%s\t%.1fs\t%d\t%s\n",
			c.ID,
			c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.Duration.Seconds(),
			c.SampleRate,
			c.URI,
		)
	}

	return w.Flush()
}

func plotClip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)

	var meta *storage.Clip
	if len(args) == 1 {
		meta, err = st.LoadClip(args[0])
	} else {
		meta, err = st.Latest()
	}
	if err != nil {
		return err
	}

	clip, err := audio.ReadClip(meta.URI)
	if err != nil {
		return err
	}
	env := audio.Envelope(clip, buckets)
	if len(env) == 0 {
		return fmt.Errorf("no audio to plot")
	}

	fmt.Printf("clip: %s\n", meta.ID)
	fmt.Printf("duration: %.2fs\n", clip.Duration().Seconds())
	fmt.Printf("samples: %d @ %d Hz\n\n", len(clip.Samples), clip.SampleRate)

	graph := asciigraph.Plot(env,
		asciigraph.Height(height),
		asciigraph.Width(buckets),
		asciigraph.Caption("level (per-mille of full scale)"),
	)
	fmt.Println(graph)
	return nil
}

func listDevices(cmd *cobra.Command, args []string) error {
	d := audio.NewDevice(audio.Options{}, nil, nil)
	defer d.Close()

	devices, err := d.Devices()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIN\tOUT\tRATE")
	for _, dev := range devices {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.0f\n", dev.Name, dev.MaxInputChannels, dev.MaxOutputChannels, dev.DefaultSampleRate)
	}
	return w.Flush()
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	shown := *cfg
	if shown.Backend.APIKey != "" {
		shown.Backend.APIKey = "********"
	}
	out, err := yaml.Marshal(&shown)
	if err != nil {
		return err
	}
	fmt.Printf("# %s\n%s", filepath.Clean(configFile), out)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/homestar-hub/internal/catalog"
	"github.com/nerrad567/homestar-hub/internal/hub"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/config"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/influxdb"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/logging"
	"github.com/nerrad567/homestar-hub/internal/infrastructure/mqtt"
	"github.com/nerrad567/homestar-hub/internal/interactor"
	"github.com/nerrad567/homestar-hub/internal/profile"
	"github.com/nerrad567/homestar-hub/internal/session"
)

// runOptions are the arguments of the run command.
type runOptions struct {
	configPath string
	argv       []string

	// ready, if set, receives the started hub.
	ready func(*hub.Server)
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run [path=value ...]",
		Short: "Start the hub",
		Long: `Start the hub. Each path=value argument overrides one configuration leaf
for this run only; the leaf's existing type decides how the value is read.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.argv = args
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML file overlaid on the defaults (default $HOMESTAR_CONFIG)")
	return cmd
}

// run is the hub lifecycle, separated from the command for testability.
//
// Parameters:
//   - ctx: Cancelled on shutdown signals
//   - opts: Config file and override tokens
//
// Returns:
//   - error: nil on clean shutdown, or the failure that stopped startup
func run(ctx context.Context, opts runOptions) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting HomeStar",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	env, err := config.LoadEnvironment()
	if err != nil {
		return err
	}

	persisted, err := loadPersisted(ctx, env, opts.configPath)
	if err != nil {
		return err
	}

	store := config.NewStore(env)
	store.SetLogger(log)
	tree, err := store.Load(config.Defaults(), persisted, opts.argv)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			for _, fix := range missing.Remediation() {
				log.Error("required secret not set", "fix", fix)
			}
		}
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(tree.Logging(), version)
	log.Info("configuration loaded", "name", tree.String("name"), "url", tree.String("webserver/url"))

	cat := catalog.New()
	cat.SetLogger(log.With("component", "catalog"))
	cookbooks := env.Expand(tree.String("cookbooks"))
	if err := cat.LoadCookbooks(cookbooks); err != nil {
		return fmt.Errorf("loading cookbooks: %w", err)
	}
	_, recipes, _ := cat.Counts()
	log.Info("cookbooks loaded", "path", cookbooks, "recipes", recipes)

	deps := hub.Deps{
		Tree:        tree,
		Env:         env,
		Logger:      log,
		Catalog:     cat,
		Interactors: interactor.New(),
		Extensions:  manifest(env),
		Version:     version,
	}

	// Connect to the message bus (optional)
	mqttCfg, err := tree.MQTT()
	if err != nil {
		return fmt.Errorf("reading mqttd config: %w", err)
	}
	if mqttCfg.Enabled {
		mqttClient, err := mqtt.Connect(mqttCfg)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		if err := cat.Subscribe(mqttClient, byte(mqttCfg.QoS)); err != nil { //nolint:gosec // qos is 0-2
			return fmt.Errorf("subscribing catalog: %w", err)
		}
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", mqttCfg.Host, mqttCfg.Port),
			"client_id", mqttCfg.ClientID,
			"subscriptions", len(mqttClient.Subscriptions()),
		)
		deps.Bus = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	influxCfg, err := tree.InfluxDB()
	if err != nil {
		return fmt.Errorf("reading influxdb config: %w", err)
	}
	if influxCfg.Enabled && influxCfg.Token != "" {
		influxClient, err := influxdb.Connect(influxCfg)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", influxCfg.URL, "bucket", influxCfg.Bucket)
		deps.Telemetry = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	web, err := tree.Webserver()
	if err != nil {
		return fmt.Errorf("reading webserver config: %w", err)
	}
	sessions, err := session.NewManager(
		tree.String("secrets/session"),
		web.SessionTTLDuration(),
		web.Scheme == "https",
		session.NewDirectory(tree.String("keys/homestar/owner")),
	)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	sessions.SetLogger(log.With("component", "session"))
	deps.Sessions = sessions

	srv, err := hub.New(deps)
	if err != nil {
		return fmt.Errorf("composing hub: %w", err)
	}

	profilePath := env.Expand(tree.String("profile"))
	if profilePath != "" {
		delay := time.Duration(tree.Int("profile_delay")) * time.Second
		if _, err := profile.TerminatePrevious(ctx, profilePath, delay, log); err != nil {
			return fmt.Errorf("stopping previous hub: %w", err)
		}
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting hub: %w", err)
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			log.Error("error closing hub", "error", closeErr)
		}
	}()

	if profilePath != "" {
		if err := profile.Write(profilePath, srv.Profile()); err != nil {
			log.Warn("could not write profile", "path", profilePath, "error", err)
		}
	}
	if opts.ready != nil {
		opts.ready(srv)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// loadPersisted reads the config file (if any) and overlays the keystore
// runner document on it.
func loadPersisted(ctx context.Context, env config.Environment, configPath string) (config.Tree, error) {
	persisted := config.NewTree(nil)

	if configPath == "" {
		configPath = env.Config
	}
	if configPath != "" {
		file, err := config.ReadFile(configPath)
		if err != nil {
			return config.Tree{}, err
		}
		persisted = persisted.Merge(file)
	}

	keys, closeKeys, err := openKeystore(ctx, env)
	if err != nil {
		return config.Tree{}, err
	}
	defer closeKeys()

	stored, err := keys.Tree(ctx, keystoreKey)
	if err != nil {
		return config.Tree{}, err
	}
	return persisted.Merge(stored), nil
}

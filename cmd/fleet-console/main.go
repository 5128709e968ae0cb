package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fleet-console/fleet-console-pro/internal/api"
	"github.com/fleet-console/fleet-console-pro/internal/auth"
	"github.com/fleet-console/fleet-console-pro/internal/config"
	"github.com/fleet-console/fleet-console-pro/internal/configedit"
	"github.com/fleet-console/fleet-console-pro/internal/dispatch"
	"github.com/fleet-console/fleet-console-pro/internal/fleet"
	"github.com/fleet-console/fleet-console-pro/internal/integration"
	"github.com/fleet-console/fleet-console-pro/internal/models"
	"github.com/fleet-console/fleet-console-pro/internal/notify"
	"github.com/fleet-console/fleet-console-pro/internal/remote"
	"github.com/fleet-console/fleet-console-pro/internal/selection"
	"github.com/fleet-console/fleet-console-pro/internal/settings"
	"github.com/fleet-console/fleet-console-pro/internal/stream"
)

func main() {
	// Command line flags
	var configFile string
	flag.StringVar(&configFile, "config", "config/fleet-console.yml", "Configuration file path")
	flag.Parse()

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Open the durable operator settings store
	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open settings store")
	}
	defer store.Close()

	// The stored activation key wins over the configured one; a freshly
	// configured key is persisted for the next run
	activationKey := cfg.Backend.ActivationKey
	if stored, err := store.GetString(settings.KeyActivationKey); err == nil && stored != "" {
		activationKey = stored
	} else if activationKey != "" {
		if err := store.SetString(settings.KeyActivationKey, activationKey); err != nil {
			log.Warn().Err(err).Msg("Failed to persist activation key")
		}
	}
	cfg.Backend.ActivationKey = activationKey

	if activationKey != "" {
		if info, err := auth.InspectKey(activationKey); err != nil {
			log.Warn().Err(err).Msg("Activation key does not look like a backend-issued token")
		} else if info.Expired {
			log.Warn().Time("expired_at", *info.ExpiresAt).Msg("Activation key is expired")
		}
	}

	// Backend client
	client := remote.NewClient(cfg.Backend.BaseURL,
		remote.WithTimeout(cfg.Backend.Timeout),
		remote.WithActivationKey(activationKey),
	)
	log.Info().Str("base_url", cfg.Backend.BaseURL).Msg("Backend client ready")

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core components
	fleetStore := fleet.NewStore(client)
	logMux := stream.NewMux(stream.NewRemoteDialer(client))
	tracker := selection.NewTracker()
	center := notify.NewCenter()
	dispatcher := dispatch.NewDispatcher(client, fleetStore, center)
	sessionEditor := configedit.NewSessionEditor(client)
	warmupEditor := configedit.NewWarmupEditor()

	apiServer := api.NewConsoleServer(cfg, api.Deps{
		Fleet:      fleetStore,
		Streams:    logMux,
		Selection:  tracker,
		Dispatcher: dispatcher,
		Session:    sessionEditor,
		Warmup:     warmupEditor,
		Settings:   store,
		Notify:     center,
		Backend:    client,
	})
	hub := apiServer.Hub()

	// Every successful refresh reconciles the selection, resubscribes
	// log streams to the enabled set, and pushes the snapshot to the UI
	fleetStore.OnRefresh(func(snapshot []models.DeviceRecord) {
		known := make(map[string]struct{}, len(snapshot))
		enabled := make(map[string]struct{})
		for _, d := range snapshot {
			known[d.DeviceID] = struct{}{}
			if d.Enabled {
				enabled[d.DeviceID] = struct{}{}
			}
		}
		tracker.Reconcile(known)
		logMux.SetActiveDevices(ctx, enabled)
		hub.Broadcast(api.PushFleet, snapshot)
	})

	logMux.AddListener(func(event models.LogEvent) {
		hub.Broadcast(api.PushLog, event)
	})

	center.OnNotify(func(n models.Notification) {
		hub.Broadcast(api.PushNotification, n)
	})

	// Optional: NATS event forwarding
	if cfg.NATS.URL != "" {
		log.Info().Str("url", cfg.NATS.URL).Msg("Connecting to NATS...")
		nc, err := integration.Connect(&cfg.NATS)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to NATS, continuing without event forwarding")
		} else {
			defer nc.Close()
			log.Info().Msg("Connected to NATS")

			forwarder := integration.NewForwarder(nc)
			logMux.AddListener(forwarder.ForwardLogEvent)
			dispatcher.OnCommand(forwarder.ForwardCommand)
		}
	} else {
		log.Info().Msg("NATS not configured, event forwarding disabled")
	}

	// Initial session config fetch; the editor stays usable and retries
	// are driven by the operator
	if err := sessionEditor.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial session config fetch failed")
	}

	// WaitGroup for services
	var wg sync.WaitGroup

	// Start snapshot poller
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Dur("interval", cfg.Backend.PollInterval).Msg("Starting fleet poller")
		fleetStore.Run(ctx, cfg.Backend.PollInterval)
	}()

	// Start API server
	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		if err := apiServer.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Console API server failed")
		}
	}()

	// Wait for signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	// Cancel context
	cancel()

	// Shutdown API server and close device streams
	if err := apiServer.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown console API gracefully")
	}
	logMux.Close()

	// Wait for all services
	wg.Wait()

	log.Info().Msg("Fleet console stopped")
}

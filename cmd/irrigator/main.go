// Command irrigator waters a plant bed: it keeps soil moisture within a band
// by pulsing a pump, cuts the pump when the reservoir runs dry, and accepts
// manual overrides over MQTT and HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"
	"github.com/sweeney/irrigator/internal/adc"
	"github.com/sweeney/irrigator/internal/config"
	"github.com/sweeney/irrigator/internal/controller"
	"github.com/sweeney/irrigator/internal/gpio"
	"github.com/sweeney/irrigator/internal/logic"
	"github.com/sweeney/irrigator/internal/metrics"
	"github.com/sweeney/irrigator/internal/mqtt"
	"github.com/sweeney/irrigator/internal/override"
	"github.com/sweeney/irrigator/internal/status"
	"github.com/sweeney/irrigator/internal/web"
)

// cliFlags holds command-line settings. Flags that are set on the command
// line win over the config file.
type cliFlags struct {
	configPath string
	tick       time.Duration
	minRun     time.Duration
	absorb     time.Duration
	dry        int
	wet        int
	emptyCM    int
	confirm    int
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	pinRelay   int
	pinTrig    int
	pinEcho    int
	printState bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*cliFlags, error) {
	def := config.Default()
	lc := def.Logic()
	fl := &cliFlags{}
	fs.StringVar(&fl.configPath, "config", config.DefaultPath, "YAML config file (built-in defaults if the default file is absent)")
	fs.DurationVar(&fl.tick, "tick", time.Duration(def.Control.TickPeriod), "Control tick period")
	fs.DurationVar(&fl.minRun, "min-run", time.Duration(def.Control.MinRunDuration), "Pump pulse length")
	fs.DurationVar(&fl.absorb, "absorb", time.Duration(def.Control.AbsorptionDuration), "Soak time after each pulse")
	fs.IntVar(&fl.dry, "dry", lc.DryThreshold, "Raw moisture above which the soil is dry")
	fs.IntVar(&fl.wet, "wet", lc.WetThreshold, "Raw moisture below which the soil is wet")
	fs.IntVar(&fl.emptyCM, "empty-cm", lc.EmptyThresholdCM, "Water distance (cm) beyond which the tank is empty")
	fs.IntVar(&fl.confirm, "confirmations", lc.LowWaterConfirmations, "Consecutive low water readings before the pump is cut")
	fs.StringVar(&fl.broker, "broker", def.MQTT.Broker, "MQTT broker address")
	fs.DurationVar(&fl.heartbeat, "heartbeat", def.HeartbeatInterval(), "Heartbeat interval (0 to disable)")
	fs.StringVar(&fl.httpAddr, "http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	fs.IntVar(&fl.pinRelay, "pin-relay", def.Hardware.RelayPin, "BCM pin number for the pump relay")
	fs.IntVar(&fl.pinTrig, "pin-trig", def.Hardware.TrigPin, "BCM pin number for the ultrasonic trigger")
	fs.IntVar(&fl.pinEcho, "pin-echo", def.Hardware.EchoPin, "BCM pin number for the ultrasonic echo")
	fs.BoolVar(&fl.printState, "print-state", false, "Print current sensor readings and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fl, nil
}

// resolveConfig loads the config file and applies the flags that were
// explicitly set. A missing file is only an error when --config names it.
func resolveConfig(fs *flag.FlagSet, fl *cliFlags) (*config.File, error) {
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg := config.Default()
	if fl.configPath != "" {
		loaded, err := config.Load(fl.configPath)
		switch {
		case err == nil:
			cfg = loaded
		case !explicit && errors.Is(err, os.ErrNotExist):
			log.Printf("config: %s not found, using defaults", fl.configPath)
		default:
			return nil, err
		}
	}

	// Applied after Load so that an explicit empty --http disables the server.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tick":
			cfg.Control.TickPeriod = config.Duration(fl.tick)
		case "min-run":
			cfg.Control.MinRunDuration = config.Duration(fl.minRun)
		case "absorb":
			cfg.Control.AbsorptionDuration = config.Duration(fl.absorb)
		case "dry":
			cfg.Control.DryThreshold = &fl.dry
		case "wet":
			cfg.Control.WetThreshold = &fl.wet
		case "empty-cm":
			cfg.Control.EmptyThresholdCM = fl.emptyCM
		case "confirmations":
			cfg.Control.LowWaterConfirmations = fl.confirm
		case "broker":
			cfg.MQTT.Broker = fl.broker
		case "heartbeat":
			hb := config.Duration(fl.heartbeat)
			cfg.Heartbeat = &hb
		case "http":
			cfg.HTTP.Addr = fl.httpAddr
		case "pin-relay":
			cfg.Hardware.RelayPin = fl.pinRelay
		case "pin-trig":
			cfg.Hardware.TrigPin = fl.pinTrig
		case "pin-echo":
			cfg.Hardware.EchoPin = fl.pinEcho
		}
	})

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	fl, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	cfg, err := resolveConfig(flag.CommandLine, fl)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, fl.printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.File, printState bool) error {
	hw := cfg.Hardware

	// Initialize hardware. The relay is requested with the pump off.
	relay, err := gpio.NewRealRelay(hw.RelayPin, *hw.RelayActiveLow)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer relay.Close()
	if err := relay.SetPump(false); err != nil {
		return fmt.Errorf("pump off at startup: %w", err)
	}

	ranger, err := gpio.NewRealRangefinder(hw.TrigPin, hw.EchoPin)
	if err != nil {
		return fmt.Errorf("init rangefinder: %w", err)
	}
	defer ranger.Close()

	moisture, err := adc.NewADS1115(hw.I2CBus, hw.ADCAddr, hw.ADCChannel)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer moisture.Close()

	// Print state mode
	if printState {
		return printReadings(cfg.Logic(), moisture, ranger)
	}

	runID := uuid.NewString()
	holder := override.NewHolder()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(cfg.MQTT.Broker, mqtt.Options{
		ClientID:   cfg.MQTT.ClientID,
		BufferSize: cfg.MQTT.BufferSize,
		OnOverride: func(payload []byte) {
			cmd, err := override.Parse(payload)
			if err != nil {
				log.Printf("mqtt override: %v", err)
				return
			}
			holder.Set(cmd, "mqtt")
		},
	})
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(runID, time.Now(), statusConfig(cfg))
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	collector := metrics.NewCollector()

	ctrl, err := controller.New(cfg.Logic(), controller.Options{
		Moisture: moisture,
		Water:    ranger,
		Pump:     relay,
		Override: holder,
		Sink: controller.Sinks{
			{Name: "status", Sink: tracker},
			{Name: "metrics", Sink: collector},
			{Name: "mqtt", Sink: publisher},
		},
	})
	if err != nil {
		return err
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if addr := cfg.HTTP.Addr; addr != "" {
		srv := web.New(addr, tracker, holder, metrics.Handler(metrics.NewRegistry(collector)))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", addr)
	}

	lc := cfg.Logic()
	log.Printf("started: run=%s tick=%v min_run=%v absorb=%v dry=%d wet=%d empty_cm=%d broker=%s heartbeat=%v",
		runID, lc.TickPeriod, lc.MinRunDuration, lc.AbsorptionDuration, lc.DryThreshold, lc.WetThreshold,
		lc.EmptyThresholdCM, cfg.MQTT.Broker, cfg.HeartbeatInterval())

	ticker := time.NewTicker(lc.TickPeriod)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sdNotify(daemon.SdNotifyReady)
	return runLoop(ctrl, publisher, publisher, tracker, cfg.HeartbeatInterval(), sdNotify, time.Now, ticker.C, sigCh)
}

// sdNotify reports state to systemd. Outside a Type=notify unit it does nothing.
func sdNotify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Printf("sd_notify %q: %v", state, err)
	}
}

// runLoop ticks the controller until a signal arrives. notify receives
// WATCHDOG=1 after every tick and STOPPING=1 on shutdown.
func runLoop(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, notify func(string), now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			notify(daemon.SdNotifyStopping)
			if err := ctrl.Stop(); err != nil {
				log.Printf("failed to stop pump: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
					tracker.SetMQTTBuffered(mqttStatus.Buffered())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			st, err := ctrl.RunOnce()
			if err != nil {
				// The next tick drives the relay again.
				log.Printf("pump error: %v", err)
			}
			notify(daemon.SdNotifyWatchdog)

			if tracker != nil {
				tracker.SetCounts(ctrl.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
					tracker.SetMQTTBuffered(mqttStatus.Buffered())
				}
			}

			// Check for heartbeat
			if hbData := ctrl.CheckHeartbeat(st.Time, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v pulses=%d safety_trips=%d manual_ticks=%d",
					hbData.Uptime, hbData.Counts.Pulses, hbData.Counts.SafetyTrips, hbData.Counts.ManualTicks)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

func printReadings(lc logic.Config, moisture controller.MoistureSensor, water controller.WaterLevelSensor) error {
	raw, err := moisture.ReadMoisture()
	if err != nil {
		return fmt.Errorf("read moisture: %w", err)
	}
	cm, err := water.ReadWaterDistance()
	if err != nil {
		return fmt.Errorf("read water level: %w", err)
	}

	mode := logic.NewHysteresis(lc.DryThreshold, lc.WetThreshold).Update(raw)
	tank := "OK"
	if cm > lc.EmptyThresholdCM {
		tank = "LOW"
	}
	fmt.Printf("Moisture: %d (%d%%, %s), Water: %d cm (%s)\n",
		raw, logic.Percent(raw, lc.DryThreshold, lc.WetThreshold), mode, cm, tank)
	return nil
}

func statusConfig(cfg *config.File) status.Config {
	lc := cfg.Logic()
	return status.Config{
		TickMs:           lc.TickPeriod.Milliseconds(),
		MinRunMs:         lc.MinRunDuration.Milliseconds(),
		AbsorptionMs:     lc.AbsorptionDuration.Milliseconds(),
		HeartbeatMs:      cfg.HeartbeatInterval().Milliseconds(),
		DryThreshold:     lc.DryThreshold,
		WetThreshold:     lc.WetThreshold,
		EmptyThresholdCM: lc.EmptyThresholdCM,
		Confirmations:    lc.LowWaterConfirmations,
		Broker:           cfg.MQTT.Broker,
		HTTPPort:         cfg.HTTP.Addr,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

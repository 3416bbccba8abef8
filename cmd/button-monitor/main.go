// Command button-monitor polls push-buttons on GPIO inputs, classifies each
// press as short or long, and publishes the outcome to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/button-monitor/internal/button"
	"github.com/sweeney/button-monitor/internal/clock"
	"github.com/sweeney/button-monitor/internal/gpio"
	"github.com/sweeney/button-monitor/internal/mqtt"
	"github.com/sweeney/button-monitor/internal/status"
	"github.com/sweeney/button-monitor/internal/web"
)

const (
	backendGPIOCDev = "gpiocdev"
	backendPeriph   = "periph"
)

type config struct {
	pins        []uint8
	poll        time.Duration
	longPress   uint16
	backend     string
	chip        string
	broker      string
	clientID    string
	heartbeat   time.Duration
	httpAddr    string
	logLevel    log.Level
	clockOffset uint32
}

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("config: %v", err)
	}
	setupLogging(cfg.logLevel)

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func parseConfig(args []string) (config, error) {
	fs := flag.NewFlagSet("button-monitor", flag.ContinueOnError)
	pins := fs.String("pins", strconv.Itoa(gpio.DefaultPin), "Comma-separated BCM pin numbers, one button each")
	poll := fs.Duration("poll", 10*time.Millisecond, "GPIO polling interval")
	longPress := fs.Uint("long-press", uint(button.DefaultLongPressTime), "Long press threshold in milliseconds (1-65535)")
	backend := fs.String("backend", backendGPIOCDev, `GPIO backend ("gpiocdev" or "periph")`)
	chip := fs.String("chip", gpio.DefaultChip, "GPIO chip for the gpiocdev backend")
	broker := fs.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	clientID := fs.String("client-id", "button-monitor", "MQTT client ID")
	heartbeat := fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", ":80", "HTTP status address (empty to disable)")
	logLevel := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	clockOffset := fs.Uint64("clock-offset", 0, "Start the millisecond clock at this value (for wraparound testing)")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	cfg := config{
		poll:      *poll,
		backend:   *backend,
		chip:      *chip,
		broker:    *broker,
		clientID:  *clientID,
		heartbeat: *heartbeat,
		httpAddr:  *httpAddr,
	}

	var err error
	if cfg.pins, err = parsePins(*pins); err != nil {
		return config{}, err
	}
	if cfg.poll <= 0 {
		return config{}, fmt.Errorf("poll interval must be positive, got %v", cfg.poll)
	}
	if *longPress < 1 || *longPress > math.MaxUint16 {
		return config{}, fmt.Errorf("long press must be 1-65535ms, got %d", *longPress)
	}
	cfg.longPress = uint16(*longPress)
	if cfg.backend != backendGPIOCDev && cfg.backend != backendPeriph {
		return config{}, fmt.Errorf("unknown backend %q", cfg.backend)
	}
	if cfg.logLevel, err = log.ParseLevel(*logLevel); err != nil {
		return config{}, fmt.Errorf("log level: %w", err)
	}
	if *clockOffset > math.MaxUint32 {
		return config{}, fmt.Errorf("clock offset %d exceeds 32 bits", *clockOffset)
	}
	cfg.clockOffset = uint32(*clockOffset)

	return cfg, nil
}

func parsePins(s string) ([]uint8, error) {
	var pins []uint8
	seen := make(map[uint8]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid pin %q: %w", f, err)
		}
		pin := uint8(n)
		if seen[pin] {
			return nil, fmt.Errorf("pin %d listed twice", pin)
		}
		seen[pin] = true
		pins = append(pins, pin)
	}
	if len(pins) == 0 {
		return nil, errors.New("no pins given")
	}
	return pins, nil
}

func setupLogging(level log.Level) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
}

// board is a button.Board backed by real hardware.
type board interface {
	button.Board
	Err() error
	Close() error
}

func openBoard(cfg config) (board, error) {
	if cfg.backend == backendPeriph {
		p, err := gpio.NewPeriph()
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	c, err := gpio.NewChip(cfg.chip)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newMonitors(b button.Board, clk button.Clock, pins []uint8, longPress uint16) []*button.Monitor {
	monitors := make([]*button.Monitor, 0, len(pins))
	for _, pin := range pins {
		m := button.New(b, clk, pin)
		m.SetLongPressTime(longPress)
		monitors = append(monitors, m)
	}
	return monitors
}

func run(cfg config) error {
	hw, err := openBoard(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	monitors := newMonitors(hw, clock.NewSystem(cfg.clockOffset), cfg.pins, cfg.longPress)
	if err := hw.Err(); err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}

	publisher, err := mqtt.NewRealPublisher(cfg.broker, cfg.clientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.poll.Milliseconds(),
		DebounceMs:  int64(button.DebounceTimeout),
		LongPressMs: int64(cfg.longPress),
		HeartbeatMs: cfg.heartbeat.Milliseconds(),
		Backend:     cfg.backend,
		Broker:      cfg.broker,
		HTTPAddr:    cfg.httpAddr,
	})
	for _, m := range monitors {
		tracker.Update(m.State())
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Errorf("failed to publish startup event: %v", err)
	} else {
		log.Info("published startup event")
	}

	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.httpAddr)
	}

	log.WithFields(log.Fields{
		"pins":       cfg.pins,
		"poll":       cfg.poll,
		"long_press": time.Duration(cfg.longPress) * time.Millisecond,
		"backend":    cfg.backend,
		"broker":     cfg.broker,
		"heartbeat":  cfg.heartbeat,
	}).Info("started")

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(monitors, publisher, publisher, tracker, cfg.heartbeat, time.Now, ticker.C, sigCh)
}

// eventQueueSize bounds how many button events may wait for the broker
// before new ones are dropped.
const eventQueueSize = 64

// attach wires a monitor's callbacks to the event queue. Callbacks run inside
// Poll, so they log and enqueue without waiting on the broker.
func attach(m *button.Monitor, q *mqtt.Queue, now func() time.Time) {
	emit := func(t button.EventType) func() {
		return func() {
			event := button.Event{Timestamp: now(), Type: t, Pin: m.Pin()}
			log.WithField("pin", event.Pin).Infof("event: %s", event.Type)
			q.Enqueue(event)
		}
	}
	m.SetShortPressFunc(emit(button.EventShortPress))
	m.SetLongPressFunc(emit(button.EventLongPress))
}

func runLoop(monitors []*button.Monitor, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	q := mqtt.NewQueue(publisher, eventQueueSize)
	defer q.Close()

	var tickTime time.Time
	for _, m := range monitors {
		attach(m, q, func() time.Time { return tickTime })
	}

	states := make([]button.Snapshot, len(monitors))

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			// Pending button events go out before the shutdown notice.
			q.Close()
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
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Errorf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case <-tick:
			tickTime = now()
			for i, m := range monitors {
				m.Poll()
				states[i] = m.State()
			}

			if tracker == nil {
				continue
			}
			tracker.Update(states...)
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if tracker.HeartbeatDue(tickTime, heartbeat) {
				snap := tracker.Snapshot()
				totals := snap.Totals()
				log.WithFields(log.Fields{
					"uptime":      snap.Uptime().Truncate(time.Second),
					"short_press": totals.ShortPress,
					"long_press":  totals.LongPress,
				}).Info("heartbeat")

				hbEvent := mqtt.SystemEvent{
					Timestamp:  tickTime,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Errorf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

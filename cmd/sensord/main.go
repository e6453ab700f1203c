// cmd/sensord/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sensorcode-go/bus"
	"sensorcode-go/services/sensor"
	"sensorcode-go/services/sensor/config"
	"sensorcode-go/transport/periphio"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		log.Error("usage: sensord <config.yaml>")
		os.Exit(2)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		log.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	if err := periphio.Init(); err != nil {
		log.Error("host init failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := bus.NewBus(32)

	var sessions []*sensor.Session
	for _, sc := range cfg.Sensors {
		conn := b.NewConnection(sc.ID)
		s, err := sensor.Open(ctx, sc.Options(), periphio.BusOpener{}, periphio.PinOpener{}, conn, log)
		if err != nil {
			log.Error("sensor open failed", "sensor", sc.ID, "err", err)
			for _, prev := range sessions {
				prev.Close()
			}
			os.Exit(1)
		}
		log.Info("sensor running", "sensor", sc.ID, "bus", sc.Bus)
		sessions = append(sessions, s)
	}

	<-ctx.Done()
	log.Info("shutting down")
	for _, s := range sessions {
		s.Close()
	}
}

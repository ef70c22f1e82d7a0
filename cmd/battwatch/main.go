package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
	"github.com/go-chi/chi"
	"github.com/rs/zerolog"

	"github.com/mvik/battwatch/internal/pkg/application"
	"github.com/mvik/battwatch/internal/pkg/application/evaluator"
	"github.com/mvik/battwatch/internal/pkg/application/sampler"
	"github.com/mvik/battwatch/internal/pkg/config"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/adc"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/connectivity"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/counter"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/mailer"
	"github.com/mvik/battwatch/internal/pkg/infrastructure/router"
)

const serviceName string = "battwatch"

func main() {
	serviceVersion := buildinfo.SourceVersion()

	ctx, logger, cleanup := o11y.Init(context.Background(), serviceName, serviceVersion)
	defer cleanup()

	cfgPath := env.GetVariableOrDefault(logger, "BATTWATCH_CONFIG", "/etc/battwatch/config.yaml")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if !cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	password := ""
	if cfg.Mail.SendMail {
		password = env.GetVariableOrDie(logger, "SMTP_PASSWORD", "smtp account password")
	}

	source, err := newSource(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up sample source")
	}
	defer source.Close()

	channels := cfg.BatteryChannels()

	mon := application.New(
		channels,
		sampler.New(source, cfg.Sampling.Count, cfg.Sampling.Delay),
		evaluator.New(channels, cfg.Cycle.HeartbeatInterval, cfg.Cycle.SubjectSeparator),
		connectivity.New(cfg.ProbeAddr(), cfg.Connectivity.Attempts, cfg.Connectivity.Interval),
		mailer.NewSMTP(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.FromName, cfg.Mail.From, password, cfg.Mail.Recipients),
		counter.NewFileStore(cfg.State.CounterFile),
		cfg.Cycle.Sleep,
		!cfg.Mail.SendMail,
	)

	servicePort := env.GetVariableOrDefault(logger, "SERVICE_PORT", "8080")
	r := router.SetupRouter(chi.NewRouter(), logger, mon.Status)
	go func() {
		if err := r.Start(servicePort); err != nil {
			logger.Error().Err(err).Msg("status endpoint stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("monitor stopped unexpectedly")
	}

	logger.Info().Msg("shutting down")
}

func newSource(cfg *config.Config) (adc.Source, error) {
	switch cfg.ADC.Kind {
	case "serial":
		return adc.NewSerial(cfg.ADC.Serial.Port, cfg.ADC.Serial.Baud), nil
	case "iio":
		return adc.NewIIO(cfg.ADC.IIO.Device), nil
	case "mock":
		return adc.NewMock(map[string]int{
			cfg.Channels.A.Input: int(12.6 * cfg.Channels.A.Calibration),
			cfg.Channels.B.Input: int(12.6 * cfg.Channels.B.Calibration),
		}), nil
	default:
		return nil, fmt.Errorf("unknown adc source kind %q", cfg.ADC.Kind)
	}
}

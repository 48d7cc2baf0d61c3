package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/matt-g-everett/keyframer/api"
	"github.com/matt-g-everett/keyframer/document"
	"github.com/matt-g-everett/keyframer/scene"
	"github.com/matt-g-everett/keyframer/stream"
)

type app struct {
	log    *zap.Logger
	config stream.Config
}

func newApp() *app {
	a := new(app)
	a.log = zap.NewNop()
	a.config = stream.DefaultConfig()
	return a
}

// before reads the configuration, if any, and prepares logging.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error
	if path := cmd.String("config"); path != "" {
		if a.config, err = stream.LoadConfig(path); err != nil {
			return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
		}
	}
	level := a.config.Logging.Level
	if cmd.IsSet("log") {
		level = cmd.String("log")
	}
	if a.log, err = newLogger(level); err != nil {
		return ctx, err
	}
	a.log.Debug("Program started", zap.Strings("args", os.Args))
	return ctx, nil
}

func (a *app) after(ctx context.Context, cmd *cli.Command) error {
	a.log.Debug("Program ended")
	a.log.Sync()
	return nil
}

func (a *app) loadItem(cmd *cli.Command, options ...scene.Option) (*scene.Item, error) {
	if cmd.NArg() != 1 {
		return nil, errors.New("exactly one timeline document expected")
	}
	path := cmd.Args().First()
	doc, err := document.Load(path)
	if err != nil {
		return nil, err
	}
	item, err := doc.Build(append([]scene.Option{scene.WithLogger(a.log)}, options...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.log.Debug("Loaded document", zap.String("path", path), zap.String("id", item.ID()), zap.Float64("duration", item.Duration()))
	return item, nil
}

func (a *app) export(ctx context.Context, cmd *cli.Command) error {
	item, err := a.loadItem(cmd)
	if err != nil {
		return err
	}
	var options []scene.ExportOption
	if cmd.IsSet("duration") {
		options = append(options, scene.ExportDuration(cmd.Float("duration")))
	}
	if cmd.IsSet("play-speed") {
		options = append(options, scene.ExportPlaySpeed(cmd.Float("play-speed")))
	}
	if cmd.IsSet("delay") {
		options = append(options, scene.ExportDelay(cmd.Float("delay")))
	}
	text := item.ToAnimationRuleText(options...)
	if text == "" {
		return scene.ErrUnboundExport
	}
	_, err = fmt.Fprintln(os.Stdout, text)
	return err
}

func (a *app) sample(ctx context.Context, cmd *cli.Command) error {
	item, err := a.loadItem(cmd)
	if err != nil {
		return err
	}
	at := cmd.Float("at")
	if cmd.Bool("timeline") {
		f, err := item.Sample(at)
		if f == nil {
			return err
		}
		if err != nil {
			a.log.Warn("Sampled with fallbacks", zap.Error(err))
		}
		_, err = fmt.Fprintln(os.Stdout, f.CSSText())
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, item.ApplyAt(at).CSSText())
	return err
}

func (a *app) newClient(streamer func() *stream.Streamer) mqtt.Client {
	options := mqtt.NewClientOptions().
		AddBroker(a.config.Mqtt.URL).
		SetClientID(a.config.Mqtt.ClientID).
		SetUsername(a.config.Mqtt.Username).
		SetPassword(a.config.Mqtt.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			a.log.Info("Connected", zap.String("broker", a.config.Mqtt.URL))
			if err := streamer().Subscribe(); err != nil {
				a.log.Error("Unable to subscribe", zap.Error(err))
			}
		})
	return mqtt.NewClient(options)
}

func (a *app) stream(ctx context.Context, cmd *cli.Command) (err error) {
	mqtt.ERROR = zap.NewStdLog(a.log.Named("paho"))

	sheet := api.NewSheet()
	hub := api.NewHub(a.log)
	item, err := a.loadItem(cmd, scene.WithRegistry(sheet))
	if err != nil {
		return err
	}

	targets := []scene.Target{hub}
	var (
		client   mqtt.Client
		streamer *stream.Streamer
	)
	if a.config.Mqtt.URL != "" {
		client = a.newClient(func() *stream.Streamer { return streamer })
		targets = append(targets, stream.NewTarget(a.config, client, a.log))
		streamer = stream.NewStreamer(a.config, client, item, a.log)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("unable to connect to %s: %w", a.config.Mqtt.URL, token.Error())
		}
		defer client.Disconnect(250)
	} else {
		streamer = stream.NewStreamer(a.config, nil, item, a.log)
	}
	if err := item.Bind(targets...); err != nil {
		return err
	}
	item.ExportText()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	served := make(chan error, 1)
	srv := api.NewApi(a.config.Http.Listen, a.config.Http.Static, sheet, hub, a.log)
	go func() { served <- srv.Serve(ctx) }()

	played := make(chan error, 1)
	go func() { played <- streamer.Run(ctx) }()

	select {
	case err = <-played:
		if ctx.Err() == nil {
			a.log.Info("Animation finished, serving until interrupted")
		}
		select {
		case <-ctx.Done():
		case serr := <-served:
			return multierr.Append(err, serr)
		}
	case serr := <-served:
		cancel()
		return multierr.Append(serr, <-played)
	}
	cancel()
	return multierr.Append(err, <-served)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	cmd := &cli.Command{
		Name:            "keyframer",
		Usage:           "plays declarative keyframe timelines and exports them as CSS animations",
		HideHelpCommand: true,
		Before:          a.before,
		After:           a.after,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.StringFlag{Name: "log", Usage: "logging `LEVEL` (none, normal, debug)"},
		},
		Commands: []*cli.Command{
			{
				Name:      "export",
				Usage:     "Prints the CSS animation rule and keyframes of a timeline document",
				ArgsUsage: "DOCUMENT",
				Action:    a.export,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "duration", Usage: "animation duration in timeline units"},
					&cli.FloatFlag{Name: "play-speed", Usage: "parent play speed"},
					&cli.FloatFlag{Name: "delay", Usage: "parent delay in timeline units"},
				},
			},
			{
				Name:      "sample",
				Usage:     "Prints the CSS text applied at a given time",
				ArgsUsage: "DOCUMENT",
				Action:    a.sample,
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "at", Required: true, Usage: "raw `TIME` in timeline units"},
					&cli.BoolFlag{Name: "timeline", Usage: "sample timeline time, ignoring playback options"},
				},
			},
			{
				Name:      "stream",
				Usage:     "Plays a timeline document over MQTT and websockets, serving the exported sheet",
				ArgsUsage: "DOCUMENT",
				Action:    a.stream,
			},
		},
	}

	err := cmd.Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		os.Exit(1)
	}
}

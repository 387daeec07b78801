package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"dayplan/src-server/handler"
	"dayplan/src-server/metric"
	"dayplan/src-server/route"
	"dayplan/src-server/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/automaxprocs/maxprocs"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      utils.ParseLogLevel(os.Getenv("LOG_LEVEL")),
			TimeFormat: time.RFC1123Z,
		}),
	))
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		slog.Warn("can't set GOMAXPROCS", "error", err)
	}
}

func main() {
	as := utils.NewAppState()

	if err := as.CreateSchema(context.Background()); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}

	// notification permission + reminder channel
	if granted, err := as.Scheduler.Setup(context.Background()); err != nil {
		slog.Error("can't set up notifications", "error", err)
	} else if !granted {
		slog.Warn("notifications are disabled, reminders will be rejected")
	}

	stopDispatcher, err := as.Dispatcher.Start(as.Config.GetDispatchSpec())
	if err != nil {
		slog.Error("can't start reminder dispatcher", "spec", as.Config.GetDispatchSpec(), "error", err)
		os.Exit(1)
	}

	if as.DgSession != nil {
		startDiscord(as)
		defer as.DgSession.Close()
	}

	go metric.Init(as)

	// http server
	muxer := http.NewServeMux()
	muxer.Handle("GET /metrics", promhttp.Handler())
	route.Events(muxer, as)
	route.Reminders(muxer, as)
	route.Debug(muxer, as)
	server := &http.Server{
		Addr:              ":" + as.Config.GetPort(),
		Handler:           muxer,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	slog.Info("app is now running, press Ctrl+C to exit", "port", as.Config.GetPort())

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	slog.Info("Gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("can't shut down HTTP server", "error", err)
	}
	stopDispatcher()
	as.GracefulShutdown()
}

// startDiscord registers the slash commands and opens the gateway. Failures
// only disable Discord; the HTTP API keeps running.
func startDiscord(as *utils.AppState) {
	// injecting interaction handlers into appCmdInfo, appCmdHandler in AppState
	handler.Ping(as)
	handler.Events(as)

	// tell discordgo how to handle interactions from Discord (w/ appCmdHandler)
	as.DgSession.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			slog.Debug("unhandled interaction type", "type", i.Type)
			return
		}
		name := i.ApplicationCommandData().Name
		if handler, ok := as.GetAppCmdHandler(name); ok {
			if err := handler(s, i); err != nil {
				slog.Error("handler error", "command", name, "error", err.Error())
			}
			return
		}
		if err := utils.InteractRespHiddenReply(s, i, "Unknown command"); err != nil {
			slog.Warn("can't respond", "error", err.Error())
		}
	})

	// open a connection to Discord
	if err := as.DgSession.Open(); err != nil {
		slog.Error("can't open discord connection", "error", err)
		return
	}

	// tell Discord what commands we have (w/ appCmdInfo)
	if _, err := as.DgSession.ApplicationCommandBulkOverwrite(
		as.DgSession.State.User.ID,
		"",
		func() []*discordgo.ApplicationCommand {
			var cmds []*discordgo.ApplicationCommand
			as.IterateAppCmdInfo(func(k string, v *discordgo.ApplicationCommand) {
				cmds = append(cmds, v)
			})
			return cmds
		}()); err != nil {
		slog.Error("can't create slash commands", "error", err.Error())
	}

	// cleanup appCmdInfo from memory
	as.NukeAppCmdInfo()
	runtime.GC()

	slog.Info("number of guilds", "guilds", len(as.DgSession.State.Guilds))
}

package utils

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"time"

	"dayplan/src-server/kv"
	"dayplan/src-server/model"
	"dayplan/src-server/notifier"
	"dayplan/src-server/reminder"
	"dayplan/src-server/store"
	"dayplan/src-server/timeutil"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/bwmarrin/discordgo"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type AppCmdHandlerFunc func(s *discordgo.Session, i *discordgo.InteractionCreate) error

type AppState struct {
	Config    *Config
	RawDB     *sql.DB
	BunDB     *bun.DB
	DgSession *discordgo.Session
	Natural   *timeutil.NaturalParser
	Clock     timeutil.Clock

	Storage    kv.Storage
	EventStore *store.EventStore
	Aggregator *store.Aggregator
	Local      *notifier.Local
	Scheduler  *reminder.Scheduler
	Dispatcher *notifier.Dispatcher

	MetricChans *Metric

	AppCloseSignalChan chan os.Signal

	startTime time.Time

	mu sync.RWMutex
	// will be send to Discord
	appCmdInfo map[string]*discordgo.ApplicationCommand
	// handling commands from Discord WSAPI
	appCmdHandler map[string]AppCmdHandlerFunc

	shutdownChans []chan struct{}
}

// NewAppState reads the env, opens the database and connects the optional
// Discord and SNS delivery. Any failure here is fatal.
func NewAppState() *AppState {
	config := NewConfig()

	rawDB, err := sql.Open(sqliteshim.ShimName, config.GetDatabasePath()+"?mode=rwc")
	if err != nil {
		slog.Error("cannot open sqlite database", "error", err)
		os.Exit(1)
	}
	rawDB.SetMaxIdleConns(8)

	sinks := []notifier.Sink{notifier.LogSink{}}

	var dgSession *discordgo.Session
	if token := config.GetDiscordAppToken(); token != "" {
		dgSession, err = discordgo.New("Bot " + token)
		if err != nil {
			slog.Error("can't create discord session", "error", err)
			os.Exit(1)
		}
		if channelID := config.GetDiscordChannelID(); channelID != "" {
			sinks = append(sinks, notifier.NewDiscordSink(dgSession, channelID))
		} else {
			slog.Warn("DISCORD_CHANNEL_ID is not set, reminders won't be posted to Discord")
		}
	}

	if topicARN := config.GetSNSTopicARN(); topicARN != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			slog.Error("can't load aws config", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, notifier.NewSNSSink(sns.NewFromConfig(awsCfg), topicARN))
	}

	as := NewAppStateFromDB(config, rawDB, timeutil.SystemClock{}, sinks...)
	as.DgSession = dgSession
	as.BunDB.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithVerbose(true),
		bundebug.FromEnv("BUNDEBUG"),
	))
	return as
}

// NewAppStateFromDB wires every component on top of an already opened
// database. The schema is not created here.
func NewAppStateFromDB(config *Config, rawDB *sql.DB, clock timeutil.Clock, sinks ...notifier.Sink) *AppState {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	as := &AppState{
		Config:             config,
		RawDB:              rawDB,
		BunDB:              bun.NewDB(rawDB, sqlitedialect.New()),
		Natural:            timeutil.NewNaturalParser(),
		Clock:              clock,
		MetricChans:        NewMetric(),
		AppCloseSignalChan: make(chan os.Signal, 1),
		startTime:          time.Now(),
		appCmdInfo:         make(map[string]*discordgo.ApplicationCommand),
		appCmdHandler:      make(map[string]AppCmdHandlerFunc),
	}

	storage := kv.NewBun(as.BunDB)
	storage.OnRead = func(d time.Duration) {
		Offer(as.MetricChans.StorageRead, float64(d.Microseconds()))
	}
	storage.OnWrite = func(d time.Duration) {
		Offer(as.MetricChans.StorageWrite, float64(d.Microseconds()))
	}
	as.Storage = storage

	var storeOpts []store.Option
	if config.GetSerializeWrites() {
		storeOpts = append(storeOpts, store.WithSerializedWrites())
	}
	as.EventStore = store.NewEventStore(as.Storage, storeOpts...)
	as.Aggregator = store.NewAggregator(as.Storage, store.WithZone(config.GetLocation()))

	as.Local = notifier.NewLocal(as.BunDB, config.GetNotificationsEnabled(), clock)
	channel := reminder.DefaultChannel
	channel.ID = config.GetReminderChannelID()
	as.Scheduler = reminder.NewScheduler(as.Local,
		reminder.WithClock(clock),
		reminder.WithMinLead(config.GetReminderMinLead()),
		reminder.WithChannel(channel),
		reminder.WithResultHook(func(r reminder.Result) {
			Offer(as.MetricChans.ReminderResult, string(r.Status))
		}),
	)

	as.Dispatcher = notifier.NewDispatcher(as.Local, clock, sinks...)
	as.Dispatcher.OnSend = func(d time.Duration) {
		Offer(as.MetricChans.NotificationSend, float64(d.Microseconds()))
	}
	return as
}

func (as *AppState) CreateSchema(ctx context.Context) error {
	return model.CreateSchema(ctx, as.BunDB)
}

func (as *AppState) GetUptime() time.Duration {
	return time.Since(as.startTime).Round(time.Second)
}

func (as *AppState) AddAppCmdInfo(id string, info *discordgo.ApplicationCommand) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdInfo[id] = info
}

func (as *AppState) IterateAppCmdInfo(fn func(k string, v *discordgo.ApplicationCommand)) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for k, v := range as.appCmdInfo {
		fn(k, v)
	}
}

// NukeAppCmdInfo drops the command definitions once Discord has them.
func (as *AppState) NukeAppCmdInfo() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdInfo = make(map[string]*discordgo.ApplicationCommand)
}

func (as *AppState) AddAppCmdHandler(id string, handler AppCmdHandlerFunc) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.appCmdHandler[id] = handler
}

func (as *AppState) GetAppCmdHandler(id string) (AppCmdHandlerFunc, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	handler, ok := as.appCmdHandler[id]
	return handler, ok
}

// CreateGracefulShutdownChan returns a chan that is closed by GracefulShutdown.
func (as *AppState) CreateGracefulShutdownChan() *chan struct{} {
	as.mu.Lock()
	defer as.mu.Unlock()
	ch := make(chan struct{})
	as.shutdownChans = append(as.shutdownChans, ch)
	return &ch
}

func (as *AppState) GracefulShutdown() {
	as.mu.Lock()
	chans := as.shutdownChans
	as.shutdownChans = nil
	as.mu.Unlock()
	for _, ch := range chans {
		close(ch)
	}
	if err := as.BunDB.Close(); err != nil {
		slog.Warn("can't close database", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"groupkeeper/internal/bot"
	"groupkeeper/internal/config"
	"groupkeeper/internal/modules/audit"
	"groupkeeper/internal/storage"
	"groupkeeper/internal/supervisor"
	"groupkeeper/internal/transport/whatsapp"
	"groupkeeper/internal/updater"

	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := config.BuildLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("storage init failed", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer docs.Close()

	var (
		auditSink  audit.Sink
		auditStore bot.AuditStore
	)
	if store, ok := docs.(*storage.Store); ok {
		auditSink = store
		auditStore = store
	}
	auditLogger := audit.NewLogger(auditSink, logger.Named("audit"))

	container, err := sqlstore.New(ctx, "sqlite", "file:"+cfg.SessionPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)", whatsapp.NewLogger(logger, "session"))
	if err != nil {
		logger.Fatal("session store init failed", zap.Error(err))
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		logger.Fatal("session device load failed", zap.Error(err))
	}

	wa := whatsmeow.NewClient(device, whatsapp.NewLogger(logger, "client"))
	wa.EnableAutoReconnect = false
	facade := whatsapp.New(wa)

	exitCh := make(chan int, 1)
	botSvc, err := bot.New(bot.Options{
		Config:     cfg,
		Logger:     logger,
		Transport:  facade,
		Documents:  docs,
		Audit:      auditLogger,
		AuditStore: auditStore,
		Updater: updater.New(updater.Config{
			URL:     cfg.Update.URL,
			Path:    cfg.Update.Path,
			Timeout: time.Duration(cfg.Update.TimeoutSeconds) * time.Second,
		}, logger.Named("updater")),
		Exit: func(code int) {
			select {
			case exitCh <- code:
			default:
			}
		},
		SelfID: func() string {
			if wa.Store == nil || wa.Store.ID == nil {
				return ""
			}
			return wa.Store.ID.ToNonAD().String()
		},
	})
	if err != nil {
		logger.Fatal("bot init failed", zap.Error(err))
	}
	if err := botSvc.Load(ctx); err != nil {
		logger.Fatal("state load failed", zap.Error(err))
	}

	super := supervisor.New(wa, time.Duration(cfg.Reconnect.DelaySeconds)*time.Second, logger.Named("supervisor"))
	super.OnLogout(func(reason string) {
		auditLogger.Log(ctx, audit.LevelCrit, "", "", "logged_out", reason)
	})
	wa.AddEventHandler(botSvc.HandleEvent)
	wa.AddEventHandler(super.HandleEvent)

	botSvc.Start(ctx)
	if err := connect(ctx, wa, logger); err != nil {
		if wa.Store.ID == nil {
			logger.Fatal("pairing failed", zap.Error(err))
		}
		logger.Error("initial connect failed", zap.Error(err))
		super.Schedule("initial connect")
	}
	logger.Info("bot started", zap.Int("allowed_groups", len(cfg.AllowedGroups)), zap.String("storage", cfg.Storage.Backend))

	var server *http.Server
	if cfg.Health.Enabled {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if !facade.IsConnected() {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("disconnected"))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		server = &http.Server{Addr: cfg.Health.Addr, Handler: mux}
		go func() {
			logger.Info("health endpoint enabled", zap.String("addr", cfg.Health.Addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", zap.Error(err))
			}
		}()
	}

	exitCode := 0
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown requested")
	case exitCode = <-exitCh:
		logger.Info("restart requested")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	super.Stop()
	if server != nil {
		_ = server.Shutdown(shutdownCtx)
	}
	cancel()
	botSvc.Close(shutdownCtx)
	wa.Disconnect()

	if exitCode != 0 {
		_ = logger.Sync()
		os.Exit(exitCode)
	}
}

// connect opens the connection, pairing through a terminal QR code when no
// session is stored yet.
func connect(ctx context.Context, wa *whatsmeow.Client, logger *zap.Logger) error {
	if wa.Store.ID != nil {
		return wa.Connect()
	}

	qrChan, err := wa.GetQRChannel(ctx)
	if err != nil {
		return err
	}
	if err := wa.Connect(); err != nil {
		return err
	}
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			logger.Info("scan the QR code to link this device")
			qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
		case "success":
			logger.Info("device linked")
			return nil
		case "timeout":
			return errors.New("pairing timed out")
		default:
			logger.Warn("pairing event", zap.String("event", evt.Event), zap.Error(evt.Error))
		}
	}
	return errors.New("pairing channel closed")
}

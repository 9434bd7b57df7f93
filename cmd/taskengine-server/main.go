package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orgsuite/taskengine/internal"
	"github.com/orgsuite/taskengine/internal/activitylog"
	activitylogrepo "github.com/orgsuite/taskengine/internal/activitylog/repositoryimpl"
	"github.com/orgsuite/taskengine/internal/attachment"
	"github.com/orgsuite/taskengine/internal/config"
	directoryrepo "github.com/orgsuite/taskengine/internal/directory/repositoryimpl"
	"github.com/orgsuite/taskengine/internal/eventbus"
	"github.com/orgsuite/taskengine/internal/notification"
	"github.com/orgsuite/taskengine/internal/pushsubscription"
	pushsubscriptionrepo "github.com/orgsuite/taskengine/internal/pushsubscription/repositoryimpl"
	"github.com/orgsuite/taskengine/internal/task"
	taskrepo "github.com/orgsuite/taskengine/internal/task/repositoryimpl"
	"github.com/orgsuite/taskengine/pkg/clog"
	"github.com/orgsuite/taskengine/pkg/panicerr"
	"github.com/orgsuite/taskengine/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	setupLogger(env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStorage(ctx, config.StorageEnvFromEnv(env))
	if err != nil {
		return err
	}

	bus := eventbus.New()

	taskRepository := taskrepo.NewYAMLRepository(store)
	directoryRepository := directoryrepo.NewYAMLRepository(store)
	activityRepository := activitylogrepo.NewYAMLRepository(store)
	pushRepository := pushsubscriptionrepo.NewYAMLRepository(store)

	taskService := task.NewService(taskRepository, directoryRepository, bus, activityRepository)

	dispatcher := notification.NewDispatcher(bus, taskRepository, directoryRepository, newSink(env, pushRepository))
	go dispatcher.Start(ctx)

	startFileWatcher(ctx, store, taskRepository, bus)

	server := internal.NewServer(
		env,
		task.NewServer(taskService),
		attachment.NewServer(attachment.NewStorageGateway(store)),
		activitylog.NewServer(activityRepository),
		pushsubscription.NewServer(pushRepository),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- panicerr.Safe(func() error {
			return server.ListenAndServe(ctx)
		})()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown incomplete", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func setupLogger(env *config.Env) {
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewHTTPTextHandler(os.Stdout, clog.WithLevel(env.SlogLevel()))
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: env.SlogLevel()})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

func newStorage(ctx context.Context, env *config.StorageEnv) (storage.Storage, error) {
	switch env.Type {
	case "s3":
		return storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
	default:
		return storage.NewLocalStorage(env.BaseDir)
	}
}

func newSink(env *config.Env, pushRepository pushsubscription.Repository) notification.Sink {
	sender := notification.NewWebPushSender(config.VAPIDEnvFromEnv(env), pushRepository)
	if !sender.Configured() {
		slog.Info("web push not configured, notifications are logged only")
		return notification.LogSink{}
	}
	return sender
}

// startFileWatcher watches the task directory for out-of-band edits so that
// watch streams stay live when files are changed directly on disk. Only
// meaningful for local storage.
func startFileWatcher(ctx context.Context, store storage.Storage, repo task.Repository, bus *eventbus.Bus) {
	local, ok := store.(*storage.LocalStorage)
	if !ok {
		return
	}
	watcher := task.NewFileWatcher(repo, bus, local.BaseDir())
	go func() {
		err := panicerr.SafeContext(watcher.Start)(ctx)
		if err != nil {
			slog.Warn("file watcher stopped", "error", err)
		}
	}()
}

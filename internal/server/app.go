// Package server wires the configured content store, registry, cipher and
// journal into a resource coordinator and serves it over gRPC until the
// process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shackstack/shackstack/internal/contentstore"
	"github.com/shackstack/shackstack/internal/cryptox"
	"github.com/shackstack/shackstack/internal/filex"
	"github.com/shackstack/shackstack/internal/journal"
	"github.com/shackstack/shackstack/internal/logging"
	"github.com/shackstack/shackstack/internal/registry"
	"github.com/shackstack/shackstack/internal/resources"
	"github.com/shackstack/shackstack/internal/server/config"

	gs "github.com/shackstack/shackstack/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	coordinator *resources.Coordinator
	closers     []io.Closer
}

// Seams for tests.
var (
	openJournal  = journal.Open
	dialRegistry = func(ctx context.Context, c *config.Config) (registry.Registry, io.Closer, error) {
		r, err := registry.DialEthereum(ctx, c.EthRPCURL, ethcommon.HexToAddress(c.RegistryAddress), c.OwnerKeys, c.PollInterval)
		if err != nil {
			return nil, nil, err
		}
		return r, r, nil
	}
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	app := &App{config: c, logger: logger}

	cipher, err := app.buildCipher(ctx)
	if err != nil {
		return nil, err
	}

	store, err := app.buildStore(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("content store init error: %w", err)
	}

	reg, err := app.buildRegistry(ctx)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("registry init error: %w", err)
	}

	opts := []resources.Option{
		resources.WithLogger(logger),
		resources.WithConfirmTimeout(c.ConfirmTimeout),
		resources.WithPinOnCreate(c.PinOnCreate),
	}
	if c.JournalDSN != "" {
		db, err := openJournal(ctx, c.JournalDSN)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("journal init error: %w", err)
		}
		app.closers = append(app.closers, db)
		opts = append(opts, resources.WithJournal(journal.NewPostgresJournal(db)))
	}

	app.coordinator = resources.New(cipher, store, reg, opts...)
	return app, nil
}

// buildCipher prefers an explicit key, then a passphrase. With neither it
// generates a key that lives only as long as this process.
func (app *App) buildCipher(ctx context.Context) (*cryptox.Cipher, error) {
	c := app.config
	switch {
	case c.EncryptionKey != "":
		cipher, err := cryptox.CipherFromBase64(c.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		return cipher, nil
	case c.KeyPassphrase != "":
		key := cryptox.DeriveKey([]byte(c.KeyPassphrase), []byte(c.KeySalt))
		defer cryptox.Wipe(key)
		return cryptox.NewCipher(key)
	default:
		app.logger.Warn(ctx, "no encryption key configured, generated an ephemeral one; encrypted resources will be unreadable after restart")
		return cryptox.GenerateCipher()
	}
}

func (app *App) buildStore(ctx context.Context) (contentstore.Store, error) {
	c := app.config
	switch c.ContentStore {
	case config.StoreIPFS:
		return contentstore.NewIPFSStore(c.IPFSHost), nil
	case config.StoreS3:
		client, err := contentstore.NewS3Client(ctx, contentstore.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return contentstore.NewS3Store(client, c.S3Bucket, c.S3Compress)
	case config.StoreLocal:
		dir, err := filex.EnsureDir(c.LocalStorePath)
		if err != nil {
			return nil, err
		}
		s, err := contentstore.OpenLocalStore(dir)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, s)
		app.logger.Info(ctx, "local content store opened", "path", dir)
		return s, nil
	case config.StoreMemory:
		app.logger.Warn(ctx, "using in-memory content store; content is lost on exit")
		return contentstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown content store %q", c.ContentStore)
	}
}

func (app *App) buildRegistry(ctx context.Context) (registry.Registry, error) {
	switch app.config.Registry {
	case config.RegistryEthereum:
		r, closer, err := dialRegistry(ctx, app.config)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, closer)
		return r, nil
	case config.RegistryMemory:
		app.logger.Warn(ctx, "using in-memory registry; registrations are lost on exit")
		return registry.NewMemoryRegistry(), nil
	default:
		return nil, fmt.Errorf("unknown registry %q", app.config.Registry)
	}
}

// Close releases backends in reverse order of creation.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.coordinator, app.config.SecretKey)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "content_store", app.config.ContentStore, "registry", app.config.Registry)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(ctx, "close error", "error", err)
	}
}

// Package cli is an interactive shell over the shackstack gRPC service.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shackstack/shackstack/internal/client/client"
	"github.com/shackstack/shackstack/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Service is the remote API the shell drives. *client.GRPCClient
// implements it.
type Service interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, data any, owner string, encrypt bool) (map[string]any, error)
	Read(ctx context.Context, cid string, decrypt bool) (any, error)
	UpdateStatus(ctx context.Context, cid string, isAvailable bool, owner string) error
	Status(ctx context.Context, cid string) (map[string]any, error)
	List(ctx context.Context) ([]any, error)
	Register(ctx context.Context, cid, owner string, encrypted bool) (map[string]any, error)
	ListOrphans(ctx context.Context) ([]any, error)
	SetAccessToken(token string)
	Close() error
}

type App struct {
	config *config.Config
	svc    Service
	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	svc, err := client.NewGRPCClient(c.ServerEndpointAddr, c.AccessToken)
	if err != nil {
		return nil, err
	}
	return newApp(c, svc, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, svc Service, in io.Reader, out io.Writer) *App {
	return &App{config: c, svc: svc, reader: bufio.NewReader(in), out: out, mode: ModeOffline}
}

func (a *App) Run(ctx context.Context) {
	defer a.svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	fmt.Fprintln(a.out, "shackstack CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return string(a.mode)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = mode
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.svc.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// callCtx bounds one remote call by the configured request timeout.
func (a *App) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

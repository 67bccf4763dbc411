package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"

	"kllc.dev/kllc/internal/channel"
	"kllc.dev/kllc/internal/config"
	"kllc.dev/kllc/internal/engine"
	"kllc.dev/kllc/internal/git"
	"kllc.dev/kllc/internal/metrics"
	"kllc.dev/kllc/internal/store"
	"kllc.dev/kllc/internal/tui"
)

// Context holds the dependencies shared by commands
type Context struct {
	Config   *config.Config
	Splog    *tui.Splog
	RepoRoot string
	Git      *git.Client
	Store    store.Store
	Engine   *engine.Engine
	Channel  *channel.Channel
	Metrics  *metrics.Metrics

	stopOnce sync.Once
	stop     func()
}

// GetContext builds a context for the working copy containing dir. Console
// output goes to out.
func GetContext(ctx context.Context, dir string, out io.Writer) (*Context, error) {
	repoRoot, err := git.GetRepoRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	cfg, err := config.Load(repoRoot)
	if err != nil {
		return nil, err
	}

	client, err := git.NewClient(repoRoot, git.WithRemote(cfg.Remote))
	if err != nil {
		return nil, err
	}
	gitDir, err := client.GitCommonDir(ctx)
	if err != nil {
		return nil, err
	}

	splog, err := tui.NewSplogWithConfig(tui.GetLogFilePath(cfg.Log.File, gitDir), out)
	if err != nil {
		return nil, err
	}
	logger := splog.Logger()

	st, err := store.Open(store.Options{
		Backend:       cfg.Store.Backend,
		Path:          cfg.Store.Path,
		GitDir:        gitDir,
		RedisAddr:     cfg.Store.Redis.Addr,
		RedisPassword: cfg.Store.Redis.Password,
		RedisDB:       cfg.Store.Redis.DB,
		RedisPrefix:   cfg.Store.Redis.Prefix,
	}, client)
	if err != nil {
		_ = splog.Close()
		return nil, err
	}
	if rs, ok := st.(*store.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			_ = splog.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
	}

	m := metrics.New()
	eng := engine.New(metrics.InstrumentVCS(client, m), st,
		engine.WithLogger(logger.With("component", "engine")),
		engine.WithBaseBranch(cfg.BaseBranch),
	)
	ch := channel.New(eng,
		channel.WithLogger(logger.With("component", "channel")),
		channel.WithQueueSize(cfg.Channel.QueueSize),
		channel.WithObserver(func(command channel.Command, outcome string) {
			m.ObserveIntent(string(command), outcome)
		}),
	)

	logger.Debug("runtime ready", "repo", repoRoot, "store", cfg.Store.Backend, "remote", cfg.Remote)

	return &Context{
		Config:   cfg,
		Splog:    splog,
		RepoRoot: repoRoot,
		Git:      client,
		Store:    st,
		Engine:   eng,
		Channel:  ch,
		Metrics:  m,
	}, nil
}

// Start runs the channel worker until ctx is cancelled or Close is called
func (c *Context) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Channel.Run(runCtx)
	}()
	c.stop = func() {
		cancel()
		<-done
	}
}

// Dispatch submits one intent and returns its replies
func (c *Context) Dispatch(ctx context.Context, command channel.Command, payload any) ([]channel.Message, error) {
	msg, err := channel.NewMessage(command, payload)
	if err != nil {
		return nil, err
	}
	return c.Channel.Submit(ctx, msg)
}

// Close stops the worker and releases the store and log file
func (c *Context) Close() error {
	c.stopOnce.Do(func() {
		if c.stop != nil {
			c.stop()
		}
	})
	if closer, ok := c.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	return c.Splog.Close()
}

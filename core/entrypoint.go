package core

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"path"

	"github.com/encodeous/gospf/topo"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// ServeDebug exposes expvar and the metric dashboard on addr
func ServeDebug(addr string) {
	go func() {
		log.Println(http.ListenAndServe(addr, nil))
	}()
}

// NewLogger builds the console logger, fanned out to logPath when set
func NewLogger(level slog.Level, prefix, logPath string) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        level,
			AddSource:    false,
			CustomPrefix: prefix,
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// Start loads a topology file, starts an agent on every router node,
// advertises the configured external routes and populates every routing
// table.
func Start(topoPath, logPath string, level slog.Level) (*RouteManager, *topo.Network, error) {
	f, n, err := topo.Load(topoPath)
	if err != nil {
		return nil, nil, err
	}
	if logPath == "" {
		logPath = f.Routing.LogPath
	}
	logger, err := NewLogger(level, "gospf", logPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := NewFromFile(f, n, logger)
	if err != nil {
		return nil, nil, err
	}
	return m, n, nil
}

// NewFromFile wires a route manager onto an already built topology
func NewFromFile(f *topo.File, n *topo.Network, logger *slog.Logger) (*RouteManager, error) {
	m := NewRouteManager(n, f.Routing, logger)
	for _, nc := range f.Routers() {
		if _, err := m.AddRouter(nc.Name); err != nil {
			return nil, err
		}
		for _, p := range nc.Inject {
			if err := m.InjectRoute(nc.Name, p); err != nil {
				return nil, err
			}
		}
	}
	if err := m.PopulateRoutingTables(); err != nil {
		return nil, err
	}
	m.Watch(n)
	logger.Info("global routing started", "routers", len(m.agents), "lsas", m.db.Len())
	if f.Routing.RandomEcmp {
		logger.Debug("ecmp randomization enabled", "seed", f.Routing.EcmpSeed)
	}
	return m, nil
}

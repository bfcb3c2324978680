// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/logging"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/recipe"
	"github.com/millwork-dev/millwork/pkg/serializer"
	"github.com/millwork-dev/millwork/pkg/server"
	"github.com/millwork-dev/millwork/pkg/store"
	"github.com/millwork-dev/millwork/pkg/world"
)

const (
	name           = "millworkd"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags to reflect actual version info
	// e.g., -X "github.com/millwork-dev/millwork/pkg/api.version=1.0.0"
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Serve configures logging, reads the configuration from the environment and
// runs the daemon until SIGINT or SIGTERM.
func Serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.SetDefaultStructuredLogger(name, version)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
	)

	cfg, err := ConfigFromEnv()
	if err != nil {
		return err
	}

	if err := Run(ctx, cfg, nil); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}

// Run builds the world described by cfg and serves it until ctx is done.
// When ln is nil the server listens on its configured address. Machine
// snapshots are saved periodically and once more on shutdown.
func Run(ctx context.Context, cfg *Config, ln net.Listener) error {
	reg, err := loadRegistry(ctx, cfg.Catalog)
	if err != nil {
		return err
	}

	var st store.Store
	if cfg.StateDir != "" {
		if st, err = store.Open(cfg.StateDir); err != nil {
			return err
		}
	}

	w := world.New(world.WithSupply(cfg.Supply))
	for _, id := range cfg.Machines {
		m, err := newMachine(ctx, reg, st, id, cfg.Progress)
		if err != nil {
			return err
		}
		if err := w.Add(m); err != nil {
			return err
		}
	}

	api := &server.API{World: w, Registry: reg}
	s := server.New(
		server.WithName(name),
		server.WithVersion(version),
		server.WithHandler(api.Handlers()),
	)

	if ln == nil {
		if ln, err = net.Listen("tcp", s.Addr()); err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.Tick)
	})
	if st != nil {
		g.Go(func() error {
			wait.UntilWithContext(gctx, func(ctx context.Context) {
				saveAll(ctx, w, st)
			}, cfg.SnapshotInterval)
			return nil
		})
	}
	g.Go(func() error {
		return s.Serve(gctx, ln)
	})

	notify(daemon.SdNotifyReady)
	err = g.Wait()
	notify(daemon.SdNotifyStopping)

	if st != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), defaults.ConfigMapWriteTimeout)
		saveAll(saveCtx, w, st)
		cancel()
	}
	return err
}

func loadRegistry(ctx context.Context, path string) (*recipe.Registry, error) {
	tags := item.NewCatalog()
	reg := recipe.NewRegistry(recipe.WithTags(tags))
	if path == "" {
		slog.Warn("no recipe catalog configured, machines only consume input", "env", EnvCatalog)
		return reg, nil
	}

	rc, err := serializer.Open(ctx, path, serializer.WithUserAgent(name+"/"+version))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, "failed to open recipe catalog", err)
	}
	defer rc.Close()

	if _, err := recipe.LoadCatalog(rc, reg, tags); err != nil {
		return nil, err
	}
	return reg, nil
}

// newMachine creates machine id and restores its snapshot when the store has one.
func newMachine(ctx context.Context, reg *recipe.Registry, st store.Store, id string, progress machine.ProgressPolicy) (*machine.Machine, error) {
	cfg := machine.DefaultConfig()
	cfg.Progress = progress
	m, err := machine.New(reg, machine.WithID(id), machine.WithConfig(cfg))
	if err != nil {
		return nil, err
	}
	if st == nil {
		return m, nil
	}

	snap, err := st.Load(ctx, id)
	switch {
	case errors.HasCode(err, errors.ErrCodeNotFound):
		return m, nil
	case err != nil:
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to load machine snapshot", err,
			map[string]any{"machine": id})
	}
	if err := m.Restore(snap); err != nil {
		return nil, err
	}
	attrs := []any{"machine", id, "progress", m.Progress(), "policy", progress}
	if ts, ok := snap.Timestamp(); ok {
		attrs = append(attrs, "age", time.Since(ts).Round(time.Second))
	}
	slog.Info("machine restored", attrs...)
	return m, nil
}

// saveAll persists every machine. Failures are logged and do not stop the others.
func saveAll(ctx context.Context, w *world.World, st store.Store) {
	saved := 0
	for _, m := range w.Machines() {
		if err := st.Save(ctx, m.Snapshot(version)); err != nil {
			slog.Error("failed to save machine snapshot", "machine", m.ID(), "error", err)
			continue
		}
		saved++
	}
	slog.Debug("machine snapshots saved", "saved", saved, "ticks", w.Ticks())
}

func notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		slog.Warn("failed to notify service manager", "state", state, "error", err)
	}
}

// Copyright 2025 StreamForge, Inc.
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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/streamforge/topologyuploader/config"
	"github.com/streamforge/topologyuploader/ledger"
	"github.com/streamforge/topologyuploader/metrics"
	"github.com/streamforge/topologyuploader/uploader"
	"go.uber.org/zap"
	"golang.org/x/term"

	_ "github.com/streamforge/topologyuploader/localfs"
	_ "github.com/streamforge/topologyuploader/s3"
	_ "github.com/streamforge/topologyuploader/scp"
)

func setupLogger() func() {
	var logger *zap.Logger
	var err error
	if term.IsTerminal(int(os.Stdin.Fd())) {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(logger)

	return func() {
		_ = logger.Sync()
	}
}

func setupInterruptContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		select {
		case sig := <-c:
			zap.S().Infow("shutting_down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	onExit := func() {
		signal.Stop(c)
		cancel()
	}
	return ctx, onExit
}

var (
	configFile = kingpin.Flag("config", "Deploy configuration file (YAML).").Required().String()
	ledgerFile = kingpin.Flag("ledger-file", "Location of the local upload ledger.").String()

	metricsListenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics.").String()
	metricsPath          = kingpin.Flag("web.telemetry-path", "Path under which to expose metrics.").Default("/metrics").String()

	_ = kingpin.Command("upload", "Upload the topology package and print its fetch URI.")
	_ = kingpin.Command("undo", "Delete a previously uploaded topology package.")
	_ = kingpin.Command("list", "List uploads recorded in the ledger.")
)

func parseOptions() (string, *config.Config) {
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate)
	cmd := kingpin.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		kingpin.Fatalf("%s", err)
	}
	if *ledgerFile != "" {
		cfg.LedgerFile = *ledgerFile
	}
	return cmd, cfg
}

func main() {
	cmd, cfg := parseOptions()

	sync := setupLogger()
	defer sync()
	lgr := zap.S()

	ctx, onExit := setupInterruptContext()
	defer onExit()

	metrics.SetupPrometheus(metricsListenAddress, metricsPath)

	switch cmd {
	case "upload":
		err := doUpload(ctx, cfg)
		if err == context.Canceled {
			return
		}
		if err != nil {
			lgr.Fatalw("upload_error", "err", err)
		}
	case "undo":
		err := doUndo(ctx, cfg)
		if err == context.Canceled {
			return
		}
		if err != nil {
			lgr.Fatalw("undo_error", "err", err)
		}
	case "list":
		ldg, err := openLedger(cfg)
		if err != nil {
			lgr.Fatalw("ledger_open_error", "err", err)
		}
		defer closeLedger(ldg)
		records, err := ldg.List()
		if err != nil {
			lgr.Fatalw("list_error", "err", err)
		}
		for _, r := range records {
			lgr.Infow("recorded_upload", "provider", r.Provider, "topology", r.Topology, "role", r.Role, "uri", r.URI, "uploaded_at", time.Unix(r.UploadedAt, 0).UTC())
		}
	default:
		lgr.Fatalw("unhandled_command", "cmd", cmd)
	}
}

func doUpload(ctx context.Context, cfg *config.Config) error {
	u, err := uploader.Open(cfg)
	if err != nil {
		return err
	}
	defer closeUploader(u)

	counters := metrics.NewUploaderCounters(cfg.Uploader)
	counters.Attempts.Inc()
	started := time.Now()
	uri, err := u.UploadPackage(ctx)
	counters.Duration.Observe(time.Since(started).Seconds())
	if err != nil {
		counters.Failures.Inc()
		return err
	}
	fmt.Println(uri)

	if cfg.LedgerFile == "" {
		return nil
	}
	ldg, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger(ldg)
	return ldg.Put(ledger.Record{
		Provider: cfg.Uploader,
		Topology: cfg.Topology.Name,
		Role:     cfg.Topology.Role,
		URI:      uri,
	})
}

// doUndo rolls back an upload in a fresh process. The ledger tells us which
// provider wrote the package; without a record we fall back to the provider
// named in the configuration, since undo of a never-written destination is
// defined to succeed.
func doUndo(ctx context.Context, cfg *config.Config) error {
	lgr := zap.S()

	var ldg *ledger.Ledger
	if cfg.LedgerFile != "" {
		var err error
		ldg, err = openLedger(cfg)
		if err != nil {
			return err
		}
		defer closeLedger(ldg)

		record, err := ldg.Get(cfg.Topology.Name, cfg.Topology.Role)
		switch {
		case errors.Is(err, ledger.NotFound):
			lgr.Warnw("undo_without_record", "topology", cfg.Topology.Name, "role", cfg.Topology.Role)
		case err != nil:
			return err
		default:
			cfg.Uploader = record.Provider
		}
	}

	u, err := uploader.Open(cfg)
	if err != nil {
		return err
	}
	defer closeUploader(u)

	counters := metrics.NewUploaderCounters(cfg.Uploader)
	counters.UndoAttempts.Inc()
	if err := u.Undo(ctx); err != nil {
		counters.UndoFailures.Inc()
		return err
	}
	if ldg != nil {
		return ldg.Forget(cfg.Topology.Name, cfg.Topology.Role)
	}
	return nil
}

func openLedger(cfg *config.Config) (*ledger.Ledger, error) {
	if cfg.LedgerFile == "" {
		return nil, errors.New("no ledger file configured")
	}
	return ledger.Open(cfg.LedgerFile, 0o644)
}

func closeLedger(ldg *ledger.Ledger) {
	if err := ldg.Close(); err != nil {
		zap.S().Errorw("ledger_close_error", "err", err)
	}
}

func closeUploader(u uploader.Uploader) {
	if err := u.Close(); err != nil {
		zap.S().Errorw("uploader_close_error", "err", err)
	}
}

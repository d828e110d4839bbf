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

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type uploads struct {
	attemptsVec     *prometheus.CounterVec
	failuresVec     *prometheus.CounterVec
	undoAttemptsVec *prometheus.CounterVec
	undoFailuresVec *prometheus.CounterVec
	durationVec     *prometheus.SummaryVec
}

// UploaderCounters are the metrics for a single provider.
type UploaderCounters struct {
	Attempts     prometheus.Counter
	Failures     prometheus.Counter
	UndoAttempts prometheus.Counter
	UndoFailures prometheus.Counter
	Duration     prometheus.Observer
}

func NewUploaderCounters(provider string) *UploaderCounters {
	return &UploaderCounters{
		Attempts:     Uploads.attemptsVec.WithLabelValues(provider),
		Failures:     Uploads.failuresVec.WithLabelValues(provider),
		UndoAttempts: Uploads.undoAttemptsVec.WithLabelValues(provider),
		UndoFailures: Uploads.undoFailuresVec.WithLabelValues(provider),
		Duration:     Uploads.durationVec.WithLabelValues(provider),
	}
}

var Uploads = uploads{
	attemptsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topologyuploader",
		Subsystem: "uploader",
		Name:      "attempts_total",
		Help:      "Number of package upload attempts.",
	}, []string{"provider"}),
	failuresVec: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topologyuploader",
		Subsystem: "uploader",
		Name:      "failures_total",
		Help:      "Number of failed package uploads.",
	}, []string{"provider"}),
	undoAttemptsVec: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topologyuploader",
		Subsystem: "uploader",
		Name:      "undo_attempts_total",
		Help:      "Number of upload rollback attempts.",
	}, []string{"provider"}),
	undoFailuresVec: prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "topologyuploader",
		Subsystem: "uploader",
		Name:      "undo_failures_total",
		Help:      "Number of failed upload rollbacks.",
	}, []string{"provider"}),
	durationVec: prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "topologyuploader",
		Subsystem: "uploader",
		Name:      "duration_seconds",
		Help:      "Time spent uploading packages.",
	}, []string{"provider"}),
}

func SetupPrometheus(metricsListenAddress, metricsPath *string) {
	if metricsListenAddress == nil || *metricsListenAddress == "" {
		return
	}
	go func() {
		http.Handle(*metricsPath, promhttp.Handler())
		err := http.ListenAndServe(*metricsListenAddress, nil)
		zap.S().Fatalw("metrics_listen_error", "err", err)
	}()
}

func init() {
	prometheus.MustRegister(Uploads.attemptsVec)
	prometheus.MustRegister(Uploads.failuresVec)
	prometheus.MustRegister(Uploads.undoAttemptsVec)
	prometheus.MustRegister(Uploads.undoFailuresVec)
	prometheus.MustRegister(Uploads.durationVec)
}

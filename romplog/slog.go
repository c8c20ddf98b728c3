// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package romplog is romp's default Logger, grounded on
// marmos91-dittofs's internal/logger package: both reach for log/slog
// directly rather than a third-party structured logging library.
package romplog

import "log/slog"

// Slog reports exceptions through a *slog.Logger.
type Slog struct {
	logger *slog.Logger
}

// New returns a Slog that logs through logger, or through slog.Default()
// if logger is nil.
func New(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

// ReportException implements romp.Logger.
func (s *Slog) ReportException(err error) {
	s.logger.Error("romp: server exception", "error", err)
}

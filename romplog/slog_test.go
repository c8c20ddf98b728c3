// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romplog

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogReportsExceptionMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New(logger)

	s.ReportException(errors.New("boom"))

	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("log output %q does not contain the error message", buf.String())
	}
}

func TestSlogDefaultsWhenLoggerNil(t *testing.T) {
	s := New(nil)
	if s.logger == nil {
		t.Fatal("expected New(nil) to fall back to slog.Default()")
	}
}

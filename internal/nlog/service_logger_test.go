/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package nlog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runUntilCancel(t *testing.T, l *ServiceLogger, write func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	write()
	cancel()
	<-done
}

func TestSubsystemWritesToItsFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewServiceLogger(dir, true, "debug")
	require.NoError(t, err)
	l.stdout = &bytes.Buffer{}

	vaca, err := l.RegisterSubsystem("vaca")
	require.NoError(t, err)
	payments, err := l.RegisterSubsystem("payments")
	require.NoError(t, err)

	runUntilCancel(t, l, func() {
		vaca.Logf("bag %s created", "b1")
		vaca.Debugf("debugging %d", 3)
		payments.Logf("settled %s", "gift:g1")
	})

	vacaLog, err := os.ReadFile(filepath.Join(dir, "vaca.log"))
	require.NoError(t, err)
	assert.Contains(t, string(vacaLog), "bag b1 created")
	assert.Contains(t, string(vacaLog), "debugging 3")
	assert.NotContains(t, string(vacaLog), "gift:g1")

	paymentsLog, err := os.ReadFile(filepath.Join(dir, "payments.log"))
	require.NoError(t, err)
	assert.Contains(t, string(paymentsLog), "settled gift:g1")
}

func TestThresholdFiltersFile(t *testing.T) {
	dir := t.TempDir()
	l, err := NewServiceLogger(dir, true, "warn")
	require.NoError(t, err)
	out := &bytes.Buffer{}
	l.stdout = out

	s, err := l.RegisterSubsystem("http")
	require.NoError(t, err)

	runUntilCancel(t, l, func() {
		s.Logf("just info")
		s.Errorf("something broke")
	})

	content, err := os.ReadFile(filepath.Join(dir, "http.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "just info")
	assert.Contains(t, string(content), "something broke")
	assert.Contains(t, out.String(), "something broke")
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	dir := t.TempDir()
	l, err := NewServiceLogger(dir, false, "info")
	require.NoError(t, err)
	l.stdout = &bytes.Buffer{}

	s, err := l.RegisterSubsystem("main")
	require.NoError(t, err)

	runUntilCancel(t, l, func() {
		s.Logf("should not appear")
	})

	content, err := os.ReadFile(filepath.Join(dir, "main.log"))
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestStoppedLoggerDoesNotBlock(t *testing.T) {
	dir := t.TempDir()
	l, err := NewServiceLogger(dir, true, "info")
	require.NoError(t, err)
	l.stdout = &bytes.Buffer{}

	s, err := l.RegisterSubsystem("main")
	require.NoError(t, err)

	runUntilCancel(t, l, func() {
		s.Logf("before stop")
	})
	<-l.Done()

	// More than the inbox holds
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 2*cap(l.inbox); i++ {
			s.Logf("after stop %d", i)
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Logf blocked on a stopped logger")
	}

	content, err := os.ReadFile(filepath.Join(dir, "main.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "before stop")
}

func TestParseThreshold(t *testing.T) {
	assert.Equal(t, ParseThreshold("info"), ParseThreshold("nonsense"))
	assert.NotEqual(t, ParseThreshold("debug"), ParseThreshold("error"))
}

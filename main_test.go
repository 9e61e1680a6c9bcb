// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestServe_DrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		finished.Store(true)
		w.WriteHeader(http.StatusNoContent)
	})}

	stop := make(chan os.Signal, 1)
	served := make(chan error, 1)
	go func() {
		served <- serve(server, ln, stop, 5*time.Second)
	}()

	responded := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			responded <- 0
			return
		}
		resp.Body.Close()
		responded <- resp.StatusCode
	}()

	<-entered
	stop <- syscall.SIGTERM

	select {
	case err := <-served:
		t.Fatalf("serve returned before the request finished: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	if err := <-served; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
	if !finished.Load() {
		t.Error("expected in-flight request to finish before serve returned")
	}
	if status := <-responded; status != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", status)
	}
}

func TestServe_ReturnsListenerErrors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ln.Close()

	err = serve(&http.Server{}, ln, make(chan os.Signal), time.Second)
	if err == nil {
		t.Error("expected error from closed listener, got nil")
	}
}

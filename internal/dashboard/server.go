// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package dashboard

import (
	"bufio"
	"context"
	"encoding/json"
	"sync"
	"time"

	fiber "github.com/gofiber/fiber/v3"
	recovermiddleware "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/Tom-Plants/UserSpaceQOS/internal/obslog"
)

const sseBufSize = 4

// Server exposes a Source's published counters over HTTP: a polled JSON
// snapshot and a Server-Sent Events stream. It is safe for concurrent use.
type Server struct {
	app *fiber.App

	src          Source
	pollInterval time.Duration

	statsMu sync.RWMutex
	stats   StatsResponse

	ssesMu  sync.Mutex
	clients map[chan []byte]struct{}
}

// New builds a Server polling src every interval.
func New(src Source, interval time.Duration) *Server {
	s := &Server{
		src:          src,
		pollInterval: interval,
		clients:      make(map[chan []byte]struct{}),
	}

	app := fiber.New(fiber.Config{ServerHeader: "qosd"})
	app.Use(recovermiddleware.New())
	app.Get("/api/stats", s.handleAPIStats)
	app.Get("/events", s.handleSSE)
	s.app = app
	return s
}

// Run starts the polling goroutine and serves addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.forcePoll()
	go s.runPoller(ctx)
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()
	obslog.Logger.Info().Str("addr", addr).Dur("interval", s.pollInterval).Msg("dashboard listening")
	return s.app.Listen(addr)
}

func (s *Server) forcePoll() {
	defer func() {
		if r := recover(); r != nil {
			obslog.Logger.Error().Interface("panic", r).Msg("dashboard poller recovered")
		}
	}()
	resp := poll(s.src)
	resp.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	s.statsMu.Lock()
	s.stats = resp
	s.statsMu.Unlock()

	s.broadcast(resp)
}

func (s *Server) runPoller(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.forcePoll()
		}
	}
}

func (s *Server) broadcast(resp StatsResponse) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	event := buildSSEEvent(payload)

	s.ssesMu.Lock()
	defer s.ssesMu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- event:
		default:
		}
	}
}

func buildSSEEvent(payload []byte) []byte {
	buf := make([]byte, 0, len(payload)+32)
	buf = append(buf, "retry: 2000\ndata: "...)
	buf = append(buf, payload...)
	buf = append(buf, "\n\n"...)
	return buf
}

func (s *Server) handleAPIStats(c fiber.Ctx) error {
	s.statsMu.RLock()
	snapshot := s.stats
	s.statsMu.RUnlock()

	c.Set("Content-Type", "application/json; charset=utf-8")
	b, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.Send(b)
}

func (s *Server) handleSSE(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ch := make(chan []byte, sseBufSize)
	s.ssesMu.Lock()
	s.clients[ch] = struct{}{}
	s.ssesMu.Unlock()

	s.statsMu.RLock()
	snapshot := s.stats
	s.statsMu.RUnlock()

	c.RequestCtx().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			s.ssesMu.Lock()
			delete(s.clients, ch)
			s.ssesMu.Unlock()
		}()

		if payload, err := json.Marshal(snapshot); err == nil {
			if _, err := w.Write(buildSSEEvent(payload)); err != nil {
				return
			}
			_ = w.Flush()
		}

		for event := range ch {
			if _, err := w.Write(event); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

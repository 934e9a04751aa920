/*
Copyright (C) 2022-2025 Contributors | TIM S.p.A. to CAMARA a Series of LF Projects, LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package uplink

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/xmidt-org/wrp-go/v3"
	"go.uber.org/zap"
)

// Transport is the uplink transport client: connect once, then
// receive and send framed messages. All I/O is blocking; callers must
// never hold a component lock across a Transport call.
type Transport interface {
	Open(ctx context.Context) error
	Close() error
	// Receive blocks until a frame arrives or ctx is done. Returns
	// (nil, nil) on a poll timeout with nothing to report.
	Receive(ctx context.Context) (*wrp.Message, error)
	Send(ctx context.Context, msg *wrp.Message) error
}

// mockTransport reads one JSON request per stdin line and writes one
// JSON response per stdout line, per the CLI's --mode mock contract.
// Each line is wrapped as a REQ-type wrp.Message with the payload set
// to the raw line bytes, so the rest of the loop is transport-agnostic.
type mockTransport struct {
	in  *bufio.Scanner
	out *bufio.Writer

	mu      sync.Mutex
	pending []wrp.Message
}

// NewMockTransport builds a Transport over stdin/stdout.
func NewMockTransport() Transport {
	return &mockTransport{
		in:  bufio.NewScanner(os.Stdin),
		out: bufio.NewWriter(os.Stdout),
	}
}

func (t *mockTransport) Open(context.Context) error { return nil }
func (t *mockTransport) Close() error                { return t.out.Flush() }

func (t *mockTransport) Receive(ctx context.Context) (*wrp.Message, error) {
	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		if t.in.Scan() {
			lineCh <- t.in.Text()
			return
		}
		if err := t.in.Err(); err != nil {
			errCh <- err
			return
		}
		errCh <- fmt.Errorf("stdin closed")
	}()

	select {
	case <-ctx.Done():
		return nil, nil
	case err := <-errCh:
		return nil, err
	case line := <-lineCh:
		return &wrp.Message{
			Type:            wrp.SimpleRequestResponseMessageType,
			Source:          "mock.client",
			Destination:     "mock.bridge",
			TransactionUUID: "",
			ContentType:     "application/json",
			Payload:         []byte(line),
		}, nil
	}
}

func (t *mockTransport) Send(_ context.Context, msg *wrp.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.out.Write(msg.Payload); err != nil {
		return fmt.Errorf("write mock response: %w", err)
	}
	if err := t.out.WriteByte('\n'); err != nil {
		return err
	}
	return t.out.Flush()
}

// parodusTransport speaks framed WRP/JSON over a TCP connection to
// parodus, the deployed uplink peer. Open dials the connection; after a
// failed decode drops it, the next Receive or Send dials again.
type parodusTransport struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn net.Conn
	dec  *wrp.Decoder
	enc  *wrp.Encoder
}

// NewParodusTransport builds a Transport that dials rawURL (e.g.
// "tcp://127.0.0.1:6666") lazily.
func NewParodusTransport(rawURL string, log *zap.Logger) Transport {
	return &parodusTransport{url: rawURL, log: log}
}

func (t *parodusTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectLocked(ctx)
}

func (t *parodusTransport) connectLocked(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	u, err := url.Parse(t.url)
	if err != nil {
		return fmt.Errorf("parse parodus url %q: %w", t.url, err)
	}
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return fmt.Errorf("dial parodus at %s: %w", u.Host, err)
	}
	t.conn = conn
	t.dec = wrp.NewDecoder(conn, wrp.JSON)
	t.enc = wrp.NewEncoder(conn, wrp.JSON)
	t.log.Info("connected to parodus", zap.String("url", t.url))
	return nil
}

func (t *parodusTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn, t.dec, t.enc = nil, nil, nil
	return err
}

// Receive decodes the next frame. ctx is used only for dialing: while
// waiting for a frame Receive does not observe ctx, so it returns only
// once a frame is decoded or the connection fails and never reports a
// poll timeout. A decode failure drops the connection.
func (t *parodusTransport) Receive(ctx context.Context) (*wrp.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.connectLocked(ctx); err != nil {
		return nil, err
	}
	var msg wrp.Message
	if err := t.dec.Decode(&msg); err != nil {
		t.conn.Close()
		t.conn, t.dec, t.enc = nil, nil, nil
		return nil, fmt.Errorf("decode wrp frame: %w", err)
	}
	return &msg, nil
}

func (t *parodusTransport) Send(ctx context.Context, msg *wrp.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.connectLocked(ctx); err != nil {
		return err
	}
	if err := t.enc.Encode(msg); err != nil {
		return fmt.Errorf("encode wrp frame: %w", err)
	}
	return nil
}

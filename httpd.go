//----------------------------------------------------------------------
// This file is part of srvweb.
// Copyright (C) 2025-present Bernd Fix   >Y<
//
// srvweb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// srvweb is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package srvweb

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/soypat/seqs/httpx"
)

//----------------------------------------------------------------------
// Requests, responses and handlers
//----------------------------------------------------------------------

// Request is the parsed head of an incoming request. Bodies are not
// read; this responder serves fixed documents.
type Request struct {
	Method string
	Path   string
}

// Response is produced by a route handler. Zero Status means 200; an
// empty ContentType defaults to plain text.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Handler produces the response for a request. A returned error is
// reported on the responder's error feed and answered with status 500.
type Handler func(req *Request) (*Response, error)

// registered route
type route struct {
	method string
	path   string
	fn     Handler
}

//----------------------------------------------------------------------
// Blocking HTTP responder
//----------------------------------------------------------------------

// Responder is a small HTTP responder for a handful of fixed routes,
// one goroutine per connection and one response per connection. A
// request failure never takes the responder down; it is answered (or
// dropped) and reported on the error feed.
type Responder struct {
	mu     sync.Mutex
	routes []route
	log    *slog.Logger
	errs   chan error
}

// NewResponder creates an empty responder.
func NewResponder(log *slog.Logger) *Responder {
	if log == nil {
		log = discardLogger()
	}
	return &Responder{
		log:  log,
		errs: make(chan error, 8),
	}
}

// Handle registers a route for a method and an exact path.
func (r *Responder) Handle(method, path string, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{method: method, path: path, fn: fn})
}

// Routes returns the number of registered routes.
func (r *Responder) Routes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

// Errs delivers per-request failures (parse, handler and write errors).
// The feed is best effort: reports are dropped when nobody drains it.
func (r *Responder) Errs() <-chan error {
	return r.errs
}

// Serve accepts connections on the listener until it fails. The
// listener error is returned; per-request errors are not.
func (r *Responder) Serve(lst net.Listener) error {
	for {
		conn, err := lst.Accept()
		if err != nil {
			return err
		}
		go r.serve(conn)
	}
}

// serve answers a single request and closes the connection.
func (r *Responder) serve(conn net.Conn) {
	defer conn.Close()

	var hdr httpx.RequestHeader
	buf := bufio.NewReaderSize(conn, 1024)
	if err := hdr.Read(buf); err != nil {
		r.report(fmt.Errorf("parse request: %w", err))
		writeResponse(conn, &Response{
			Status:      400,
			ContentType: "text/plain",
			Body:        []byte("bad request\n"),
		})
		return
	}
	method := string(hdr.Method())
	path := string(hdr.RequestURI())
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	fn, pathKnown := r.lookup(method, path)
	var resp *Response
	switch {
	case fn != nil:
		var err error
		if resp, err = fn(&Request{Method: method, Path: path}); err != nil {
			r.report(fmt.Errorf("handle %s %s: %w", method, path, err))
			resp = &Response{Status: 500, Body: []byte("internal error\n")}
		}
	case pathKnown:
		resp = &Response{Status: 405, Body: []byte("method not allowed\n")}
	default:
		resp = &Response{Status: 404, Body: []byte("not found\n")}
	}
	if resp.Status == 0 {
		resp.Status = 200
	}
	if len(resp.ContentType) == 0 {
		resp.ContentType = "text/plain"
	}
	if err := writeResponse(conn, resp); err != nil {
		r.report(fmt.Errorf("write response: %w", err))
		return
	}
	r.log.Debug("request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.Status))
}

// lookup finds the handler for method and path. pathKnown signals that
// the path exists under some other method.
func (r *Responder) lookup(method, path string) (fn Handler, pathKnown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.routes {
		if rt.path != path {
			continue
		}
		pathKnown = true
		if rt.method == method {
			return rt.fn, true
		}
	}
	return
}

// writeResponse puts head and body on the wire. Connections are always
// closed after one response.
func writeResponse(conn net.Conn, resp *Response) error {
	var hdr httpx.ResponseHeader
	hdr.SetStatusCode(resp.Status)
	hdr.SetContentType(resp.ContentType)
	hdr.SetContentLength(len(resp.Body))
	hdr.SetConnectionClose()
	if _, err := conn.Write(hdr.Header()); err != nil {
		return err
	}
	_, err := conn.Write(resp.Body)
	return err
}

// report a request failure without blocking.
func (r *Responder) report(err error) {
	select {
	case r.errs <- err:
	default:
	}
	r.log.Error("request failed", slog.String("err", err.Error()))
}

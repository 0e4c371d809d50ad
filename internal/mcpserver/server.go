// Package mcpserver wires the wire codec (C1), session lifecycle (C2), and
// tool dispatcher (C3) into the read-dispatch-write loop that drives one
// client connection end to end.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"reasonkit-web/internal/browser"
	"reasonkit-web/internal/protocol"
	"reasonkit-web/internal/session"
	"reasonkit-web/internal/tools"
)

// ProtocolVersion is the MCP protocol version this server advertises on
// initialize.
const ProtocolVersion = "2024-11-05"

// Logger is the minimal logging seam the server writes lifecycle and error
// events through; *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...interface{})
}

// Info identifies this server in the initialize handshake.
type Info struct {
	Name    string
	Version string
}

// Server drives one client connection: it reads framed messages, gates them
// through the session state machine, dispatches tool calls, and serializes
// replies through a single writer goroutine.
type Server struct {
	info       Info
	session    *session.Session
	dispatcher *tools.Dispatcher
	controller *browser.Controller
	writer     *protocol.Writer
	log        Logger

	outSink chan protocol.Response
	wg      sync.WaitGroup
}

// New constructs a Server. outputSinkCapacity bounds the pending-response
// backpressure queue (the spec's default is 64).
func New(info Info, dispatcher *tools.Dispatcher, controller *browser.Controller, writer *protocol.Writer, outputSinkCapacity int, logger Logger) *Server {
	if outputSinkCapacity <= 0 {
		outputSinkCapacity = 64
	}
	return &Server{
		info:       info,
		session:    session.New(),
		dispatcher: dispatcher,
		controller: controller,
		writer:     writer,
		log:        logger,
		outSink:    make(chan protocol.Response, outputSinkCapacity),
	}
}

// Run drives the read loop until transport EOF, a fatal framing error, or
// the session reaching Closed. It blocks until every in-flight request has
// been answered and the browser controller has released its resources.
func (s *Server) Run(ctx context.Context, reader *protocol.Reader) error {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for resp := range s.outSink {
			if err := s.writer.WriteResponse(resp); err != nil {
				s.logf("write response: %v", err)
			}
		}
	}()

	readErr := s.readLoop(ctx, reader)

	s.wg.Wait()
	close(s.outSink)
	<-writerDone

	s.session.Close()
	if err := s.controller.Shutdown(); err != nil {
		s.logf("browser shutdown: %v", err)
	}

	return readErr
}

func (s *Server) readLoop(ctx context.Context, reader *protocol.Reader) error {
	for {
		msg, err := reader.ReadMessage()
		if err != nil {
			if err == io.EOF {
				return nil
			}

			var perr *protocol.ProtocolError
			if asProtocolError(err, &perr) {
				s.outSink <- protocol.Response{Err: perr.ToErrorObject()}
				continue
			}

			s.logf("fatal transport error: %v", err)
			return err
		}

		switch msg.Kind {
		case protocol.KindRequest:
			// Lifecycle requests (initialize/ping/shutdown/tools-list) are
			// handled inline: they are fast, and the handshake notifications
			// that follow them must observe their effect in order. Only
			// tools/call, which does real I/O, runs as an independent task.
			if msg.Request.Method == "tools/call" {
				s.wg.Add(1)
				go func(req protocol.Request) {
					defer s.wg.Done()
					s.handleRequest(ctx, req)
				}(*msg.Request)
			} else {
				s.handleRequest(ctx, *msg.Request)
			}

		case protocol.KindNotification:
			s.handleNotification(*msg.Notification)

		case protocol.KindResponse:
			// The server never issues requests of its own, so an inbound
			// response has no correlated call; it is logged and dropped.
			s.logf("unexpected response-shaped message from client, ignoring")
		}

		if s.session.IsClosed() {
			return nil
		}
	}
}

func asProtocolError(err error, out **protocol.ProtocolError) bool {
	perr, ok := err.(*protocol.ProtocolError)
	if ok {
		*out = perr
	}
	return ok
}

func (s *Server) handleNotification(n protocol.Notification) {
	switch n.Method {
	case "initialized":
		if err := s.session.Initialized(); err != nil {
			s.logf("initialized notification rejected: %v", err)
		}
	case "exit":
		if err := s.session.Exit(); err != nil {
			s.logf("exit notification rejected: %v", err)
			s.session.Close()
		}
	default:
		// Unknown notifications elicit no reply and no error per the
		// lifecycle contract; they are simply ignored.
	}
}

func (s *Server) handleRequest(ctx context.Context, req protocol.Request) {
	switch req.Method {
	case "initialize":
		s.replyInitialize(req)
	case "ping":
		s.replyPing(req)
	case "shutdown":
		s.replyShutdown(req)
	case "tools/list":
		s.replyToolsList(req)
	case "tools/call":
		s.replyToolsCall(ctx, req)
	default:
		s.sendError(req.ID, protocol.MethodNotFound(fmt.Sprintf("unknown method %q", req.Method)))
	}
}

type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    map[string]interface{} `json:"capabilities"`
	ClientInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"clientInfo"`
}

func (s *Server) replyInitialize(req protocol.Request) {
	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendError(req.ID, protocol.InvalidRequest("malformed initialize params"))
			return
		}
	}

	if err := s.session.Initialize(params.ProtocolVersion, session.ClientInfo{
		Name:    params.ClientInfo.Name,
		Version: params.ClientInfo.Version,
	}); err != nil {
		s.sendError(req.ID, protocol.InvalidRequest(err.Error()))
		return
	}

	s.sendResult(req.ID, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{"listChanged": false},
		},
		"serverInfo": map[string]interface{}{
			"name":    s.info.Name,
			"version": s.info.Version,
		},
	})
}

func (s *Server) replyPing(req protocol.Request) {
	if !s.session.AllowsPing() {
		s.sendError(req.ID, protocol.InvalidRequest("ping not allowed in closed session"))
		return
	}
	s.sendResult(req.ID, map[string]interface{}{"pong": true})
}

func (s *Server) replyShutdown(req protocol.Request) {
	if err := s.session.Shutdown(); err != nil {
		s.sendError(req.ID, protocol.InvalidRequest(err.Error()))
		return
	}
	s.sendResult(req.ID, nil)
}

func (s *Server) replyToolsList(req protocol.Request) {
	if err := s.session.RequireReady(); err != nil {
		s.sendError(req.ID, protocol.InvalidRequest(err.Error()))
		return
	}
	s.sendResult(req.ID, map[string]interface{}{"tools": s.dispatcher.List()})
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) replyToolsCall(ctx context.Context, req protocol.Request) {
	if err := s.session.RequireReady(); err != nil {
		s.sendError(req.ID, protocol.InvalidRequest(err.Error()))
		return
	}

	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, protocol.InvalidParams("malformed tools/call params"))
		return
	}

	result, perr := s.dispatcher.Call(ctx, params.Name, params.Arguments)
	if perr != nil {
		s.sendError(req.ID, perr)
		return
	}

	s.sendResult(req.ID, result)
}

func (s *Server) sendResult(id protocol.ID, result interface{}) {
	s.outSink <- protocol.Response{ID: id, Result: result}
}

func (s *Server) sendError(id protocol.ID, perr *protocol.ProtocolError) {
	s.outSink <- protocol.Response{ID: id, Err: perr.ToErrorObject()}
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.log == nil {
		return
	}
	s.log.Printf(format, args...)
}

// Package gateway bridges a chat-platform client to the bot over a
// WebSocket. The client forwards slash commands and button presses; the
// gateway answers with messages to render and edit.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xtding233/pocket-encounters/internal/bot"
	"github.com/xtding233/pocket-encounters/internal/encounter"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	inboxSize  = 16
)

// Handler runs one command against a renderer and an interaction stream.
type Handler interface {
	Handle(ctx context.Context, cmd bot.Command, r encounter.Renderer, ev encounter.EventSource) error
}

// Assets turns sprite:N and art:N references into URLs. Each field is a
// fmt pattern taking the species id; empty leaves the reference as is.
type Assets struct {
	SpriteURL string
	ArtURL    string
}

func (a Assets) resolve(ref string) string {
	kind, id, ok := strings.Cut(ref, ":")
	if !ok {
		return ref
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return ref
	}
	switch {
	case kind == "sprite" && a.SpriteURL != "":
		return fmt.Sprintf(a.SpriteURL, n)
	case kind == "art" && a.ArtURL != "":
		return fmt.Sprintf(a.ArtURL, n)
	}
	return ref
}

type Server struct {
	handler  Handler
	assets   Assets
	upgrader websocket.Upgrader
}

func NewServer(h Handler, a Assets) *Server {
	return &Server{
		handler: h,
		assets:  a,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: upgrade: %v", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{
		id:     uuid.NewString(),
		srv:    s,
		ws:     ws,
		ctx:    ctx,
		cancel: cancel,
		routes: make(map[string]*inbox),
	}
	log.Printf("gateway: client %s connected from %s", c.id, r.RemoteAddr)
	c.run()
	log.Printf("gateway: client %s disconnected", c.id)
}

type conn struct {
	id     string
	srv    *Server
	ws     *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	wmu sync.Mutex // one writer at a time

	mu     sync.Mutex
	routes map[string]*inbox // message id -> owning command
}

func (c *conn) run() {
	defer func() {
		c.cancel()
		c.wg.Wait()
		_ = c.ws.Close()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.wg.Add(1)
	go c.ping()

	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("gateway: client %s read: %v", c.id, err)
			}
			return
		}
		switch f.Type {
		case TypeCommand:
			if f.Command == nil {
				c.sendError(f.ID, "command frame without command")
				continue
			}
			c.wg.Add(1)
			go c.command(f.ID, *f.Command)
		case TypeInteraction:
			if f.Interaction == nil {
				c.sendError(f.ID, "interaction frame without interaction")
				continue
			}
			c.interaction(f.MessageID, *f.Interaction)
		default:
			c.sendError(f.ID, "unknown frame type "+strconv.Quote(f.Type))
		}
	}
}

func (c *conn) ping() {
	defer c.wg.Done()
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			c.wmu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.wmu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (c *conn) write(f Frame) error {
	if f.View != nil {
		v := *f.View
		v.Thumbnail = c.srv.assets.resolve(v.Thumbnail)
		v.Image = c.srv.assets.resolve(v.Image)
		f.View = &v
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(f)
}

func (c *conn) sendError(replyTo, msg string) {
	if err := c.write(Frame{Type: TypeError, ReplyTo: replyTo, Error: msg}); err != nil {
		log.Printf("gateway: client %s write error frame: %v", c.id, err)
	}
}

func (c *conn) command(replyTo string, cmd bot.Command) {
	defer c.wg.Done()
	box := &inbox{conn: c, ch: make(chan encounter.Interaction, inboxSize)}
	r := &renderer{conn: c, replyTo: replyTo, box: box}
	defer c.unroute(box)

	if err := c.srv.handler.Handle(c.ctx, cmd, r, box); err != nil {
		if c.ctx.Err() != nil {
			return
		}
		log.Printf("gateway: command %s from %s: %v", cmd.Name, cmd.UserID, err)
		c.sendError(replyTo, "something went wrong")
	}
}

// interaction hands a button press to the command that owns the message.
// Presses nobody is waiting for are acknowledged here.
func (c *conn) interaction(messageID string, in encounter.Interaction) {
	c.mu.Lock()
	delivered := false
	if box := c.routes[messageID]; box != nil {
		select {
		case box.ch <- in:
			delivered = true
		default:
		}
	}
	c.mu.Unlock()
	if !delivered {
		c.ack(in)
	}
}

func (c *conn) ack(in encounter.Interaction) {
	if err := c.write(Frame{Type: TypeAck, ID: in.ID}); err != nil {
		log.Printf("gateway: client %s ack: %v", c.id, err)
	}
}

func (c *conn) route(messageID string, box *inbox) {
	c.mu.Lock()
	c.routes[messageID] = box
	c.mu.Unlock()
}

// unroute detaches box from its messages and acknowledges the presses it
// buffered but never read.
func (c *conn) unroute(box *inbox) {
	c.mu.Lock()
	for id, b := range c.routes {
		if b == box {
			delete(c.routes, id)
		}
	}
	c.mu.Unlock()
	for {
		select {
		case in := <-box.ch:
			c.ack(in)
		default:
			return
		}
	}
}

// inbox is the EventSource of one command.
type inbox struct {
	conn *conn
	ch   chan encounter.Interaction
}

func (b *inbox) Next(ctx context.Context) (encounter.Interaction, error) {
	select {
	case in := <-b.ch:
		return in, nil
	case <-ctx.Done():
		return encounter.Interaction{}, ctx.Err()
	}
}

func (b *inbox) Acknowledge(_ context.Context, in encounter.Interaction) error {
	return b.conn.write(Frame{Type: TypeAck, ID: in.ID})
}

type renderer struct {
	conn    *conn
	replyTo string
	box     *inbox
}

func (r *renderer) Send(_ context.Context, v encounter.View) (encounter.Message, error) {
	id := uuid.NewString()
	r.conn.route(id, r.box)
	if err := r.conn.write(Frame{Type: TypeRender, MessageID: id, ReplyTo: r.replyTo, View: &v}); err != nil {
		return nil, fmt.Errorf("write render: %w", err)
	}
	return &message{conn: r.conn, id: id}, nil
}

type message struct {
	conn *conn
	id   string
}

func (m *message) Edit(_ context.Context, v encounter.View) error {
	if err := m.conn.write(Frame{Type: TypeEdit, MessageID: m.id, View: &v}); err != nil {
		return fmt.Errorf("write edit: %w", err)
	}
	return nil
}

package messaging

import (
	"context"

	"ksk-service/internal/model"
)

// SSEClient is one open event stream.
type SSEClient struct {
	Identifier string
	City       string
	Dispatcher bool
	Channel    chan model.Event
}

type delivery struct {
	match func(*SSEClient) bool
	event model.Event
}

type SSEHub struct {
	clients    map[*SSEClient]struct{}
	register   chan *SSEClient
	unregister chan *SSEClient
	broadcast  chan delivery
	done       chan struct{}
}

func NewSSEHub() *SSEHub {
	return &SSEHub{
		clients:    make(map[*SSEClient]struct{}),
		register:   make(chan *SSEClient),
		unregister: make(chan *SSEClient),
		broadcast:  make(chan delivery, 100),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is done, then closes every open stream.
func (h *SSEHub) Run(ctx context.Context) error {
	defer func() {
		for client := range h.clients {
			close(client.Channel)
		}
		h.clients = nil
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.clients[client] = struct{}{}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Channel)
			}

		case d := <-h.broadcast:
			for client := range h.clients {
				if !d.match(client) {
					continue
				}
				select {
				case client.Channel <- d.event:
				default:
					// slow reader, skip
				}
			}
		}
	}
}

// RegisterClient opens a stream for a session. The channel is closed on
// UnregisterClient or when the hub stops.
func (h *SSEHub) RegisterClient(session *model.Session) *SSEClient {
	client := &SSEClient{
		Identifier: session.Identifier,
		City:       session.City,
		Dispatcher: session.IsDispatcher(),
		Channel:    make(chan model.Event, 10),
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Channel)
	}
	return client
}

func (h *SSEHub) UnregisterClient(client *SSEClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToIdentifier pushes to every stream opened by the citizen.
func (h *SSEHub) SendToIdentifier(identifier string, event model.Event) {
	h.send(delivery{
		match: func(c *SSEClient) bool { return c.Identifier == identifier },
		event: event,
	})
}

// SendToDispatchers pushes to dispatcher streams watching city.
func (h *SSEHub) SendToDispatchers(city string, event model.Event) {
	h.send(delivery{
		match: func(c *SSEClient) bool { return c.Dispatcher && c.City == city },
		event: event,
	})
}

func (h *SSEHub) send(d delivery) {
	select {
	case h.broadcast <- d:
	case <-h.done:
	}
}

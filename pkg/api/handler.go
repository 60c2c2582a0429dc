package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/s0rg/toggle-ctl/pkg/db"
	"github.com/s0rg/toggle-ctl/pkg/redis"
)

var errBadRequest = errors.New("bad request")

const (
	flagOn  = "1"
	flagOff = "0"

	kindPositive = "positive"
	kindNegative = "negative"
)

type Muxer interface {
	Mux() http.Handler
}

type handlers struct {
	db       db.Store
	rd       redis.Store
	watchKey func(string) error
}

// New creates new api handlers.
func New(dbs db.Store, rds redis.Store, watcher func(string) error) Muxer {
	return &handlers{db: dbs, rd: rds, watchKey: watcher}
}

// Mux constructs new http.Handler for api.
func (h *handlers) Mux() http.Handler {
	var m http.ServeMux

	m.HandleFunc("/controls", wrapAPI("controls-list", h.GetControls))
	m.HandleFunc("/controls/add", wrapAPI("controls-add", h.AddControls))
	m.HandleFunc("/controls/state", wrapAPI("controls-state", h.ControlState))
	m.HandleFunc("/controls/toggle", wrapAPI("controls-toggle", h.ToggleControl))

	return &m
}

func (h *handlers) cacheState(c db.Control) (err error) {
	if err = h.rd.SaveState(c); err != nil {
		return
	}

	return h.watchKey(c.Name)
}

// GetControls returns all controls with their states.
func (h *handlers) GetControls(ctx context.Context, w io.Writer, _ *http.Request) (err error) {
	var controls []db.Control

	if controls, err = h.db.GetControls(ctx); err != nil {
		return
	}

	resp := respControlList{
		Controls: make([]respControl, len(controls)),
	}

	for i, c := range controls {
		resp.Controls[i] = respControl{
			Name:     c.Name,
			Enabled:  c.Enabled,
			Revision: c.Revision,
		}
	}

	return json.NewEncoder(w).Encode(&resp)
}

// AddControls registers new controls, disabled until toggled.
func (h *handlers) AddControls(ctx context.Context, _ io.Writer, r *http.Request) (err error) {
	var req reqAddControls

	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		return errBadRequest
	}

	if len(req.Names) == 0 {
		return errBadRequest
	}

	return h.db.AddControls(ctx, req.Names)
}

// ControlState returns current state, cache-first.
func (h *handlers) ControlState(ctx context.Context, w io.Writer, r *http.Request) (err error) {
	var req reqControlState

	if err = json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		return errBadRequest
	}

	var (
		c     db.Control
		found bool
	)

	if c, found, err = h.rd.GetState(req.Name); err != nil {
		return
	}

	if found {
		if err = h.rd.MarkAlive(req.Name); err != nil {
			return
		}
	} else {
		if c, err = h.db.GetControl(ctx, req.Name); err != nil {
			return errBadRequest
		}

		if err = h.cacheState(c); err != nil {
			return
		}
	}

	resp := respControl{
		Name:     c.Name,
		Enabled:  c.Enabled,
		Revision: c.Revision,
	}

	return json.NewEncoder(w).Encode(&resp)
}

// ToggleControl persists a state change for control named in query,
// empty body flips the stored value, otherwise the '1'/'0' flag from
// the body is applied. Response carries the authoritative state.
func (h *handlers) ToggleControl(ctx context.Context, w io.Writer, r *http.Request) (err error) {
	name := r.URL.Query().Get("name")
	if name == "" {
		return errBadRequest
	}

	var (
		req reqToggle
		c   db.Control
	)

	if err = json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return errBadRequest
	}

	switch req.Enabled {
	case "":
		c, err = h.db.FlipControl(ctx, name)
	case flagOn:
		c, err = h.db.SetControl(ctx, name, true)
	case flagOff:
		c, err = h.db.SetControl(ctx, name, false)
	default:
		return errBadRequest
	}

	if err != nil {
		return errBadRequest
	}

	if err = h.cacheState(c); err != nil {
		return
	}

	resp := respControl{
		Name:     c.Name,
		Enabled:  c.Enabled,
		Revision: c.Revision,
		Messages: []message{toggleMessage(c)},
	}

	return json.NewEncoder(w).Encode(&resp)
}

func toggleMessage(c db.Control) message {
	if c.Enabled {
		return message{
			Kind: kindPositive,
			Text: fmt.Sprintf("'%s' has been enabled", c.Name),
		}
	}

	return message{
		Kind: kindNegative,
		Text: fmt.Sprintf("'%s' has been disabled", c.Name),
	}
}

package redis

import (
	"time"

	"github.com/mediocregopher/radix/v3"

	"github.com/s0rg/toggle-ctl/pkg/db"
)

type state struct {
	Name     string `json:"name"`
	Enabled  bool   `json:"on"`
	Revision string `json:"rev"`
}

type Store interface {
	SaveState(db.Control) error
	GetState(string) (db.Control, bool, error)
	DropState(string) error
	MarkAlive(string) error
	IsAlive(string) (bool, error)
}

type redis struct {
	c   radix.Client
	exp string
}

// New create new redis store.
func New(c radix.Client, d time.Duration) Store {
	return &redis{
		c:   c,
		exp: expireArg(d),
	}
}

// SaveState caches control state and refreshes its alive key.
func (r *redis) SaveState(c db.Control) (err error) {
	raw, err := encodeState(state{
		Name:     c.Name,
		Enabled:  c.Enabled,
		Revision: c.Revision,
	})
	if err != nil {
		return
	}

	err = r.c.Do(radix.WithConn(c.Name, func(rc radix.Conn) (err error) {
		if err = rc.Do(radix.Cmd(nil, "MULTI")); err != nil {
			return
		}

		defer func() {
			if err != nil {
				_ = rc.Do(radix.Cmd(nil, "DISCARD"))
			}
		}()

		if err = rc.Do(radix.Cmd(nil, "SET", stateKey(c.Name), raw)); err != nil {
			return
		}

		if err = rc.Do(radix.Cmd(nil, "SETEX", aliveKey(c.Name), r.exp, "1")); err != nil {
			return
		}

		return rc.Do(radix.Cmd(nil, "EXEC"))
	}))

	return err
}

// GetState returns cached control state, stale entries are misses.
func (r *redis) GetState(name string) (rv db.Control, found bool, err error) {
	var raw string

	if found, err = r.IsAlive(name); err != nil || !found {
		return
	}

	if err = r.c.Do(radix.Cmd(&raw, "GET", stateKey(name))); err != nil || raw == "" {
		found = false

		return
	}

	var s state

	if s, err = decodeState(raw); err != nil {
		return
	}

	rv.Name = s.Name
	rv.Enabled = s.Enabled
	rv.Revision = s.Revision

	return rv, true, nil
}

// MarkAlive updates key expire time.
func (r *redis) MarkAlive(name string) (err error) {
	return r.c.Do(radix.Cmd(nil, "EXPIRE", aliveKey(name), r.exp))
}

// IsAlive checks key for existence.
func (r *redis) IsAlive(name string) (yes bool, err error) {
	var rc int

	if err = r.c.Do(radix.Cmd(&rc, "EXISTS", aliveKey(name))); err != nil {
		return
	}

	return rc == 1, nil
}

// DropState removes cached state and its alive key.
func (r *redis) DropState(name string) (err error) {
	return r.c.Do(radix.Cmd(nil, "DEL", stateKey(name), aliveKey(name)))
}

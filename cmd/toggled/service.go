package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/s0rg/toggle-ctl/pkg/api"
	"github.com/s0rg/toggle-ctl/pkg/db"
	"github.com/s0rg/toggle-ctl/pkg/redis"
)

const (
	sweepBufLen = 128
	sweepPeriod = time.Minute
	sweepWait   = time.Second / 2
)

var errSweepOverflow = errors.New("sweeper overflow")

type service struct {
	addr string
	db   db.Store
	rd   redis.Store
	wch  chan string
	qch  chan struct{}
}

func newService(addr string, dbs db.Store, rds redis.Store) *service {
	return &service{
		addr: addr,
		db:   dbs,
		rd:   rds,
		wch:  make(chan string, sweepBufLen),
		qch:  make(chan struct{}),
	}
}

// dropIfStale removes cached state once its alive key expired.
func (s *service) dropIfStale(name string) (alive bool, err error) {
	if alive, err = s.rd.IsAlive(name); err != nil || alive {
		return
	}

	err = s.rd.DropState(name)

	return alive, err
}

func (s *service) sweeper() {
	seen := make(map[string]struct{})

	t := time.NewTicker(sweepPeriod)
	defer t.Stop()

	defer close(s.wch)

	for {
		select {
		case name := <-s.wch:
			seen[name] = struct{}{}
		case <-t.C:
			for name := range seen {
				alive, err := s.dropIfStale(name)

				switch {
				case err != nil:
					log.Println("sweeper: drop error:", err)

					fallthrough
				case alive:
					continue
				default:
					delete(seen, name)
				}
			}
		case <-s.qch:
			return
		}
	}
}

func (s *service) watchKey(name string) (err error) {
	t := time.NewTimer(sweepWait)
	defer t.Stop()

	select {
	case s.wch <- name:
	case <-t.C:
		err = errSweepOverflow
	}

	return err
}

func (s *service) Serve() (err error) {
	h := api.New(s.db, s.rd, s.watchKey)

	srv := &http.Server{
		Addr:           s.addr,
		Handler:        h.Mux(),
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go s.sweeper()

	err = srv.ListenAndServe()

	close(s.qch)
	<-s.wch

	return err
}

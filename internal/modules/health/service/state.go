package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	lastCycleUnix   atomic.Int64 // unix seconds
	lastCycleErrors atomic.Bool
	cycles          atomic.Int64
	failedCycles    atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

// CycleDone отмечает завершённый цикл по инструменту.
func (s *State) CycleDone(t time.Time, errorsExist bool) {
	s.lastCycleUnix.Store(t.Unix())
	s.lastCycleErrors.Store(errorsExist)
	s.cycles.Add(1)
	if errorsExist {
		s.failedCycles.Add(1)
	}
}

func (s *State) LastCycle() time.Time {
	u := s.lastCycleUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) LastCycleErrors() bool { return s.lastCycleErrors.Load() }
func (s *State) Cycles() int64         { return s.cycles.Load() }
func (s *State) FailedCycles() int64   { return s.failedCycles.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

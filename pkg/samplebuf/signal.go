package samplebuf

import (
	"sync"
)

// Signal couples the condition variable with the mutex that guards the
// watermarks of every buffer attached to it, plus the run's stop flag.
// One lock and one condvar cover the whole run: the matcher's wait
// condition spans both buffers, so splitting the mutex would only
// complicate the signalling.
type Signal struct {
	locker  sync.Mutex
	cond    *sync.Cond
	stopped bool
	reason  error
}

func NewSignal() *Signal {
	s := &Signal{}
	s.cond = sync.NewCond(&s.locker)
	return s
}

// Stop raises the stop flag and wakes every waiter. The flag only ever
// transitions false->true; the reason given to the first call sticks
// (a nil one included) and later calls are no-ops.
func (s *Signal) Stop(reason error) {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.reason = reason
	s.cond.Broadcast()
}

func (s *Signal) Stopped() bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.stopped
}

// Reason returns the error the run was stopped with, if any. A nil
// reason means a normal stop (match found, ladder exhausted or stream
// ended).
func (s *Signal) Reason() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	return s.reason
}

// WaitReached blocks until every buffer's watermark has reached n, or
// the stop flag is raised before that happens, and reports whether the
// watermarks made it. All buffers must be attached to this signal.
//
// The check runs before the stop flag: data that is already there keeps
// being served even after a stop, which is what lets the matcher finish
// the rungs it still can after a producer ended early.
func (s *Signal) WaitReached(n int, bufs ...*Buffer) bool {
	s.locker.Lock()
	defer s.locker.Unlock()
	for {
		reached := true
		for _, b := range bufs {
			if b.watermark < n {
				reached = false
				break
			}
		}
		if reached {
			return true
		}
		if s.stopped {
			return false
		}
		s.cond.Wait()
	}
}

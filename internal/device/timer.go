package device

import "time"

// task is a self-rescheduling one-shot timer. After each firing fn
// reports the delay until the next firing, or false to stop. A stopped
// task never fires again; Cancel stops a pending firing and waits for
// the goroutine to exit.
type task struct {
	stop chan struct{}
	done chan struct{}
}

func newTask(initial time.Duration, fn func() (time.Duration, bool)) *task {
	t := &task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(initial, fn)
	return t
}

func (t *task) run(delay time.Duration, fn func() (time.Duration, bool)) {
	defer close(t.done)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-timer.C:
			next, again := fn()
			if !again {
				return
			}
			timer.Reset(next)
		}
	}
}

// cancel stops the task and waits for its goroutine. Must not be
// called while holding a lock that fn acquires.
func (t *task) cancel() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	<-t.done
}

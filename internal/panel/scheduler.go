package panel

import tea "github.com/charmbracelet/bubbletea"

// continuationMsg carries a guard continuation into the bubbletea event loop.
type continuationMsg func()

// Scheduler hands continuations to the program. Update is the only place they run,
// so the navigation store is only ever touched from the program goroutine.
type Scheduler struct {
	queue chan func()
	done  chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{queue: make(chan func(), 64), done: make(chan struct{})}
}

func (s *Scheduler) Post(fn func()) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

// Stop drops every continuation posted from now on.
func (s *Scheduler) Stop() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// next waits for one continuation. Update re-arms it after each delivery.
func (s *Scheduler) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.done:
			return nil
		default:
		}
		select {
		case fn := <-s.queue:
			return continuationMsg(fn)
		case <-s.done:
			return nil
		}
	}
}

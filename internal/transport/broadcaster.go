package transport

import "time"

const (
	debounceWindow = 100 * time.Millisecond
	maxStaleness   = 500 * time.Millisecond
)

// gameBroadcaster batches outbound state updates for one game: at most one
// emission per debounceWindow, with a hard ceiling of maxStaleness between
// the first pending update and its emission. Modeled on the teacher's
// per-game GameTimer goroutine (internal/websocket/timer.go) — one goroutine
// per game, reset via channel sends rather than by stopping and restarting a
// time.Timer.
type gameBroadcaster struct {
	gameID string
	hub    *Hub

	queueCh chan []byte
	flushCh chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
}

func newGameBroadcaster(gameID string, hub *Hub) *gameBroadcaster {
	b := &gameBroadcaster{
		gameID:  gameID,
		hub:     hub,
		queueCh: make(chan []byte, 1),
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *gameBroadcaster) queue(data []byte) {
	select {
	case b.queueCh <- data:
	case <-b.stopCh:
	}
}

func (b *gameBroadcaster) flushNow() {
	select {
	case b.flushCh <- struct{}{}:
	case <-b.stopCh:
	}
}

func (b *gameBroadcaster) stop() {
	close(b.stopCh)
	<-b.done
}

func (b *gameBroadcaster) run() {
	defer close(b.done)

	var pending []byte
	var debounce *time.Timer
	var ceiling *time.Timer

	stopTimer := func(t *time.Timer) {
		if t != nil {
			t.Stop()
		}
	}
	defer func() {
		stopTimer(debounce)
		stopTimer(ceiling)
	}()

	emit := func() {
		if pending == nil {
			return
		}
		b.hub.broadcastNow(b.gameID, pending)
		pending = nil
		stopTimer(debounce)
		stopTimer(ceiling)
		debounce = nil
		ceiling = nil
	}

	var debounceC, ceilingC <-chan time.Time

	for {
		select {
		case data := <-b.queueCh:
			pending = data
			stopTimer(debounce)
			debounce = time.NewTimer(debounceWindow)
			debounceC = debounce.C
			if ceiling == nil {
				ceiling = time.NewTimer(maxStaleness)
				ceilingC = ceiling.C
			}

		case <-debounceC:
			emit()
			debounceC = nil
			ceilingC = nil

		case <-ceilingC:
			emit()
			debounceC = nil
			ceilingC = nil

		case <-b.flushCh:
			emit()
			debounceC = nil
			ceilingC = nil

		case <-b.stopCh:
			return
		}
	}
}

package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/citychain-server/internal/events"
)

// MaxPlayers is the capacity of every room.
const MaxPlayers = 2

// Status is a room's position in the game state machine.
//
//	OPEN -> ACTIVE when the second player joins
//	ACTIVE -> ROUND_LOST -> ACTIVE on turn timeout (new round, same players)
//	ACTIVE -> ENDED_LEFT | ENDED_QUIT | ENDED_BANNED -> OPEN
//
// ROUND_LOST and the ENDED_* statuses are transient: they are kept as the
// room's last outcome while the room settles back into ACTIVE or OPEN.
type Status int

const (
	StatusOpen Status = iota
	StatusActive
	StatusRoundLost
	StatusEndedLeft
	StatusEndedQuit
	StatusEndedBanned
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusActive:
		return "active"
	case StatusRoundLost:
		return "round_lost"
	case StatusEndedLeft:
		return "ended_left"
	case StatusEndedQuit:
		return "ended_quit"
	case StatusEndedBanned:
		return "ended_banned"
	default:
		return "unknown"
	}
}

// RoomInfo is a point-in-time snapshot of a room.
type RoomInfo struct {
	ID          int
	Players     int
	Status      Status
	LastOutcome Status
	Round       int
	History     []string
}

func (i RoomInfo) String() string {
	return fmt.Sprintf("Room: %d | Players: %d/%d", i.ID, i.Players, MaxPlayers)
}

// RoomOptions configures a room. Zero values fall back to defaults.
type RoomOptions struct {
	TurnTimeout time.Duration
	// Pick returns a number in [0, n). It chooses the starting turn holder.
	Pick      func(n int) int
	Publisher events.Publisher
	Logger    *zerolog.Logger
}

type move struct {
	conn Conn
	text string
}

type delivery struct {
	conn  Conn
	event *Event
}

// effects are collected while the room lock is held and applied after it is
// released, so network writes never stall room state.
type effects struct {
	sends   []delivery
	records []events.Record

	ticket  uint64
	ordered bool
}

func (fx *effects) send(c Conn, ev *Event) {
	if c == nil {
		return
	}
	fx.sends = append(fx.sends, delivery{conn: c, event: ev})
}

func (fx *effects) publish(rec events.Record) {
	fx.records = append(fx.records, rec)
}

// Room holds up to two players and runs the city chain between them.
type Room struct {
	ID int

	turnTimeout time.Duration
	pick        func(int) int
	publisher   events.Publisher
	log         zerolog.Logger
	moves       *Queue[move]

	seq sequencer // orders delivery of effects across transitions

	mu      sync.Mutex
	players []Conn
	history []string
	status  Status
	outcome Status
	turn    Conn
	timer   *TurnTimer
	gen     uint64 // bumped on every arm/disarm; a timer only fires for its own generation
	round   int
}

// NewRoom constructs an open room with no players.
func NewRoom(id int, opts RoomOptions) *Room {
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = DefaultTurnTimeout
	}
	if opts.Pick == nil {
		opts.Pick = rand.IntN
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Room{
		ID:          id,
		turnTimeout: opts.TurnTimeout,
		pick:        opts.Pick,
		publisher:   opts.Publisher,
		log:         logger.With().Int("room", id).Logger(),
		moves:       NewQueue[move](),
		status:      StatusOpen,
		outcome:     StatusOpen,
	}
}

// Run consumes the move queue until ctx ends. Exactly one Run per room.
func (r *Room) Run(ctx context.Context) {
	for {
		m, err := r.moves.Pop(ctx)
		if err != nil {
			return
		}
		var fx effects
		r.mu.Lock()
		r.playMove(m, &fx)
		r.unlock(&fx)
		r.apply(&fx)
	}
}

// Submit queues a move for the room loop.
func (r *Room) Submit(c Conn, text string) {
	r.moves.Push(move{conn: c, text: text})
}

// Join adds a player. The second join starts the match.
func (r *Room) Join(c Conn) error {
	var fx effects
	r.mu.Lock()
	if r.indexOf(c) >= 0 {
		r.mu.Unlock()
		return ErrAlreadyJoined
	}
	if len(r.players) >= MaxPlayers {
		r.mu.Unlock()
		return ErrRoomFull
	}

	r.players = append(r.players, c)
	fx.send(c, notice(EventJoined, r.ID, fmt.Sprintf("You joined in %d!", r.ID)))
	if len(r.players) == MaxPlayers {
		r.round = 0
		fx.publish(events.NewRecord(events.KindMatchStarted, r.ID))
		r.startRound(&fx)
	}
	r.unlock(&fx)

	r.log.Info().Str("conn_id", c.ID()).Msg("player joined")
	r.apply(&fx)
	return nil
}

// Leave removes c after a CHANGE. If a match was running the opponent wins
// by forfeit and the room returns to OPEN.
func (r *Room) Leave(c Conn) {
	var fx effects
	r.mu.Lock()
	left := r.depart(c, StatusEndedLeft, "You left the room!", &fx)
	r.unlock(&fx)

	if left {
		r.log.Info().Str("conn_id", c.ID()).Msg("player left")
	}
	r.apply(&fx)
}

// Quit is Leave for a connection that is going away: after the best-effort
// notices the connection is closed.
func (r *Room) Quit(c Conn) {
	var fx effects
	r.mu.Lock()
	left := r.depart(c, StatusEndedQuit, "You left!", &fx)
	r.unlock(&fx)

	if left {
		r.log.Info().Str("conn_id", c.ID()).Msg("player quit")
	}
	r.apply(&fx)
	_ = c.Close()
}

// Ban ends a running match on behalf of issuer and returns the removed
// opponent. The caller checks privileges, records the ban and closes the
// returned connection.
func (r *Room) Ban(issuer Conn) (Conn, error) {
	var fx effects
	r.mu.Lock()
	if r.indexOf(issuer) < 0 {
		r.mu.Unlock()
		return nil, ErrNotInRoom
	}
	if len(r.players) < MaxPlayers || r.status != StatusActive {
		r.mu.Unlock()
		return nil, ErrNotActive
	}

	victim := r.opponent(issuer)
	fx.send(victim, notice(EventBanned, r.ID, "You have been banned!"))
	fx.send(issuer, notice(EventOpponentBanned, r.ID, "Your opponent was banned, you win!"))

	rec := events.NewRecord(events.KindPlayerBanned, r.ID)
	rec.Origin = victim.Origin()
	fx.publish(rec)

	r.endMatch(StatusEndedBanned, &fx)
	r.remove(victim)
	r.unlock(&fx)

	r.log.Info().Str("conn_id", victim.ID()).Str("origin", victim.Origin()).Msg("player banned")
	r.apply(&fx)
	return victim, nil
}

// Status reports the current state.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Turn returns the turn holder, or nil when no round is running.
func (r *Room) Turn() Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.turn
}

// History returns a copy of the cities accepted this round.
func (r *Room) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history)
}

// Players returns the current occupants in join order.
func (r *Room) Players() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.players)
}

// IsFull reports whether the room has no free seat.
func (r *Room) IsFull() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) >= MaxPlayers
}

// Info snapshots the room.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		ID:          r.ID,
		Players:     len(r.players),
		Status:      r.status,
		LastOutcome: r.outcome,
		Round:       r.round,
		History:     slices.Clone(r.history),
	}
}

// ValidCity reports whether city may follow history: anything opens a round,
// after that the city must start with the last letter of the previous city
// and must not repeat. Comparison is exact, case included.
func ValidCity(history []string, city string) bool {
	if city == "" {
		return false
	}
	if len(history) == 0 {
		return true
	}
	first, _ := utf8.DecodeRuneInString(city)
	return string(first) == lastLetter(history[len(history)-1]) && !slices.Contains(history, city)
}

func lastLetter(city string) string {
	last, _ := utf8.DecodeLastRuneInString(city)
	return string(last)
}

// The methods below expect r.mu to be held.

func (r *Room) playMove(m move, fx *effects) {
	if r.indexOf(m.conn) < 0 {
		return
	}
	if r.status != StatusActive {
		fx.send(m.conn, notice(EventWaitOpponent, r.ID, "Wait for your opponent.."))
		return
	}
	if m.conn != r.turn {
		fx.send(m.conn, errorEvent(EventWaitTurn, r.ID, coreError(ErrCodeNotYourTurn, "Wait for your turn!")))
		return
	}
	if !ValidCity(r.history, m.text) {
		fx.send(m.conn, errorEvent(EventMoveRejected, r.ID,
			coreError(ErrCodeInvalidMove, "This city starts with wrong letter or named before")))
		return
	}

	r.disarm()
	r.history = append(r.history, m.text)
	next := r.opponent(m.conn)
	letter := lastLetter(m.text)

	fx.send(m.conn, &Event{
		Kind:   EventMoveAccepted,
		Room:   r.ID,
		Text:   fmt.Sprintf("City %s accepted.", m.text),
		City:   m.text,
		Letter: letter,
	})
	fx.send(next, &Event{
		Kind: EventOpponentMove,
		Room: r.ID,
		Text: fmt.Sprintf("Your opponent named the city: %s.\nYou should name the city on letter '%s'.\nLast cities: %s",
			m.text, letter, strings.Join(r.history, ", ")),
		City:    m.text,
		Letter:  letter,
		History: slices.Clone(r.history),
	})

	r.turn = next
	r.armTurn(fx)
}

// expire is the turn timer callback. The holder loses the round and a new
// one starts immediately between the same players.
func (r *Room) expire(gen uint64) {
	var fx effects
	r.mu.Lock()
	if gen != r.gen || r.status != StatusActive {
		r.mu.Unlock()
		return
	}

	loser := r.turn
	r.timer = nil
	r.status = StatusRoundLost
	r.outcome = StatusRoundLost
	fx.send(loser, notice(EventRoundLost, r.ID, "Time is up, you lose!"))
	fx.send(r.opponent(loser), notice(EventRoundWon, r.ID, "Time of your opponent is up, you win!"))

	rec := events.NewRecord(events.KindRoundLost, r.ID)
	rec.Round = r.round
	rec.Cities = len(r.history)
	fx.publish(rec)

	r.startRound(&fx)
	r.unlock(&fx)

	r.log.Info().Str("conn_id", loser.ID()).Int("round", rec.Round).Msg("turn timed out")
	r.apply(&fx)
}

func (r *Room) startRound(fx *effects) {
	r.resetRound()
	r.status = StatusActive
	r.round++
	r.turn = r.players[r.pick(len(r.players))]
	for _, p := range r.players {
		fx.send(p, notice(EventGameStart, r.ID, "Game is starting!"))
	}
	r.armTurn(fx)
}

func (r *Room) armTurn(fx *effects) {
	fx.send(r.turn, notice(EventYourTurn, r.ID, "Now your turn!"))
	r.gen++
	gen := r.gen
	r.timer = StartTurnTimer(r.turnTimeout, func() { r.expire(gen) })
}

func (r *Room) disarm() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.gen++
}

func (r *Room) depart(c Conn, outcome Status, farewell string, fx *effects) bool {
	if r.indexOf(c) < 0 {
		fx.send(c, notice(EventLeft, 0, farewell))
		return false
	}
	if len(r.players) == MaxPlayers {
		fx.send(c, notice(EventMatchLost, r.ID, "You lose!"))
		fx.send(r.opponent(c), notice(EventMatchWon, r.ID, "Your opponent left, you win!"))
		r.endMatch(outcome, fx)
	}
	fx.send(c, notice(EventLeft, r.ID, farewell))
	r.remove(c)
	return true
}

func (r *Room) endMatch(outcome Status, fx *effects) {
	rec := events.NewRecord(events.KindMatchEnded, r.ID)
	rec.Outcome = outcome.String()
	rec.Round = r.round
	rec.Cities = len(r.history)
	fx.publish(rec)

	r.disarm()
	r.status = outcome
	r.outcome = outcome
	r.resetRound()
	r.status = StatusOpen
}

func (r *Room) resetRound() {
	r.history = nil
	r.turn = nil
	r.moves.Clear()
}

func (r *Room) remove(c Conn) {
	if idx := r.indexOf(c); idx >= 0 {
		r.players = slices.Delete(r.players, idx, idx+1)
	}
}

func (r *Room) indexOf(c Conn) int {
	return slices.Index(r.players, c)
}

func (r *Room) opponent(c Conn) Conn {
	for _, p := range r.players {
		if p != c {
			return p
		}
	}
	return nil
}

// unlock releases the room lock after reserving fx's delivery slot, so
// effects reach clients in the order their transitions happened.
func (r *Room) unlock(fx *effects) {
	fx.ticket = r.seq.take()
	fx.ordered = true
	r.mu.Unlock()
}

// apply performs collected effects. Delivery is best effort: a failed send
// never undoes a transition.
func (r *Room) apply(fx *effects) {
	if fx.ordered {
		r.seq.wait(fx.ticket)
		defer r.seq.done()
	}
	for _, d := range fx.sends {
		if err := d.conn.Send(d.event); err != nil {
			r.log.Debug().Err(err).Str("conn_id", d.conn.ID()).Str("event", d.event.Kind.String()).Msg("send failed")
		}
	}
	for _, rec := range fx.records {
		if err := r.publisher.Publish(context.Background(), rec); err != nil {
			r.log.Warn().Err(err).Str("kind", string(rec.Kind)).Msg("publish event failed")
		}
	}
}

// Package net connects a swap session to a room server over websocket
// and drives it from a terminal REPL.
package net

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"hoanbai/internal/chant"
	"hoanbai/internal/energy"
	"hoanbai/internal/log"
	"hoanbai/internal/protocol"
	"hoanbai/internal/session"
)

var matcher *chant.Matcher

// SetChantFile loads a chant variant table to use instead of the
// built-in one. Must be called before Host or Connect.
func SetChantFile(path string) error {
	m, err := chant.LoadMatcher(path)
	if err != nil {
		return err
	}
	matcher = m
	return nil
}

// Client owns the websocket connection and the single control flow on
// which gesture simulation, timers, and server messages interleave.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
	ctx  context.Context
	sess *session.Session
}

// Send implements session.Sender over the websocket.
func (c *Client) Send(msg protocol.ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(c.ctx, websocket.MessageText, data)
}

// Host dials the server, creates a new room, and plays in it.
func Host(ctx context.Context, url, playerID string, mode, maxBoosts, decks int) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.CloseNow()

	create := protocol.ClientMessage{
		Type:      protocol.TypeCreateRoom,
		Mode:      mode,
		MaxBoosts: maxBoosts,
		Decks:     decks,
	}
	data, err := json.Marshal(create)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	_, raw, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	var created protocol.ServerMessage
	if err := json.Unmarshal(raw, &created); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if created.Type != protocol.TypeRoomCreated {
		return fmt.Errorf("create room: unexpected reply %q", created.Type)
	}
	fmt.Printf("Room created: %s (share this code)\n", created.RoomID)

	return play(ctx, conn, created.RoomID, playerID)
}

// Connect dials the server, joins the room, and runs the REPL until
// the context ends or the player quits.
func Connect(ctx context.Context, url, roomID, playerID string) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.CloseNow()

	return play(ctx, conn, roomID, playerID)
}

func play(ctx context.Context, conn *websocket.Conn, roomID, playerID string) error {
	c := &Client{conn: conn, ctx: ctx}
	c.sess = session.New(session.Config{
		RoomID:   roomID,
		PlayerID: playerID,
		Caps:     session.Capabilities{Touch: true, Motion: true, Microphone: true},
		Matcher:  matcher,
		Logger:   log.NewTextLogger(os.Stdout),
	}, c)

	if err := c.sess.Join(); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	fmt.Printf("Joined room %s as %s\n", roomID, playerID)
	fmt.Println(`Type "help" for commands.`)

	return c.run(ctx)
}

// run is the event loop: server messages, stdin commands, and the two
// energy timers all land here, so the session never needs locking.
func (c *Client) run(ctx context.Context) error {
	msgs := make(chan protocol.ServerMessage, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := c.conn.Read(ctx)
			if err != nil {
				readErr <- err
				return
			}
			var msg protocol.ServerMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			msgs <- msg
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	decay := time.NewTicker(100 * time.Millisecond)
	defer decay.Stop()
	avg := time.NewTicker(500 * time.Millisecond)
	defer avg.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return fmt.Errorf("connection lost: %w", err)
		case msg := <-msgs:
			c.handleServer(msg)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.handleCommand(line)
			if err != nil {
				fmt.Println("!", err)
			}
			if quit {
				return nil
			}
		case <-decay.C:
			c.sess.DecayTick(time.Now())
		case <-avg.C:
			c.sess.AverageTick()
		}
	}
}

func (c *Client) handleServer(msg protocol.ServerMessage) {
	err := c.sess.HandleServer(msg)
	switch msg.Type {
	case protocol.TypeGameStarted:
		c.renderHand()
		fmt.Printf("Round state: %d/%d swaps used, boost %d%%\n",
			c.sess.QuotaUsed(), c.sess.QuotaAllowed(), c.sess.Ladder().Percent())
	case protocol.TypeCardSwapped, protocol.TypeBoostCompleted:
		if card, ok := c.sess.LastResult(); ok && c.sess.Mode() == session.ModeAwaitingAck {
			fmt.Printf("Swap confirmed: received %s. Type \"ok\" to continue.\n", card)
		}
	case protocol.TypeSwapFailed, protocol.TypeError:
		fmt.Println("Server:", msg.Message)
	case protocol.TypePlayerJoined:
		fmt.Printf("Player joined (%d in room)\n", msg.PlayersCount)
	case protocol.TypeAllFolded:
		fmt.Println(msg.Message)
		fmt.Println(`Type "ready" when you want the next round.`)
	case protocol.TypeNewRoundStarted:
		fmt.Println(msg.Message)
	}
	_ = err // rejections are already printed above
}

func (c *Client) handleCommand(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()
	case "hand":
		c.renderHand()
	case "status":
		c.renderStatus()
	case "select":
		slot, err := oneIndex(args)
		if err != nil {
			return false, err
		}
		if err := c.sess.SelectCard(slot); err != nil {
			return false, err
		}
		fmt.Printf("Selected card %d\n", slot+1)
	case "swap":
		if err := c.sess.BeginSwap(); err != nil {
			return false, err
		}
		if c.sess.Mode() == session.ModeAwaitingTarget {
			fmt.Printf("Pick a target value with \"target <1-13>\". Available: %v\n", c.sess.TargetValues())
		} else {
			fmt.Println(`Collecting energy: "rub" or "shake" to charge.`)
		}
	case "target":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: target <1-13>")
		}
		v, convErr := strconv.Atoi(args[0])
		if convErr != nil {
			return false, fmt.Errorf("usage: target <1-13>")
		}
		if err := c.sess.ChooseTarget(v); err != nil {
			return false, err
		}
		fmt.Println(`Target locked. "rub" or "shake" to charge.`)
	case "rub":
		return false, c.rub(parseCount(args, 200))
	case "shake":
		return false, c.shake(parseCount(args, 12))
	case "cancel":
		if err := c.sess.CancelSwap(); err != nil {
			return false, err
		}
		fmt.Println("Swap cancelled.")
	case "listen":
		if err := c.sess.StartListening(); err != nil {
			return false, err
		}
		fmt.Println(`Listening. Use "chant <phrase>" to submit a transcript.`)
	case "chant":
		if c.sess.RecognizerState() == session.RecognizerIdle {
			if err := c.sess.StartListening(); err != nil {
				return false, err
			}
		}
		before := c.sess.Ladder().Level()
		if err := c.sess.FinalTranscript(strings.Join(args, " ")); err != nil {
			return false, err
		}
		if c.sess.Ladder().Level() > before {
			fmt.Printf("Chant accepted! Boost now %d%%\n", c.sess.Ladder().Percent())
		} else {
			fmt.Println("Chant not recognized, boost unchanged.")
		}
	case "flip":
		slot, err := oneIndex(args)
		if err != nil {
			return false, err
		}
		return false, c.sess.Reveal(slot)
	case "move":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: move <a> <b>")
		}
		a, errA := strconv.Atoi(args[0])
		b, errB := strconv.Atoi(args[1])
		if errA != nil || errB != nil {
			return false, fmt.Errorf("usage: move <a> <b>")
		}
		return false, c.sess.SwapHandPositions(a-1, b-1)
	case "fold":
		return false, c.sess.Fold()
	case "ready":
		return false, c.sess.ReadyForNewRound()
	case "ok":
		return false, c.sess.Acknowledge()
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, try \"help\"", cmd)
	}
	return false, nil
}

// rub simulates four fingers rubbing the card: frames 16ms apart with
// displacement well past the noise threshold.
func (c *Client) rub(frames int) error {
	if c.sess.Mode() != session.ModeCollectingEnergy {
		return fmt.Errorf(`start a swap first ("select <n>", then "swap")`)
	}
	at := time.Now()
	frame := func(offset float64, at time.Time) []energy.PointerSample {
		out := make([]energy.PointerSample, 4)
		for i := range out {
			out[i] = energy.PointerSample{ID: i, X: offset, Y: float64(120 * i), T: at}
		}
		return out
	}
	if err := c.sess.IngestPointer(frame(0, at)); err != nil {
		return err
	}
	for i := 1; i <= frames && c.sess.Mode() == session.ModeCollectingEnergy; i++ {
		at = at.Add(16 * time.Millisecond)
		if err := c.sess.IngestPointer(frame(float64(50*i), at)); err != nil {
			return err
		}
	}
	c.renderEnergy()
	return nil
}

// shake simulates device shakes: alternating hard acceleration deltas.
func (c *Client) shake(count int) error {
	if c.sess.Mode() != session.ModeCollectingEnergy {
		return fmt.Errorf(`start a swap first ("select <n>", then "swap")`)
	}
	at := time.Now()
	if err := c.sess.IngestMotion(energy.MotionSample{AZ: 9.8, T: at}); err != nil {
		return err
	}
	for i := 0; i < count && c.sess.Mode() == session.ModeCollectingEnergy; i++ {
		at = at.Add(50 * time.Millisecond)
		s := energy.MotionSample{AZ: 9.8, T: at}
		if i%2 == 0 {
			s.AX = 25
		}
		if err := c.sess.IngestMotion(s); err != nil {
			return err
		}
	}
	c.renderEnergy()
	return nil
}

func (c *Client) renderEnergy() {
	switch c.sess.Mode() {
	case session.ModeCollectingEnergy:
		fmt.Printf("Energy %d%%, speed %.0f\n", c.sess.EnergyPercent(), c.sess.AverageSpeed())
	case session.ModeAwaitingAck:
		fmt.Println("Energy full! Swap request sent, waiting for the server...")
	}
}

func (c *Client) renderHand() {
	hand := c.sess.Hand()
	if len(hand) == 0 {
		fmt.Println("No cards yet.")
		return
	}
	revealed := make(map[int]bool)
	for _, slot := range c.sess.Revealed() {
		revealed[slot] = true
	}
	fmt.Print("Hand: ")
	for i, card := range hand {
		marker := ""
		if revealed[i] {
			marker = "*"
		}
		if i == c.sess.SelectedSlot() {
			fmt.Printf("[%d]>%s%s<  ", i+1, card, marker)
		} else {
			fmt.Printf("[%d] %s%s  ", i+1, card, marker)
		}
	}
	fmt.Println("(* = face up)")
}

func (c *Client) renderStatus() {
	fmt.Printf("Mode: %s | Round %d | Swaps %d/%d | Boost %d%% | %s\n",
		c.sess.Mode(), c.sess.Round(),
		c.sess.QuotaUsed(), c.sess.QuotaAllowed(),
		c.sess.Ladder().Percent(), c.sess.Ladder().Instruction())
	if c.sess.Mode() == session.ModeCollectingEnergy {
		fmt.Printf("Energy %d%%\n", c.sess.EnergyPercent())
	}
}

func printHelp() {
	fmt.Println(`Commands:
  hand              show your cards
  status            show session state
  select <n>        pick the card to swap away
  swap              start a swap (boosted tiers ask for a target)
  target <1-13>     choose the desired value for a boosted swap
  rub [frames]      rub the card with four fingers
  shake [count]     shake the device instead
  cancel            abandon the swap in progress
  chant <phrase>    speak the chant to raise the boost tier
  flip <n>          reveal one of your cards
  move <a> <b>      reorder two hand slots
  fold              give up for this round (reveals everything)
  ready             ready up for the next round
  ok                dismiss the swap result
  quit              leave`)
}

func oneIndex(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one card number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a card number starting at 1")
	}
	return n - 1, nil
}

func parseCount(args []string, fallback int) int {
	if len(args) == 1 {
		if n, err := strconv.Atoi(args[0]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

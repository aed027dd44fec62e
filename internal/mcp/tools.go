package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"hoanbai/internal/session"
)

// activeTable is the singleton practice table (one per stdio process).
var activeTable *practice

// RegisterTools adds all practice-table tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(newTableTool(), handleNewTable)
	s.AddTool(tableStateTool(), handleTableState)
	s.AddTool(selectCardTool(), handleSelectCard)
	s.AddTool(startSwapTool(), handleStartSwap)
	s.AddTool(chooseTargetTool(), handleChooseTarget)
	s.AddTool(rubTool(), handleRub)
	s.AddTool(shakeTool(), handleShake)
	s.AddTool(waitTool(), handleWait)
	s.AddTool(cancelSwapTool(), handleCancelSwap)
	s.AddTool(chantTool(), handleChant)
	s.AddTool(acknowledgeTool(), handleAcknowledge)
	s.AddTool(flipCardTool(), handleFlipCard)
	s.AddTool(moveCardTool(), handleMoveCard)
	s.AddTool(foldTool(), handleFold)
	s.AddTool(readyTool(), handleReady)
	s.AddTool(eventsTool(), handleEvents)
	s.AddTool(poolTool(), handlePool)
}

// --- Tool definitions ---

func newTableTool() mcp.Tool {
	return mcp.NewTool("new_table",
		mcp.WithDescription("Start a fresh solo practice table: a local room with one dealt hand. "+
			"Replaces any existing table."),
		mcp.WithNumber("mode", mcp.Description("Hand size, 3 or 6 (default 3)")),
		mcp.WithNumber("max_boosts", mcp.Description("Swaps allowed per round (default 3)")),
		mcp.WithNumber("decks", mcp.Description("Number of decks, 1-3 (default 1)")),
	)
}

func tableStateTool() mcp.Tool {
	return mcp.NewTool("table_state",
		mcp.WithDescription("Get the current table state: hand, mode, energy, boost tier, and quota. Read-only."),
	)
}

func selectCardTool() mcp.Tool {
	return mcp.NewTool("select_card",
		mcp.WithDescription("Select the hand slot to swap away. Required before start_swap."),
		mcp.WithNumber("slot", mcp.Required(), mcp.Description("0-based hand slot")),
	)
}

func startSwapTool() mcp.Tool {
	return mcp.NewTool("start_swap",
		mcp.WithDescription("Start a swap for the selected card. At the base tier this begins energy "+
			"collection; at a boosted tier the table waits for choose_target first."),
	)
}

func chooseTargetTool() mcp.Tool {
	return mcp.NewTool("choose_target",
		mcp.WithDescription("Choose the desired card value for a boosted swap."),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Card value 1-13 (1 = ace, 13 = king)")),
	)
}

func rubTool() mcp.Tool {
	return mcp.NewTool("rub",
		mcp.WithDescription("Rub the card with four simulated fingers to build energy. The swap fires "+
			"when energy reaches 100%."),
		mcp.WithNumber("frames", mcp.Description("How many 16ms gesture frames to feed (default 200, enough to fill)")),
	)
}

func shakeTool() mcp.Tool {
	return mcp.NewTool("shake",
		mcp.WithDescription("Shake the simulated device to build energy instead of rubbing."),
		mcp.WithNumber("count", mcp.Description("How many shake samples to feed (default 12, enough to fill)")),
	)
}

func waitTool() mcp.Tool {
	return mcp.NewTool("wait",
		mcp.WithDescription("Let time pass with the fingers at rest, draining energy through decay."),
		mcp.WithNumber("ms", mcp.Required(), mcp.Description("Milliseconds of idle time")),
	)
}

func cancelSwapTool() mcp.Tool {
	return mcp.NewTool("cancel_swap",
		mcp.WithDescription("Abandon the swap in progress. Accumulated energy is discarded."),
	)
}

func chantTool() mcp.Tool {
	return mcp.NewTool("chant",
		mcp.WithDescription("Submit a spoken-chant transcript. A correct chant raises the boost tier "+
			"(1% → 10% → 20% → 30%)."),
		mcp.WithString("phrase", mcp.Required(), mcp.Description("The transcribed phrase, e.g. 'nam mô a di đà phật'")),
	)
}

func acknowledgeTool() mcp.Tool {
	return mcp.NewTool("acknowledge",
		mcp.WithDescription("Dismiss the swap result and return to idle."),
	)
}

func flipCardTool() mcp.Tool {
	return mcp.NewTool("flip_card",
		mcp.WithDescription("Reveal one of your cards face up. Reveals last until the next round."),
		mcp.WithNumber("slot", mcp.Required(), mcp.Description("0-based hand slot")),
	)
}

func moveCardTool() mcp.Tool {
	return mcp.NewTool("move_card",
		mcp.WithDescription("Reorder two hand slots. Cosmetic only."),
		mcp.WithNumber("from", mcp.Required(), mcp.Description("0-based slot")),
		mcp.WithNumber("to", mcp.Required(), mcp.Description("0-based slot")),
	)
}

func foldTool() mcp.Tool {
	return mcp.NewTool("fold",
		mcp.WithDescription("Give up for this round. Reveals all cards and disables swapping until the next round."),
	)
}

func readyTool() mcp.Tool {
	return mcp.NewTool("ready_next_round",
		mcp.WithDescription("Ready up for the next round. On a solo table this starts it immediately."),
	)
}

func eventsTool() mcp.Tool {
	return mcp.NewTool("events",
		mcp.WithDescription("List recent session events. Read-only."),
		mcp.WithNumber("limit", mcp.Description("Maximum events to return (default 20)")),
	)
}

func poolTool() mcp.Tool {
	return mcp.NewTool("pool",
		mcp.WithDescription("Show the shared card pool: how many cards are claimed and which values remain. Read-only."),
	)
}

// --- Tool handlers ---

func requireTable() (*practice, *mcp.CallToolResult) {
	if activeTable == nil {
		return nil, mcp.NewToolResultError("No table yet. Use new_table first.")
	}
	return activeTable, nil
}

func handleNewTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode := request.GetInt("mode", 3)
	maxBoosts := request.GetInt("max_boosts", 3)
	decks := request.GetInt("decks", 1)
	activeTable = newPractice(mode, maxBoosts, decks)
	return mcp.NewToolResultText(activeTable.state(nil)), nil
}

func handleTableState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	return mcp.NewToolResultText(p.state(nil)), nil
}

func handleSelectCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.SelectCard(request.GetInt("slot", -1)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleStartSwap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.BeginSwap(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleChooseTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.ChooseTarget(request.GetInt("value", 0)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleRub(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.rub(request.GetInt("frames", 200)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleShake(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.shake(request.GetInt("count", 12)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleWait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	ms := request.GetInt("ms", 0)
	if ms <= 0 {
		return mcp.NewToolResultError("ms must be > 0"), nil
	}
	p.wait(time.Duration(ms) * time.Millisecond)
	return mcp.NewToolResultText(p.state(nil)), nil
}

func handleCancelSwap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.CancelSwap(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(nil)), nil
}

func handleChant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	phrase := strings.TrimSpace(request.GetString("phrase", ""))
	if phrase == "" {
		return mcp.NewToolResultError("phrase must not be empty"), nil
	}
	if p.sess.RecognizerState() != session.RecognizerListening {
		if err := p.sess.StartListening(); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	before := p.sess.Ladder().Level()
	if err := p.sess.FinalTranscript(phrase); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notices := p.pump()
	if p.sess.Ladder().Level() > before {
		notices = append(notices, "chant accepted")
	} else {
		notices = append(notices, "chant not recognized")
	}
	return mcp.NewToolResultText(p.state(notices)), nil
}

func handleAcknowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.Acknowledge(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(nil)), nil
}

func handleFlipCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.Reveal(request.GetInt("slot", -1)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleMoveCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.SwapHandPositions(request.GetInt("from", -1), request.GetInt("to", -1)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleFold(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.Fold(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleReady(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	if err := p.sess.ReadyForNewRound(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(p.state(p.pump())), nil
}

func handleEvents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	return mcp.NewToolResultText(p.events(request.GetInt("limit", 20))), nil
}

func handlePool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, fail := requireTable()
	if fail != nil {
		return fail, nil
	}
	return mcp.NewToolResultText(p.poolSummary()), nil
}

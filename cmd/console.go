package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"smartstay-cli/control"
	"smartstay-cli/state"
	"smartstay-cli/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

const consoleHelp = "[+/-] size  [b] book  [1/2] scenario  [r] reset  [z] randomize  [g] refresh  [c] dismiss  [q] quit"

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive control surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return fmt.Errorf("console does not support --json")
			}

			controller, closeFn := newController()
			defer closeFn()

			fd := int(os.Stdin.Fd())
			interactive := term.IsTerminal(fd)
			var out io.Writer = os.Stdout
			if interactive {
				oldState, err := term.MakeRaw(fd)
				if err != nil {
					return err
				}
				defer term.Restore(fd, oldState)
				out = crlfWriter{w: os.Stdout}
			}

			c := newConsole(controller, out, view.ColorEnabled(os.Stdout), interactive)
			return c.run(context.Background(), os.Stdin)
		},
	}
}

// console drives a Controller from single key presses. In interactive mode
// actions run in the background and every snapshot is redrawn; otherwise
// keys are handled one after another and a frame is drawn per input line.
type console struct {
	controller  *control.Controller
	out         io.Writer
	color       bool
	interactive bool

	drawMu  sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup
}

func newConsole(controller *control.Controller, out io.Writer, color, interactive bool) *console {
	return &console{
		controller:  controller,
		out:         out,
		color:       color,
		interactive: interactive,
	}
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.interactive {
		c.controller.Store().Subscribe(c.draw)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.controller.AutoRefresh(ctx, cfg.RefreshInterval.Std())
		}()
	}

	c.draw(c.controller.Snapshot())
	c.spawn(func() { c.controller.Refresh(ctx) })

	err := c.readKeys(ctx, in)
	cancel()
	c.wg.Wait()
	if !c.interactive {
		c.draw(c.controller.Snapshot())
	}
	return err
}

func (c *console) readKeys(ctx context.Context, in io.Reader) error {
	reader := bufio.NewReader(in)
	if c.interactive {
		for {
			key, err := reader.ReadByte()
			if err != nil {
				return ignoreEOF(err)
			}
			if c.handleKey(ctx, key) {
				return nil
			}
		}
	}

	for {
		line, err := reader.ReadBytes('\n')
		for _, key := range bytes.TrimSpace(line) {
			if c.handleKey(ctx, key) {
				return nil
			}
		}
		if err != nil {
			return ignoreEOF(err)
		}
		c.draw(c.controller.Snapshot())
	}
}

// handleKey reports whether the console should exit.
func (c *console) handleKey(ctx context.Context, key byte) bool {
	switch key {
	case 'q', 'Q', 3, 4:
		return true
	case '+', '=':
		c.controller.StepSize(1)
	case '-', '_':
		c.controller.StepSize(-1)
	case 'c', 'C':
		c.controller.Dismiss()
	case 'g', 'G':
		c.spawn(func() { c.controller.Refresh(ctx) })
	case 'b', 'B':
		c.trigger(func() {
			c.controller.RequestBooking(ctx, c.controller.Snapshot().RequestedSize)
		})
	case '1', '2':
		id := int(key - '0')
		c.trigger(func() { c.controller.RunScenario(ctx, id) })
	case 'r', 'R':
		c.trigger(func() { c.controller.RunSimpleAction(ctx, state.ActionReset) })
	case 'z', 'Z':
		c.trigger(func() { c.controller.RunSimpleAction(ctx, state.ActionRandomize) })
	}
	return false
}

// trigger starts an action unless one is already running.
func (c *console) trigger(action func()) {
	if c.controller.Busy() || !c.running.CompareAndSwap(false, true) {
		logger.Debug("ignoring key while an action is running")
		return
	}
	c.spawn(func() {
		defer c.running.Store(false)
		action()
	})
}

func (c *console) spawn(fn func()) {
	if !c.interactive {
		fn()
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *console) draw(snap state.Snapshot) {
	c.drawMu.Lock()
	defer c.drawMu.Unlock()

	if c.interactive {
		fmt.Fprint(c.out, "\x1b[H\x1b[2J")
	}
	if err := view.Render(c.out, snap.Floors(), view.RenderOptions{Color: c.color, Compact: outputCompact}); err != nil {
		logger.Warn("render failed", zap.Error(err))
		return
	}

	status := ""
	if snap.Loading {
		status = "  Allocating..."
	}
	fmt.Fprintf(c.out, "\nRooms: [ %d ]%s\n", snap.RequestedSize, status)
	printStatus(c.out, snap)
	fmt.Fprintln(c.out, consoleHelp)
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// crlfWriter restores carriage returns that raw mode stops translating.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

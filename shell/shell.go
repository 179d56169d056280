package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/chzyer/readline"
	"github.com/goccy/go-json"
	"github.com/nsf/jsondiff"
	"github.com/wkalt/treeviz/controller"
	"github.com/wkalt/treeviz/render"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/treetext"
	"github.com/wkalt/treeviz/util"
)

/*
Package shell is an interactive command loop over a controller. It offers the
same operations as the viewer page, addressed by coordinates instead of mouse
gestures, and after every backend action prints what changed in the snapshot.
*/

////////////////////////////////////////////////////////////////////////////////

const prompt = "treeviz # "

const help = `Commands:
  step                     advance the pending operation
  reset                    reset the backend tree
  refresh                  refetch the snapshot and rebuild the layout
  relayout                 rebuild the layout, discarding drags
  delete <key>             delete a key
  click <x> <y>            delete the key of the cell at (x, y)
  drag <x1> <y1> <x2> <y2> drag the cell at (x1, y1) to (x2, y2)
  hit <x> <y>              show the cell at (x, y)
  print                    print the tree
  save <path>              render the current frame to a .svg or .png file
  help                     show this message
  exit                     leave the shell`

// Shell executes commands against a controller.
type Shell struct {
	ctrl     *controller.Controller
	parser   *participle.Parser[Command]
	printer  *treetext.Printer
	palette  render.Palette
	colorize bool
	out      io.Writer
}

// New returns a shell writing to out.
func New(ctrl *controller.Controller, out io.Writer, colorize bool) *Shell {
	return &Shell{
		ctrl:     ctrl,
		parser:   NewParser(),
		printer:  treetext.NewPrinter(colorize),
		palette:  render.DefaultPalette(),
		colorize: colorize,
		out:      out,
	}
}

// Run reads commands from the terminal until EOF or exit.
func (s *Shell) Run(ctx context.Context, historyFile string) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	defer l.Close()
	l.CaptureExitSignal()
	s.out = l.Stdout()

	fmt.Fprintln(s.out, `Type "help" for help.`)
	for {
		line, err := l.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		quit, err := s.Execute(ctx, line)
		if err != nil {
			fmt.Fprintln(s.out, "ERROR: "+err.Error())
		}
		if quit {
			return nil
		}
	}
}

// Execute runs a single command line. It reports whether the shell should
// exit.
func (s *Shell) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, err := s.parser.ParseString("", line)
	if err != nil {
		return false, fmt.Errorf("invalid command: %w", err)
	}
	switch {
	case cmd.Quit:
		return true, nil
	case cmd.Help:
		fmt.Fprintln(s.out, help)
		return false, nil
	case cmd.Step:
		return false, s.diffed(func() error { return s.ctrl.RequestStep(ctx) })
	case cmd.Reset:
		return false, s.diffed(func() error { return s.ctrl.RequestReset(ctx) })
	case cmd.Refresh:
		return false, s.diffed(func() error { return s.ctrl.Refresh(ctx) })
	case cmd.Delete != nil:
		return false, s.diffed(func() error { return s.ctrl.DeleteKey(ctx, snapshot.Key(*cmd.Delete)) })
	case cmd.Click != nil:
		return false, s.click(ctx, *cmd.Click)
	case cmd.Relayout:
		if err := s.ctrl.Relayout(); err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, "layout rebuilt")
		return false, nil
	case cmd.Drag != nil:
		return false, s.drag(*cmd.Drag)
	case cmd.Hit != nil:
		return false, s.hit(*cmd.Hit)
	case cmd.Print:
		return false, s.print()
	case cmd.Save != nil:
		return false, s.save(*cmd.Save)
	default:
		return false, fmt.Errorf("unhandled command %q", line)
	}
}

func (s *Shell) click(ctx context.Context, p Point) error {
	var hit bool
	err := s.diffed(func() error {
		var err error
		hit, err = s.ctrl.RequestDelete(ctx, p.X, p.Y)
		return err
	})
	if err == nil && !hit {
		fmt.Fprintf(s.out, "no cell at (%g, %g)\n", p.X, p.Y)
	}
	return err
}

func (s *Shell) drag(d Drag) error {
	if !s.ctrl.BeginDrag(d.From.X, d.From.Y) {
		fmt.Fprintf(s.out, "no cell at (%g, %g)\n", d.From.X, d.From.Y)
		return nil
	}
	defer s.ctrl.EndDrag()
	s.ctrl.PointerMove(d.To.X, d.To.Y)
	fmt.Fprintf(s.out, "moved cell to (%g, %g)\n", d.To.X, d.To.Y)
	return nil
}

func (s *Shell) hit(p Point) error {
	l := s.ctrl.Layout()
	if l == nil {
		return controller.ErrNotLoaded
	}
	idx, ok := s.ctrl.HitTestCell(p.X, p.Y)
	if !ok {
		fmt.Fprintf(s.out, "no cell at (%g, %g)\n", p.X, p.Y)
		return nil
	}
	cell := l.Cells[idx]
	owner := "staging"
	if cell.Owner != nil {
		owner = fmt.Sprintf("%s[%d]", cell.Owner, cell.Index)
	}
	fmt.Fprintf(s.out, "cell %d: key %s at %s (%g, %g) %s\n",
		idx, cell.Key, owner, cell.X, cell.Y, cell.Highlight)
	return nil
}

func (s *Shell) print() error {
	snap := s.ctrl.Snapshot()
	if snap == nil {
		return controller.ErrNotLoaded
	}
	out, err := s.printer.Format(snap)
	if err != nil {
		return err
	}
	fmt.Fprint(s.out, out)
	return nil
}

func (s *Shell) save(path string) error {
	l := s.ctrl.Layout()
	if l == nil {
		return controller.ErrNotLoaded
	}
	format, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	cw := util.NewCountingWriter(f)
	if err := render.Encode(cw, format, l, s.ctrl.Snapshot().NodeCapacity, s.palette); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	fmt.Fprintf(s.out, "wrote %s (%s)\n", path, util.HumanBytes(uint64(cw.Count())))
	return nil
}

// diffed runs action and prints how the snapshot changed.
func (s *Shell) diffed(action func() error) error {
	before, err := encode(s.ctrl.Snapshot())
	if err != nil {
		return err
	}
	if err := action(); err != nil {
		return err
	}
	snap := s.ctrl.Snapshot()
	after, err := encode(snap)
	if err != nil {
		return err
	}
	diff, text := jsondiff.Compare(before, after, s.diffOptions())
	if diff == jsondiff.FullMatch {
		fmt.Fprintln(s.out, "no change")
	} else {
		fmt.Fprintln(s.out, text)
	}
	if snap != nil {
		digest, err := snap.Digest()
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "snapshot %016x\n", digest)
	}
	return nil
}

func (s *Shell) diffOptions() *jsondiff.Options {
	opts := jsondiff.DefaultConsoleOptions()
	opts.SkipMatches = true
	if !s.colorize {
		opts.Added = jsondiff.Tag{Begin: "+", End: ""}
		opts.Removed = jsondiff.Tag{Begin: "-", End: ""}
		opts.Changed = jsondiff.Tag{}
		opts.Skipped = jsondiff.Tag{}
	}
	return &opts
}

func encode(snap *snapshot.Snapshot) ([]byte, error) {
	if snap == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

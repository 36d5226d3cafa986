package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/spektr-org/linkview/engine"
	"github.com/spektr-org/linkview/views"
)

// ============================================================================
// SESSION — line-driven brushing against a Dashboard
// ============================================================================
// Each line is split with shell quoting so column names may hold spaces:
//
//	draw x=origin "y=Miles per Gallon"
//	brush scatter 0 0 300 200
//
// A bad command prints an error and the session continues.
// ============================================================================

type geometry struct {
	radius, width, height float64
}

type command struct {
	name   string
	target string
	coords []float64
	assign map[string]string
}

var errQuit = errors.New("quit")

// parseCommand splits and validates one session line. A blank line
// yields a zero command.
func parseCommand(line string) (command, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return command{}, fmt.Errorf("bad quoting: %w", err)
	}
	if len(words) == 0 {
		return command{}, nil
	}

	cmd := command{name: strings.ToLower(words[0])}
	args := words[1:]
	switch cmd.name {
	case "brush":
		if len(args) == 0 {
			return cmd, fmt.Errorf("usage: brush scatter x0 y0 x1 y1 | brush histogram x0 x1")
		}
		cmd.target = args[0]
		for _, a := range args[1:] {
			f, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return cmd, fmt.Errorf("bad coordinate %q", a)
			}
			cmd.coords = append(cmd.coords, f)
		}
		switch {
		case cmd.target == views.HistogramID && len(cmd.coords) == 2:
			cmd.coords = []float64{cmd.coords[0], 0, cmd.coords[1], 0}
		case len(cmd.coords) != 4:
			return cmd, fmt.Errorf("brush %s needs 4 coordinates, got %d", cmd.target, len(cmd.coords))
		}
	case "draw":
		cmd.assign = make(map[string]string, len(args))
		for _, a := range args {
			k, v, ok := strings.Cut(a, "=")
			if !ok {
				return cmd, fmt.Errorf("expected key=value, got %q", a)
			}
			cmd.assign[strings.ToLower(k)] = v
		}
	case "summary":
		if len(args) != 1 {
			return cmd, fmt.Errorf("usage: summary column")
		}
		cmd.target = args[0]
	case "clear", "show", "selected", "help", "quit", "exit":
	default:
		return cmd, fmt.Errorf("unknown command %q (try help)", cmd.name)
	}
	return cmd, nil
}

// applyDraw folds draw assignments into the current bindings and geometry.
func applyDraw(assign map[string]string, b engine.Bindings, g geometry) (engine.Bindings, geometry, error) {
	for k, v := range assign {
		if v == "-" {
			v = ""
		}
		switch k {
		case "x":
			b.X = v
		case "y":
			b.Y = v
		case "color":
			b.Color = v
		case "size":
			b.Size = v
		case "width", "height", "radius":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return b, g, fmt.Errorf("bad %s %q", k, v)
			}
			switch k {
			case "width":
				g.width = f
			case "height":
				g.height = f
			default:
				g.radius = f
			}
		default:
			return b, g, fmt.Errorf("unknown draw setting %q", k)
		}
	}
	return b, g, nil
}

func runSession(ctx context.Context, dash *views.Dashboard, b engine.Bindings, g geometry, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		err := execLine(dash, &b, &g, sc.Text(), out)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func execLine(dash *views.Dashboard, b *engine.Bindings, g *geometry, line string, out io.Writer) error {
	cmd, err := parseCommand(line)
	if err != nil || cmd.name == "" {
		return err
	}

	switch cmd.name {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(out, "draw k=v... | brush scatter x0 y0 x1 y1 | brush histogram x0 x1 | summary column | clear | show | selected | quit")
		return nil
	case "draw":
		nb, ng, err := applyDraw(cmd.assign, *b, *g)
		if err != nil {
			return err
		}
		frame, err := dash.Draw(nb, ng.radius, ng.width, ng.height)
		if err != nil {
			return err
		}
		*b, *g = nb, ng
		fmt.Fprintf(out, "drawn: %d points, radius %.2f. %s\n",
			len(frame.Points), frame.Radius, frame.Quality.Summary())
		return nil
	case "brush":
		c := cmd.coords
		state, err := dash.Brush(cmd.target, c[0], c[1], c[2], c[3], true)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s selected %s of %s\n", cmd.target,
			engine.FormatInt(state.Selection.Len()), engine.FormatInt(dash.Data().Len()))
		return nil
	case "clear":
		_, err := dash.Clear()
		if err == nil {
			fmt.Fprintln(out, "selection cleared")
		}
		return err
	case "show":
		fmt.Fprintln(out, dash.State().Table)
		return nil
	case "selected":
		fmt.Fprintln(out, formatIDs(dash.State().Selection.IDs))
		return nil
	case "summary":
		sum, err := dash.Summary(cmd.target)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatSummary(sum))
		return nil
	}
	return nil
}

func formatSummary(s *views.ColumnSummary) string {
	if s.All != nil {
		return fmt.Sprintf("%s: selected n=%d mean=%s [%s, %s] | all n=%d mean=%s [%s, %s]",
			s.Column,
			s.Selected.Count, fmtNum(s.Selected.Mean), fmtNum(s.Selected.Min), fmtNum(s.Selected.Max),
			s.All.Count, fmtNum(s.All.Mean), fmtNum(s.All.Min), fmtNum(s.All.Max))
	}
	selected := make(map[string]int, len(s.SelectedGroups))
	for _, g := range s.SelectedGroups {
		selected[g.Key] = g.Count
	}
	parts := make([]string, len(s.AllGroups))
	for i, g := range s.AllGroups {
		parts[i] = fmt.Sprintf("%s %d/%d", orDash(g.Key), selected[g.Key], g.Count)
	}
	return s.Column + ": " + strings.Join(parts, ", ")
}

func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return "(none)"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

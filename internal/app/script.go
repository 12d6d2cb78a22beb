package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/philipparndt/gomeasure/internal/measurement"
	"github.com/philipparndt/gomeasure/pkg/geometry"
)

// ErrScriptSyntax is returned for a script line that cannot be parsed
var ErrScriptSyntax = errors.New("script syntax error")

// Command is one parsed script line
type Command struct {
	Line int
	Name string
	Args []string
}

// ScriptResult summarizes a replayed script
type ScriptResult struct {
	Commands     int
	Failed       int
	Measurements []measurement.MeasurementResult
}

// ParseScript reads one command per line. Blank lines and lines starting
// with # are skipped.
//
//	load <path>
//	viewport <w> <h>
//	pick <viewX> <viewY>        view-space click
//	pick-image <x> <y>          image-space point
//	delete
//	modifier on|off
//	zoom-in <viewX> <viewY>
//	zoom-out
//	calibrate <length>
//	baseline
//	measure
//	recalibrate | rebaseline | resume
//	next
func ParseScript(r io.Reader) ([]Command, error) {
	var commands []Command
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		cmd := Command{Line: line, Name: strings.ToLower(fields[0]), Args: fields[1:]}
		if err := checkArity(cmd); err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return commands, nil
}

func checkArity(cmd Command) error {
	want := -1
	switch cmd.Name {
	case "delete", "zoom-out", "baseline", "measure", "recalibrate", "rebaseline", "resume", "next":
		want = 0
	case "load", "modifier", "calibrate":
		want = 1
	case "viewport", "pick", "pick-image", "zoom-in":
		want = 2
	default:
		return fmt.Errorf("line %d: unknown command %q: %w", cmd.Line, cmd.Name, ErrScriptSyntax)
	}

	// load keeps paths with spaces intact
	if cmd.Name == "load" && len(cmd.Args) >= 1 {
		return nil
	}
	if len(cmd.Args) != want {
		return fmt.Errorf("line %d: %s expects %d argument(s), got %d: %w", cmd.Line, cmd.Name, want, len(cmd.Args), ErrScriptSyntax)
	}
	return nil
}

// RunScript replays commands against the session and reports each step to
// out. A failing command is reported and replay continues, like an operator
// retrying, unless strict is set.
func (s *Session) RunScript(commands []Command, out io.Writer, strict bool) (ScriptResult, error) {
	var result ScriptResult
	for _, cmd := range commands {
		result.Commands++
		err := s.execute(cmd, out, &result)
		if err == nil {
			continue
		}

		result.Failed++
		fmt.Fprintf(out, "line %d: %s: %v\n", cmd.Line, cmd.Name, err)
		if strict || errors.Is(err, ErrScriptSyntax) {
			return result, fmt.Errorf("line %d: %w", cmd.Line, err)
		}
	}
	return result, nil
}

func (s *Session) execute(cmd Command, out io.Writer, result *ScriptResult) error {
	switch cmd.Name {
	case "load":
		path := strings.Join(cmd.Args, " ")
		if err := s.LoadImage(path); err != nil {
			return err
		}
		p := s.Photo.photo
		fmt.Fprintf(out, "Loaded %s (%dx%d), phase %s\n", path, p.Width, p.Height, s.workflow.Phase())

	case "viewport":
		w, h, err := parsePair(cmd)
		if err != nil {
			return err
		}
		s.SetViewport(w, h)

	case "pick", "pick-image":
		x, y, err := parsePair(cmd)
		if err != nil {
			return err
		}
		var ok bool
		if cmd.Name == "pick" {
			ok = s.PickPoint(x, y)
		} else {
			ok = s.PickImagePoint(geometry.NewPoint2D(x, y))
		}
		if !ok {
			fmt.Fprintf(out, "line %d: point (%g, %g) ignored\n", cmd.Line, x, y)
		}

	case "delete":
		s.DeleteLastPoint()

	case "modifier":
		switch strings.ToLower(cmd.Args[0]) {
		case "on", "down", "true":
			s.SetZoomModifier(true)
		case "off", "up", "false":
			s.SetZoomModifier(false)
		default:
			return fmt.Errorf("modifier expects on or off, got %q: %w", cmd.Args[0], ErrScriptSyntax)
		}

	case "zoom-in":
		x, y, err := parsePair(cmd)
		if err != nil {
			return err
		}
		s.ZoomIn(x, y)

	case "zoom-out":
		s.ZoomOut()

	case "calibrate":
		record, err := s.AcceptCalibration(cmd.Args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Calibration: %.4f px/mm\n", record.Scale)

	case "baseline":
		if _, err := s.AcceptBaseline(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Baseline accepted")

	case "measure":
		m, err := s.AcceptMeasurement()
		if err != nil {
			return err
		}
		result.Measurements = append(result.Measurements, m)
		fmt.Fprintf(out, "%s: %.2f mm\n", m.Specimen, m.Distance)

	case "recalibrate":
		s.Recalibrate()

	case "rebaseline":
		s.Rebaseline()

	case "resume":
		return s.Resume()

	case "next":
		loaded, err := s.LoadNext()
		if err != nil {
			return err
		}
		if !loaded {
			fmt.Fprintln(out, "No queued photo")
		}

	default:
		return fmt.Errorf("unknown command %q: %w", cmd.Name, ErrScriptSyntax)
	}
	return nil
}

func parsePair(cmd Command) (float64, float64, error) {
	x, err := strconv.ParseFloat(cmd.Args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: invalid number %q: %w", cmd.Name, cmd.Args[0], ErrScriptSyntax)
	}
	y, err := strconv.ParseFloat(cmd.Args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: invalid number %q: %w", cmd.Name, cmd.Args[1], ErrScriptSyntax)
	}
	return x, y, nil
}

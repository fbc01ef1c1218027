// Package console runs the guessing game in a terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/goosewin/visionquest/internal/game"
	"github.com/goosewin/visionquest/internal/imaging"
)

const Prompt = "vision> "

// LineReader is the part of a readline instance the game loop needs.
type LineReader interface {
	Readline() (string, error)
}

type Options struct {
	Controller    *game.Controller
	Session       *game.Session
	Out           io.Writer
	ThumbnailSize int
	Colors        bool
}

// Game is one terminal play-through.
type Game struct {
	ctrl      *game.Controller
	session   *game.Session
	out       io.Writer
	thumbnail int

	title   *color.Color
	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	faint   *color.Color
}

func New(opts Options) (*Game, error) {
	if opts.Controller == nil {
		return nil, errors.New("game controller is required")
	}
	g := &Game{
		ctrl:      opts.Controller,
		session:   opts.Session,
		out:       opts.Out,
		thumbnail: opts.ThumbnailSize,
		title:     color.New(color.Bold),
		info:      color.New(color.FgCyan),
		success:   color.New(color.FgGreen, color.Bold),
		warn:      color.New(color.FgYellow),
		fail:      color.New(color.FgRed),
		faint:     color.New(color.Faint),
	}
	if g.session == nil {
		g.session = game.NewSession("console")
	}
	if g.out == nil {
		g.out = os.Stdout
	}
	if g.thumbnail <= 0 {
		g.thumbnail = imaging.DefaultMaxDimension
	}
	for _, c := range []*color.Color{g.title, g.info, g.success, g.warn, g.fail, g.faint} {
		if opts.Colors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return g, nil
}

func (g *Game) Session() *game.Session {
	return g.session
}

// Play opens a readline prompt on the terminal and runs the loop until the
// player quits or closes input.
func (g *Game) Play(ctx context.Context) error {
	rl, err := readline.New(Prompt)
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()
	return g.Run(ctx, rl)
}

// Run reads commands from reader until quit, EOF, interrupt or ctx is done.
func (g *Game) Run(ctx context.Context, reader LineReader) error {
	g.banner()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := reader.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}
		if quit := g.Handle(ctx, line); quit {
			return nil
		}
	}
}

// Handle executes one command line and reports whether the player asked to quit.
func (g *Game) Handle(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "":
	case "new", "n":
		current := g.ctrl.Next(ctx, g.session)
		g.showChallenge(current)
	case "reset":
		g.ctrl.Reset(g.session)
		g.info.Fprintln(g.out, "Game reset.")
		g.showScore()
	case "submit", "s":
		g.submit(ctx, arg)
	case "score":
		g.showScore()
		g.showChallenge(g.session.Current)
	case "help", "?":
		g.help()
	case "quit", "exit", "q":
		g.showScore()
		return true
	default:
		g.warn.Fprintf(g.out, "Unknown command %q. Type 'help' for commands.\n", command)
	}
	return false
}

func (g *Game) submit(ctx context.Context, path string) {
	if !g.session.Active() {
		g.warn.Fprintln(g.out, "Click 'New Challenge' to start!")
		return
	}
	if path == "" {
		g.warn.Fprintln(g.out, "Usage: submit <image path>")
		return
	}

	file, err := os.Open(path)
	if err != nil {
		g.fail.Fprintf(g.out, "Could not open image: %v\n", err)
		return
	}
	defer file.Close()

	img, _, err := imaging.DecodeUpload(file)
	if err != nil {
		g.fail.Fprintf(g.out, "Could not read image: %v\n", err)
		return
	}

	outcome, err := g.ctrl.Submit(ctx, g.session, imaging.Thumbnail(img, g.thumbnail))
	if err != nil {
		g.fail.Fprintf(g.out, "Failed to process image: %v\n", err)
		return
	}

	fmt.Fprintln(g.out, "Model Response:")
	g.faint.Fprintln(g.out, outcome.Response)
	if outcome.Passed {
		g.success.Fprintf(g.out, "Challenge completed! +%d points\n", outcome.Awarded)
	} else {
		g.fail.Fprintln(g.out, "Try again! The image doesn't seem to match the challenge.")
	}
	g.showScore()
}

func (g *Game) showChallenge(current string) {
	switch {
	case current == "":
		g.warn.Fprintln(g.out, "Click 'New Challenge' to start!")
	case g.session.Over():
		g.warn.Fprintf(g.out, "Current Challenge: %s\n", current)
	default:
		g.info.Fprintf(g.out, "Current Challenge: %s\n", current)
	}
}

func (g *Game) showScore() {
	fmt.Fprintf(g.out, "Current Score: %d (%d/%d challenges)\n", g.session.Score, g.session.Served(), g.session.Total())
}

func (g *Game) banner() {
	g.title.Fprintln(g.out, "Vision Guessing Game")
	g.help()
}

func (g *Game) help() {
	fmt.Fprintln(g.out, "Commands:")
	fmt.Fprintln(g.out, "  new             draw the next challenge")
	fmt.Fprintln(g.out, "  submit <path>   check a PNG or JPEG against the challenge")
	fmt.Fprintln(g.out, "  score           show score and current challenge")
	fmt.Fprintln(g.out, "  reset           start over")
	fmt.Fprintln(g.out, "  quit            leave the game")
}

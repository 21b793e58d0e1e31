// Package terminal draws the listings view on a text terminal.
package terminal

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/pkg/brl"
	"golang.org/x/term"
)

const clearScreen = "\033[H\033[2J"

type View struct {
	Loading    bool
	Filter     domain.Filter
	Search     string
	Properties []domain.Property
	LastError  string
}

type Renderer struct {
	out   io.Writer
	clear bool
}

// NewRenderer clears the screen before every frame only when out is a TTY.
func NewRenderer(out io.Writer) Renderer {
	clear := false
	if f, ok := out.(*os.File); ok {
		clear = term.IsTerminal(int(f.Fd()))
	}
	return Renderer{out: out, clear: clear}
}

func (r Renderer) Render(v View) error {
	const op = "Renderer.Render"

	if r.clear {
		if _, err := io.WriteString(r.out, clearScreen); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := r.render(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r Renderer) render(v View) error {
	search := v.Search
	if search == "" {
		search = "-"
	}
	_, err := fmt.Fprintf(r.out, "Prime House | type: %s | search: %s\n\n", v.Filter, search)
	if err != nil {
		return err
	}

	switch {
	case v.Loading:
		_, err = fmt.Fprintln(r.out, "loading...")
	case len(v.Properties) == 0:
		_, err = fmt.Fprintln(r.out, "no properties found")
	default:
		err = r.table(v.Properties)
	}
	if err != nil {
		return err
	}

	if v.LastError != "" {
		if _, err := fmt.Fprintf(r.out, "\nerror: %s\n", v.LastError); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(r.out, "\ncommands: type <all|sale|rent>, search <text>, clear, quit")
	return err
}

func (r Renderer) table(ps []domain.Property) error {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tLOCATION\tTYPE\tPRICE")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			p.Title, p.Location, p.Type, brl.Price(p.Price, p.Type),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(r.out, "\n%d properties\n", len(ps))
	return err
}

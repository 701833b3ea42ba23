// Package commandline provides a rich command-line display for training
// learning networks: a progress bar over the network's tape with a styled
// per-machine description and a final summary.
package commandline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/gomlx/mlnets/network"
)

// Writer receives all progress output. Defaults to os.Stdout; tests point it
// elsewhere.
var Writer io.Writer = os.Stdout

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version, if the terminal
// supports the graphical symbols it needs.
var ProgressbarStyle = progressbar.ThemeASCII

var (
	machineStyle = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().Faint(true)
)

// FitWithProgress trains every untrained machine in n's tape, in dependency
// order, exactly like network.Fit, while displaying a progress bar with one
// step per machine trained. verbosity has the same meaning as in network.Fit
// and is passed through to each machine.
func FitWithProgress(n network.GraphNode, verbosity int) error {
	tape := network.Machines(n)
	pending := 0
	for _, m := range tape {
		if m.State() == 0 {
			pending++
		}
	}
	if pending == 0 {
		return nil
	}

	output := termenv.NewOutput(Writer)
	output.HideCursor()
	defer output.ShowCursor()

	bar := progressbar.NewOptions(pending,
		progressbar.OptionSetDescription(machineStyle.Render("training")),
		progressbar.OptionSetItsString("machines"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionSetWriter(Writer),
	)
	start := time.Now()
	for _, m := range tape {
		if m.State() > 0 {
			continue
		}
		bar.Describe(machineStyle.Render(fmt.Sprintf("training %s (%T)", m.Name(), m.Model())))
		if err := m.Train(verbosity); err != nil {
			_ = bar.Exit()
			fmt.Fprintln(Writer)
			return errors.WithMessagef(err, "FitWithProgress(%s)", n)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Fprintf(Writer, "\n%s\n",
		summaryStyle.Render(fmt.Sprintf("trained %s machine(s) in %s", humanize.Comma(int64(pending)), elapsed)))
	return nil
}

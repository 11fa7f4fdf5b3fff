// Package ui provides the optional live standings screen.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Row is one engine's line in the standings table.
type Row struct {
	Name      string
	Rating    float64
	Deviation float64
	Games     int
}

// Standings renders a rating table that is refreshed as games finish.
type Standings struct {
	app   *tview.Application
	table *tview.Table
}

// NewStandings builds the screen. onQuit runs when the user presses
// "q" or Ctrl-C; it should trigger the same graceful stop as SIGINT.
func NewStandings(onQuit func()) *Standings {
	s := &Standings{
		app:   tview.NewApplication(),
		table: tview.NewTable(),
	}

	s.table.SetBorder(true)
	s.table.SetTitle(" badank standings ")
	s.table.SetFixed(1, 0)

	s.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
			onQuit()
			return nil
		}
		return ev
	})

	s.header()
	s.app.SetRoot(s.table, true)

	return s
}

// Run blocks until Stop is called.
func (s *Standings) Run() error {
	return s.app.Run()
}

// Stop tears the screen down.
func (s *Standings) Stop() {
	s.app.Stop()
}

// Update replaces the table contents. Safe to call from any worker.
func (s *Standings) Update(rows []Row, ok, failed int64) {
	s.app.QueueUpdateDraw(func() {
		s.table.Clear()
		s.header()

		for i, row := range rows {
			s.table.SetCell(i+1, 0, tview.NewTableCell(row.Name))
			s.table.SetCell(i+1, 1, cellRight(fmt.Sprintf("%.1f", row.Rating)))
			s.table.SetCell(i+1, 2, cellRight(fmt.Sprintf("±%.0f", row.Deviation)))
			s.table.SetCell(i+1, 3, cellRight(fmt.Sprintf("%d", row.Games)))
		}

		status := fmt.Sprintf("games ok: %d, failed: %d (q quits)", ok, failed)
		s.table.SetCell(len(rows)+2, 0, tview.NewTableCell(status).SetTextColor(tcell.ColorGray).SetSelectable(false))
	})
}

func (s *Standings) header() {
	for col, title := range []string{"Engine", "Rating", "RD", "Games"} {
		cell := tview.NewTableCell(title).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false)
		if col > 0 {
			cell.SetAlign(tview.AlignRight)
		}
		s.table.SetCell(0, col, cell)
	}
}

func cellRight(text string) *tview.TableCell {
	return tview.NewTableCell(text).SetAlign(tview.AlignRight)
}

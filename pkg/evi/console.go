package evi

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05"

// Console prints the human readable conversation transcript.
type Console struct {
	stamped zerolog.Logger
	plain   zerolog.Logger
	now     func() time.Time
}

// NewConsole writes to out, or stdout when out is nil.
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		stamped: zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			PartsOrder: []string{zerolog.TimestampFieldName, zerolog.MessageFieldName},
			FormatTimestamp: func(i interface{}) string {
				return fmt.Sprintf("[%s]", i)
			},
			FormatMessage: formatConsoleMessage,
		}),
		plain: zerolog.New(zerolog.ConsoleWriter{
			Out:           out,
			NoColor:       true,
			PartsOrder:    []string{zerolog.MessageFieldName},
			FormatMessage: formatConsoleMessage,
		}),
		now: time.Now,
	}
}

func formatConsoleMessage(i interface{}) string {
	if i == nil {
		return ""
	}
	return fmt.Sprint(i)
}

// Log prints "[HH:MM:SS] text" using the current UTC time.
func (c *Console) Log(text string) {
	c.stamped.Log().
		Str(zerolog.TimestampFieldName, c.now().UTC().Format(consoleTimeFormat)).
		Msg(text)
}

// Print prints text on its own line without a timestamp.
func (c *Console) Print(text string) {
	c.plain.Log().Msg(text)
}

// Emotions prints the FormatEmotions rendering of scores.
func (c *Console) Emotions(scores *Scores) {
	c.Print(FormatEmotions(scores))
}

// FormatEmotions renders scores as "label (0.00) | label (0.00)" in iteration
// order.
func FormatEmotions(scores *Scores) string {
	entries := Entries(scores)
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", e.Label, e.Score))
	}
	return strings.Join(parts, " | ")
}

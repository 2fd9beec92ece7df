// Command icsimport converts an iCalendar public holiday feed into the
// holiday table format read by the server:
//
//	icsimport -in holidays.ics -out holidays.json [-tz Asia/Hong_Kong]
//
// Without -in it reads stdin; without -out it writes stdout.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/sirupsen/logrus"

	"github.com/warp/shift-allowance/factory"
)

func main() {
	in := flag.String("in", "", "ICS file to read (default stdin)")
	out := flag.String("out", "", "JSON file to write (default stdout)")
	tz := flag.String("tz", "Asia/Hong_Kong", "time zone for timed DTSTART values")
	flag.Parse()

	if err := run(*in, *out, *tz); err != nil {
		logrus.Fatal(err)
	}
}

func run(inPath, outPath, tz string) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid -tz %q: %w", tz, err)
	}

	var r io.Reader = os.Stdin
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	rows, err := factory.ParseICSHolidays(r, loc)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return err
	}

	logrus.WithField("holidays", len(rows)).Info("Holiday table written")
	return nil
}

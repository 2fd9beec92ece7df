package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-allowance/factory"
)

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Test//Public Holidays//EN
BEGIN:VEVENT
DTSTART;VALUE=DATE:20211001
DTEND;VALUE=DATE:20211002
UID:20211001@test
SUMMARY:National Day
END:VEVENT
END:VCALENDAR
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "holidays.ics")
	out := filepath.Join(dir, "holidays.json")
	require.NoError(t, os.WriteFile(in, []byte(strings.ReplaceAll(feed, "\n", "\r\n")), 0o644))

	require.NoError(t, run(in, out, "Asia/Hong_Kong"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var rows []factory.HolidayJSON
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Equal(t, []factory.HolidayJSON{{Date: "2021-10-01", Description: "National Day"}}, rows)

	assert.Error(t, run(in, out, "Nowhere/Special"))
	assert.Error(t, run(filepath.Join(dir, "missing.ics"), out, "UTC"))
}

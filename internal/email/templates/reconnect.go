// internal/email/templates/reconnect.go
package templates

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed reconnect_calendar.html
var reconnectCalendarHTML string

var reconnectCalendarTmpl = template.Must(template.New("reconnect_calendar").Parse(reconnectCalendarHTML))

type ReconnectCalendarData struct {
	FirstName string
	Year      int
}

func RenderReconnectCalendar(data ReconnectCalendarData) (string, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	if data.FirstName == "" {
		data.FirstName = "there"
	}

	var buf strings.Builder
	if err := reconnectCalendarTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}

package views

import (
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

// BuildURL joins path segments onto a base URL.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	return u.String()
}

// FormatDate renders a date like "Jan 2, 2006".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// TimeAgo renders the distance between t and now in words, e.g.
// "3 hours ago" or "in 2 days".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	suffix := func(s string) string {
		if d < 0 {
			return "in " + s
		}
		return s + " ago"
	}
	if d < 0 {
		d = -d
	}
	switch {
	case d < 45*time.Second:
		return suffix("less than a minute")
	case d < 90*time.Second:
		return suffix("1 minute")
	case d < 45*time.Minute:
		return suffix(fmt.Sprintf("%d minutes", int(d.Round(time.Minute)/time.Minute)))
	case d < 90*time.Minute:
		return suffix("about 1 hour")
	case d < 24*time.Hour:
		return suffix(fmt.Sprintf("about %d hours", int(d.Round(time.Hour)/time.Hour)))
	case d < 48*time.Hour:
		return suffix("1 day")
	case d < 30*24*time.Hour:
		return suffix(fmt.Sprintf("%d days", int(d/(24*time.Hour))))
	case d < 60*24*time.Hour:
		return suffix("about 1 month")
	case d < 365*24*time.Hour:
		return suffix(fmt.Sprintf("%d months", int(d/(30*24*time.Hour))))
	default:
		years := int(d / (365 * 24 * time.Hour))
		if years == 1 {
			return suffix("about 1 year")
		}
		return suffix(fmt.Sprintf("about %d years", years))
	}
}

// FieldError returns the error for a form field, or "".
func FieldError(errs map[string]string, field string) string {
	return errs[strings.ToLower(field)]
}

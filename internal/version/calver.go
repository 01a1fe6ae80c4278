// SPDX-License-Identifier: MPL-2.0

package version

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	tokYearLong  = "YYYY"
	tokYearShort = "YY"
	tokYearZero  = "0Y"
	tokMonth     = "MM"
	tokMonthZero = "0M"
	tokWeek      = "WW"
	tokWeekZero  = "0W"
	tokDay       = "DD"
	tokDayZero   = "0D"
	tokMinor     = "MINOR"
	tokMicro     = "MICRO"
	tokModifier  = "MODIFIER"
)

var tokenPatterns = map[string]string{
	tokYearLong:  `[2-9][0-9]{3}`,
	tokYearShort: `[1-9][0-9]{0,2}`,
	tokYearZero:  `0[1-9]|[1-9][0-9]{1,2}`,
	tokMonth:     `[1-9]|1[0-2]`,
	tokMonthZero: `0[1-9]|1[0-2]`,
	tokWeek:      `[1-9]|[1-4][0-9]|5[0-2]`,
	tokWeekZero:  `0[1-9]|[1-4][0-9]|5[0-2]`,
	tokDay:       `[1-9]|[12][0-9]|3[01]`,
	tokDayZero:   `0[1-9]|[12][0-9]|3[01]`,
	tokMinor:     `0|[1-9][0-9]*`,
	tokMicro:     `0|[1-9][0-9]*`,
	tokModifier:  `[a-zA-Z-][0-9a-zA-Z-]*`,
}

var (
	yearTokens  = []string{tokYearLong, tokYearShort, tokYearZero}
	monthTokens = []string{tokMonth, tokMonthZero}
	weekTokens  = []string{tokWeek, tokWeekZero}
	dayTokens   = []string{tokDay, tokDayZero}
)

type (
	// CalVer is a calendar version parsed against a format. Absent numeric
	// fields are -1.
	CalVer struct {
		Format   string
		Year     int
		Month    int
		Week     int
		Day      int
		Minor    int
		Micro    int
		Modifier string
		raw      string
	}

	calverFormat struct {
		raw         string
		re          *regexp.Regexp
		fullYear    bool
		hasDay      bool
		hasModifier bool
	}

	segment struct {
		token string
		sep   string
	}
)

// ParseCalVer parses value against a calendar version format such as
// "YYYY.0M.MICRO[-MODIFIER]".
func ParseCalVer(format, value string) (CalVer, error) {
	f, err := compileFormat(format)
	if err != nil {
		return CalVer{}, err
	}
	return f.parse(value)
}

// String returns the version as it was parsed.
func (c CalVer) String() string { return c.raw }

// Compare orders versions by format, then year, month, week, day, minor and
// micro. A version with a modifier sorts before the same version without one.
func (c CalVer) Compare(o CalVer) int {
	if r := strings.Compare(c.Format, o.Format); r != 0 {
		return r
	}
	for _, pair := range [][2]int{
		{c.Year, o.Year}, {c.Month, o.Month}, {c.Week, o.Week},
		{c.Day, o.Day}, {c.Minor, o.Minor}, {c.Micro, o.Micro},
	} {
		if r := cmp.Compare(pair[0], pair[1]); r != 0 {
			return r
		}
	}
	switch {
	case c.Modifier == o.Modifier:
		return 0
	case c.Modifier == "":
		return 1
	case o.Modifier == "":
		return -1
	default:
		return strings.Compare(c.Modifier, o.Modifier)
	}
}

func compileFormat(format string) (*calverFormat, error) {
	raw := strings.TrimSpace(format)
	invalid := func(reason string, args ...any) error {
		return &InvalidPatternError{Value: string(KindCalVer) + ":" + raw, Reason: fmt.Sprintf(reason, args...)}
	}

	body, optSep := raw, ""
	if i := strings.IndexByte(raw, '['); i >= 0 {
		opt := raw[i:]
		body = raw[:i]
		if len(opt) < 3 || opt[len(opt)-1] != ']' || !isSeparator(opt[1]) || opt[2:len(opt)-1] != tokModifier {
			return nil, invalid("optional part must be [<separator>MODIFIER]")
		}
		optSep = opt[1:2]
	}

	segs, err := splitFormat(body)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}

	hasToken := func(set []string) bool {
		return slices.ContainsFunc(segs, func(s segment) bool { return slices.Contains(set, s.token) })
	}
	if hasToken(weekTokens) && (hasToken(monthTokens) || hasToken(dayTokens)) {
		return nil, invalid("weeks cannot be combined with months or days")
	}

	f := &calverFormat{raw: raw}
	i := 0
	next := func(set ...string) bool {
		if i < len(segs) && slices.Contains(set, segs[i].token) {
			i++
			return true
		}
		return false
	}

	if !next(yearTokens...) {
		return nil, invalid("format must start with a year (YYYY, YY, 0Y)")
	}
	f.fullYear = segs[0].token == tokYearLong
	if next(monthTokens...) {
		f.hasDay = next(dayTokens...)
	} else {
		next(weekTokens...)
	}
	next(tokMinor)
	next(tokMicro)
	f.hasModifier = next(tokModifier)
	if i < len(segs) {
		return nil, invalid("unexpected token %q", segs[i].token)
	}
	if f.hasModifier && optSep != "" {
		return nil, invalid("MODIFIER appears twice")
	}

	var b strings.Builder
	b.WriteString("^")
	for _, s := range segs {
		fmt.Fprintf(&b, "(?P<%s>%s)%s", fieldName(s.token), tokenPatterns[s.token], regexp.QuoteMeta(s.sep))
	}
	if optSep != "" {
		fmt.Fprintf(&b, "(?:%s(?P<modifier>%s))?", regexp.QuoteMeta(optSep), tokenPatterns[tokModifier])
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	f.re = re
	return f, nil
}

func (f *calverFormat) parse(value string) (CalVer, error) {
	v := strings.TrimSpace(value)
	invalid := func(reason string) error {
		return &InvalidVersionError{Pattern: string(KindCalVer) + ":" + f.raw, Value: value, Reason: reason}
	}

	m := f.re.FindStringSubmatch(v)
	if m == nil {
		return CalVer{}, invalid("does not match format")
	}

	c := CalVer{Format: f.raw, Year: -1, Month: -1, Week: -1, Day: -1, Minor: -1, Micro: -1, raw: v}
	for i, name := range f.re.SubexpNames() {
		if name == "" || m[i] == "" {
			continue
		}
		if name == "modifier" {
			c.Modifier = m[i]
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return CalVer{}, invalid(err.Error())
		}
		switch name {
		case "year":
			c.Year = n
		case "month":
			c.Month = n
		case "week":
			c.Week = n
		case "day":
			c.Day = n
		case "minor":
			c.Minor = n
		case "micro":
			c.Micro = n
		}
	}

	if f.hasDay {
		year := c.Year
		if !f.fullYear {
			year += 2000
		}
		if c.Day > daysIn(year, time.Month(c.Month)) {
			return CalVer{}, invalid(fmt.Sprintf("day %d is out of range for month %d", c.Day, c.Month))
		}
	}
	return c, nil
}

func splitFormat(body string) ([]segment, error) {
	var segs []segment
	start := 0
	for i := 0; i < len(body); i++ {
		if !isSeparator(body[i]) {
			continue
		}
		tok := body[start:i]
		if err := checkToken(tok); err != nil {
			return nil, err
		}
		segs = append(segs, segment{token: tok, sep: body[i : i+1]})
		start = i + 1
	}
	tok := body[start:]
	if err := checkToken(tok); err != nil {
		return nil, err
	}
	return append(segs, segment{token: tok}), nil
}

func checkToken(tok string) error {
	if tok == "" {
		return errors.New("empty token")
	}
	if _, ok := tokenPatterns[tok]; !ok {
		return fmt.Errorf("unknown token %q", tok)
	}
	return nil
}

func fieldName(tok string) string {
	switch {
	case slices.Contains(yearTokens, tok):
		return "year"
	case slices.Contains(monthTokens, tok):
		return "month"
	case slices.Contains(weekTokens, tok):
		return "week"
	case slices.Contains(dayTokens, tok):
		return "day"
	default:
		return strings.ToLower(tok)
	}
}

func isSeparator(c byte) bool {
	return c == '.' || c == '-' || c == '_'
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Package holidays generates public-holiday closures.
package holidays

import (
	"sort"
	"time"

	"aura/internal/models"
)

// Holiday is a named calendar date.
type Holiday struct {
	Date models.Date
	Name string
}

// Easter returns Easter Sunday for year using the anonymous Gregorian
// algorithm.
func Easter(year int) models.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return models.NewDate(year, time.Month(month), day)
}

// Croatia lists Croatian public holidays for year ordered by date.
func Croatia(year int) []Holiday {
	fixed := func(m time.Month, d int, name string) Holiday {
		return Holiday{Date: models.NewDate(year, m, d), Name: name}
	}
	easter := Easter(year)

	out := []Holiday{
		fixed(time.January, 1, "Nova godina"),
		fixed(time.January, 6, "Sveta tri kralja"),
		{Date: easter, Name: "Uskrs"},
		{Date: easter.AddDays(1), Name: "Uskrsni ponedjeljak"},
		fixed(time.May, 1, "Praznik rada"),
		fixed(time.May, 30, "Dan državnosti"),
		{Date: easter.AddDays(60), Name: "Tijelovo"},
		fixed(time.June, 22, "Dan antifašističke borbe"),
		fixed(time.August, 5, "Dan pobjede i domovinske zahvalnosti"),
		fixed(time.August, 15, "Velika Gospa"),
		fixed(time.November, 1, "Svi sveti"),
		fixed(time.November, 18, "Dan sjećanja na žrtve Domovinskog rata"),
		fixed(time.December, 25, "Božić"),
		fixed(time.December, 26, "Sveti Stjepan"),
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ForCountry returns holidays for the given ISO country code, or nil when
// the country is not supported.
func ForCountry(country string, years ...int) []Holiday {
	if country != "HR" {
		return nil
	}
	var out []Holiday
	for _, y := range years {
		out = append(out, Croatia(y)...)
	}
	return out
}

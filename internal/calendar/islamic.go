package calendar

import "time"

// IslamicEpochJDN is the Julian Day Number of 1 Muharram 1 AH in the
// civil (tabular) variant of the arithmetic Islamic calendar.
const IslamicEpochJDN = 1948439

// Hijri month numbers used by the Eid resolver.
const (
	Shawwal     = 10
	DhuAlHijjah = 12
)

// GregorianDate is a plain proleptic Gregorian year/month/day triple.
type GregorianDate struct {
	Year  int
	Month int
	Day   int
}

// DateKey converts g to a DateKey.
func (g GregorianDate) DateKey() DateKey {
	return NewDateKey(g.Year, monthOf(g.Month), g.Day)
}

// IslamicToJulianDay converts a tabular Hijri date to a Julian Day Number.
//
// Callers must keep month in [1,12] and day in [1,30]; other values yield
// a defined but meaningless day number.
func IslamicToJulianDay(year, month, day int) int {
	// ceil(29.5 * (month-1)) in integers
	monthDays := (59*(month-1) + 1) / 2
	return day +
		monthDays +
		(year-1)*354 +
		floorDiv(3+11*year, 30) +
		IslamicEpochJDN - 1
}

// JulianDayToGregorian converts a Julian Day Number to a proleptic
// Gregorian date (Fliegel & Van Flandern).
func JulianDayToGregorian(jd int) GregorianDate {
	l := jd + 68569
	n := 4 * l / 146097
	l = l - (146097*n+3)/4
	i := 4000 * (l + 1) / 1461001
	l = l - 1461*i/4 + 31
	j := 80 * l / 2447
	day := l - 2447*j/80
	l = j / 11
	month := j + 2 - 12*l
	year := 100*(n-49) + i + l

	return GregorianDate{Year: year, Month: month, Day: day}
}

// IslamicToGregorian converts a tabular Hijri date to a Gregorian date.
func IslamicToGregorian(year, month, day int) GregorianDate {
	return JulianDayToGregorian(IslamicToJulianDay(year, month, day))
}

// ApproxHijriYear estimates the Hijri year that begins in a Gregorian
// year from the ~33:32 ratio of year lengths.
func ApproxHijriYear(gregorianYear int) int {
	return floorDiv((gregorianYear-622)*33, 32)
}

// HijriCandidates returns the Hijri years probed when searching for a
// feast inside gregorianYear, in probe order.
func HijriCandidates(gregorianYear int) []int {
	approx := ApproxHijriYear(gregorianYear)
	return []int{approx - 1, approx, approx + 1, approx + 2}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func monthOf(m int) time.Month {
	return time.Month(m)
}

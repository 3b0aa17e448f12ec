package calendar

// MinGregorianYear is the first full year of the Gregorian calendar.
const MinGregorianYear = 1583

// Easter returns the date of Easter Sunday for a Gregorian year using the
// Meeus/Jones/Butcher algorithm. Integer arithmetic only; valid for any
// year >= MinGregorianYear.
func Easter(year int) DateKey {
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
	day := ((h + l - 7*m + 114) % 31) + 1

	return NewDateKey(year, monthOf(month), day)
}

// EasterOffset returns the date offset days from Easter Sunday of year.
func EasterOffset(year, days int) DateKey {
	return Easter(year).AddDays(days)
}

// Day offsets of movable feasts relative to Easter Sunday.
const (
	OffsetAshWednesday = -46 // 40 days of Lent + 6 Sundays
	OffsetGoodFriday   = -2
	OffsetEasterMonday = 1
	OffsetAscension    = 39 // always a Thursday
	OffsetPentecost    = 49
	OffsetWhitMonday   = 50
)

// AshWednesday returns Ash Wednesday for year.
func AshWednesday(year int) DateKey {
	return EasterOffset(year, OffsetAshWednesday)
}

// GoodFriday returns Good Friday for year.
func GoodFriday(year int) DateKey {
	return EasterOffset(year, OffsetGoodFriday)
}

// Ascension returns Ascension Day for year.
func Ascension(year int) DateKey {
	return EasterOffset(year, OffsetAscension)
}

// Pentecost returns Pentecost Sunday for year.
func Pentecost(year int) DateKey {
	return EasterOffset(year, OffsetPentecost)
}

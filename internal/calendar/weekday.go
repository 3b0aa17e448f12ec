package calendar

// DayName returns the English weekday name of k (Sunday, Monday, ...).
func DayName(k DateKey) string {
	return k.Weekday().String()
}

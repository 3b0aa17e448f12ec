package calendar

// EidDates holds the Eid feasts that fall inside one Gregorian year.
// A nil field means the feast was not found for that year.
type EidDates struct {
	EidAlFitr *DateKey `json:"eidAlFitr,omitempty"`
	EidAlAdha *DateKey `json:"eidAlAdha,omitempty"`
}

// Empty reports whether neither feast is set.
func (e EidDates) Empty() bool {
	return e.EidAlFitr == nil && e.EidAlAdha == nil
}

// EidLookup is a curated table of observed Eid dates. Lookup reports
// whether an entry exists for the Gregorian year.
type EidLookup interface {
	Lookup(gregorianYear int) (EidDates, bool)
}

// ResolveEidDates returns the Eid al-Fitr and Eid al-Adha dates inside
// gregorianYear.
//
// An entry in table is returned as-is. Otherwise the dates are computed
// with the tabular calendar over HijriCandidates; the first candidate whose
// feast lands in gregorianYear wins. Tabular dates can differ from
// sighting-based observance by a day or two.
func ResolveEidDates(gregorianYear int, table EidLookup) EidDates {
	if table != nil {
		if dates, ok := table.Lookup(gregorianYear); ok {
			return dates
		}
	}
	return ComputeEidDates(gregorianYear)
}

// ComputeEidDates computes Eid dates purely from the tabular calendar.
func ComputeEidDates(gregorianYear int) EidDates {
	var out EidDates
	for _, hy := range HijriCandidates(gregorianYear) {
		if out.EidAlFitr == nil {
			if g := IslamicToGregorian(hy, Shawwal, 1); g.Year == gregorianYear {
				k := g.DateKey()
				out.EidAlFitr = &k
			}
		}
		if out.EidAlAdha == nil {
			if g := IslamicToGregorian(hy, DhuAlHijjah, 10); g.Year == gregorianYear {
				k := g.DateKey()
				out.EidAlAdha = &k
			}
		}
	}
	return out
}

package marketdata

import "time"

// Index options expire on Thursdays; the monthly contract is the last
// Thursday of its month. Expiries are stamped at 15:30 IST market close.
const (
	expiryWeekday   = time.Thursday
	expiryHourIST   = 15
	expiryMinuteIST = 30
)

// ISTLocation is the exchange timezone. IST has no daylight saving, so a
// fixed offset is exact.
var ISTLocation = time.FixedZone("IST", 5*3600+1800)

// NextExpiries returns the next count weekly expiries strictly after
// now, oldest first.
func NextExpiries(now time.Time, count int) []time.Time {
	if count <= 0 {
		return nil
	}

	out := make([]time.Time, 0, count)
	candidate := nextThursdayClose(now)
	for len(out) < count {
		out = append(out, candidate)
		candidate = nextThursdayClose(candidate)
	}
	return out
}

// MonthlyExpiry returns the last Thursday of the given month at market
// close.
func MonthlyExpiry(year int, month time.Month) time.Time {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, ISTLocation)
	d := firstOfNext.AddDate(0, 0, -1)
	for d.Weekday() != expiryWeekday {
		d = d.AddDate(0, 0, -1)
	}
	return atClose(d)
}

// nextThursdayClose returns the first Thursday market close strictly
// after t.
func nextThursdayClose(t time.Time) time.Time {
	ist := t.In(ISTLocation)
	d := time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, ISTLocation)
	for {
		if d.Weekday() == expiryWeekday {
			if c := atClose(d); c.After(t) {
				return c
			}
		}
		d = d.AddDate(0, 0, 1)
	}
}

func atClose(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), expiryHourIST, expiryMinuteIST, 0, 0, ISTLocation)
}

package dates

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DefaultWorkdays is Monday to Friday
const DefaultWorkdays = "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"

// Workdays expands a recurrence rule into the days on which entries are expected.
// The rule is re-anchored on every call so a Workdays value is safe to share.
type Workdays struct {
	rule string
}

// NewWorkdays validates rule and returns a calendar for it
func NewWorkdays(rule string) (*Workdays, error) {
	if rule == "" {
		rule = DefaultWorkdays
	}
	if _, err := rrule.StrToROption(rule); err != nil {
		return nil, fmt.Errorf("invalid workdays rule %q: %w", rule, err)
	}
	return &Workdays{rule: rule}, nil
}

// Rule returns the recurrence rule text
func (w *Workdays) Rule() string {
	return w.rule
}

// Between returns every workday in the inclusive range [start, end]
func (w *Workdays) Between(start, end string) ([]string, error) {
	if err := ValidateRange(start, end); err != nil {
		return nil, err
	}
	from, _ := ParseDay(start)
	to, _ := ParseDay(end)

	opt, err := rrule.StrToROption(w.rule)
	if err != nil {
		return nil, fmt.Errorf("invalid workdays rule %q: %w", w.rule, err)
	}
	opt.Dtstart = from
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build workdays rule: %w", err)
	}

	occurrences := r.Between(from, to.Add(24*time.Hour-time.Second), true)
	days := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		day := Format(occ.UTC())
		if day < start || day > end {
			continue
		}
		if len(days) > 0 && days[len(days)-1] == day {
			continue
		}
		days = append(days, day)
	}
	return days, nil
}

package domain

import (
	"strings"
	"time"
)

// BillingPeriod is the unit a subscription renews on.
type BillingPeriod string

const (
	PeriodDay      BillingPeriod = "day"
	PeriodWeek     BillingPeriod = "week"
	PeriodMonth    BillingPeriod = "month"
	PeriodQuarter  BillingPeriod = "quarter"
	PeriodSemiYear BillingPeriod = "semi-year"
	PeriodYear     BillingPeriod = "year"
)

func ParsePeriod(value string) (BillingPeriod, error) {
	switch BillingPeriod(strings.ToLower(strings.TrimSpace(value))) {
	case PeriodDay:
		return PeriodDay, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodQuarter:
		return PeriodQuarter, nil
	case PeriodSemiYear:
		return PeriodSemiYear, nil
	case PeriodYear:
		return PeriodYear, nil
	default:
		return "", ErrInvalidPeriod
	}
}

func (p BillingPeriod) Valid() bool {
	_, err := ParsePeriod(string(p))
	return err == nil
}

// NextExpiration advances the subscription calendar by exactly one billing
// period from the previous expiration. Renewals that run late still land on
// the original schedule; the math never references "now". Month-based periods
// clamp to the last day of the target month, so a Jan 31 anchor renews on
// Feb 29, not Mar 2.
func (s *Subscription) NextExpiration() time.Time {
	frequency := s.Frequency
	if frequency <= 0 {
		frequency = 1
	}

	prev := s.Expiration
	switch s.Period {
	case PeriodDay:
		return prev.AddDate(0, 0, frequency)
	case PeriodWeek:
		return prev.AddDate(0, 0, 7*frequency)
	case PeriodMonth:
		return addMonthsClamped(prev, frequency)
	case PeriodQuarter:
		return addMonthsClamped(prev, 3*frequency)
	case PeriodSemiYear:
		return addMonthsClamped(prev, 6*frequency)
	case PeriodYear:
		return addMonthsClamped(prev, 12*frequency)
	default:
		return prev
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()

	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := time.Date(target.Year(), target.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day(); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, hour, minute, second, t.Nanosecond(), t.Location())
}

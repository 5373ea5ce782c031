package core

import (
	"fmt"
	"time"
)

// PluralRu picks the Russian plural form for n. one covers 1, 21, 31...,
// few covers 2..4 outside the teens, many covers the rest.
func PluralRu(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	switch {
	case n%10 == 1 && n%100 != 11:
		return one
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 12 || n%100 > 14):
		return few
	default:
		return many
	}
}

// YearsWords formats an age, for example "1 год" or "5 лет".
func YearsWords(years int) string {
	return fmt.Sprintf("%d %s", years, PluralRu(years, "год", "года", "лет"))
}

// HoursWords formats a duration in whole hours.
func HoursWords(hours int) string {
	return fmt.Sprintf("%d %s", hours, PluralRu(hours, "час", "часа", "часов"))
}

// DaysWords formats a duration in whole days.
func DaysWords(days int) string {
	return fmt.Sprintf("%d %s", days, PluralRu(days, "день", "дня", "дней"))
}

// SearchAgeWords says how long a search has been running. Young searches
// are described in hours, everything past the first day in days.
func SearchAgeWords(start time.Time, now time.Time) string {
	if start.IsZero() || now.Before(start) {
		return HoursWords(0)
	}
	elapsed := now.Sub(start)
	if elapsed < 24*time.Hour {
		return HoursWords(int(elapsed.Hours()))
	}
	return DaysWords(int(elapsed.Hours() / 24))
}

// Package monthkey вычисляет ключ окна квоты: календарный месяц в UTC.
// Один и тот же ключ используется и для подсчёта просмотров, и для
// ограничения уникальности (водитель, груз, месяц).
package monthkey

import "time"

// Layout: формат ключа месяца, например "2026-10".
const Layout = "2006-01"

// Of возвращает ключ календарного месяца для момента t.
func Of(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Bounds возвращает начало месяца и начало следующего месяца (UTC) для момента t.
func Bounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

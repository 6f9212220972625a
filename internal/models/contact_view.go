package models

import "time"

// ContactViewEvent: запись журнала просмотров контактов.
// Тройка (DriverID, FreightID, MonthKey) уникальна: водитель платит
// за конкретный груз не больше одного раза в календарный месяц.
type ContactViewEvent struct {
	ID        string    `json:"id"`
	DriverID  string    `json:"driver_id"`
	FreightID string    `json:"freight_id"`
	CompanyID string    `json:"company_id"`
	MonthKey  string    `json:"month_key"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// RecordResult: результат записи просмотра контакта.
type RecordResult struct {
	Recorded      bool `json:"recorded"`
	AlreadyViewed bool `json:"already_viewed"`
}

// ContactViewUsage: использование квоты водителя за месяц.
// Окно квоты: [PeriodStart, PeriodEnd) в UTC.
type ContactViewUsage struct {
	MonthKey    string    `json:"monthKey"`
	Used        int       `json:"used"`
	Limit       int       `json:"limit"`
	Remaining   int       `json:"remaining"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

// DummyRecordContactView используется для приёма тела запроса record-contact-view.
type DummyRecordContactView struct {
	FreightID string `json:"freightId" validate:"required"`
}

package models

// Action: действие, доступ к которому проверяется.
type Action string

const (
	ActionCreateFreight Action = "create_freight"
	ActionViewContact   Action = "view_contact"
)

// Reason: причина решения о доступе.
type Reason string

const (
	ReasonOK                Reason = "OK"
	ReasonNoAuth            Reason = "NO_AUTH"
	ReasonNoSubscription    Reason = "NO_SUBSCRIPTION"
	ReasonTrialExpired      Reason = "TRIAL_EXPIRED"
	ReasonLimitReached      Reason = "LIMIT_REACHED"
	ReasonUnsupportedAction Reason = "UNSUPPORTED_ACTION"
	ReasonLookupFailed      Reason = "LOOKUP_FAILED"
)

// AccessDecision: результат проверки доступа. Пересчитывается на каждый
// запрос и нигде не кешируется.
type AccessDecision struct {
	CanAccess      bool
	Reason         Reason
	RemainingViews int           // Unlimited, если лимита нет
	Subscription   *Subscription // подписка, на основании которой принято решение
}

// Deny возвращает отказ с указанной причиной.
func Deny(reason Reason) AccessDecision {
	return AccessDecision{Reason: reason}
}

// Identity: аутентифицированный пользователь, полученный от провайдера идентификации.
type Identity struct {
	UserID string
	Role   Role
}

// DummyCheckAccess используется для приёма тела запроса check-access.
// Неизвестное действие не ошибка валидации: движок вернёт UNSUPPORTED_ACTION.
type DummyCheckAccess struct {
	Action   string `json:"action" validate:"required"`
	UserRole string `json:"userRole,omitempty" validate:"omitempty,oneof=driver company admin"`
}

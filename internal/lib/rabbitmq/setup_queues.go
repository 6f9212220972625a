package rabbitmq

const (
	// ExchangeEvents: exchange доменных событий сервиса доступа.
	ExchangeEvents = "freight.access.events"

	// RoutingContactViewed: водитель впервые за месяц открыл контакты груза.
	RoutingContactViewed = "contact.viewed"
	// RoutingTrialExpired: пробный период компании закончился.
	RoutingTrialExpired = "trial.expired"
)

// QueueConfig описывает очередь и ключ маршрутизации, по которому она привязана.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений, которые читает сервис нотификаций.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.contact_viewed", RoutingKey: RoutingContactViewed},
		{QueueName: "notification.trial_expired", RoutingKey: RoutingTrialExpired},
	}
}

package mailer

// NotifyJob is the JSON payload put on the RabbitMQ queue for delivery by
// the notify worker.
type NotifyJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

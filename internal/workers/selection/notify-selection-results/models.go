package notifyselectionresults

type Input struct {
	ProjectID string `json:"projectId"`
}

type Output struct {
	NotificationID string          `json:"notificationId"`
	ProjectID      string          `json:"projectId"`
	Recipients     int             `json:"recipients"`
	EmailsSent     int             `json:"emailsSent"`
	SMSSent        int             `json:"smsSent"`
	Failed         int             `json:"failed"`
	Failures       []DeliveryError `json:"failures,omitempty"`
	SentAt         string          `json:"sentAt"` // ISO 8601
}

// DeliveryError records one message that could not be delivered.
type DeliveryError struct {
	ApplicationID string `json:"applicationId"`
	Channel       string `json:"channel"`
	Error         string `json:"error"`
}

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

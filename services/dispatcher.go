// services/dispatcher.go
package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"propcare-backend/models"
	"propcare-backend/utils"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// dispatchTimeout bounds a single delivery attempt so a hung channel
// call cannot stall the whole pass.
const dispatchTimeout = 15 * time.Second

// MessageSender is the outbound delivery channel. The twilio client
// is the production implementation; tests inject a fake.
type MessageSender interface {
	Send(to, body string) (sid string, err error)
}

type twilioSender struct {
	client *twilio.RestClient
}

func (t *twilioSender) Send(to, body string) (string, error) {
	channel := "sms"
	// Use WhatsApp if phone is in E.164 format and starts with '+'
	if strings.HasPrefix(to, "+") {
		to = "whatsapp:" + to
		channel = "whatsapp"
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetBody(body)
	if channel == "whatsapp" {
		params.SetFrom("whatsapp:" + os.Getenv("TWILIO_WHATSAPP_NUMBER"))
	} else {
		params.SetFrom(os.Getenv("TWILIO_PHONE_NUMBER"))
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// Dispatcher renders a due reminder into a message and performs
// exactly one delivery attempt per call.
type Dispatcher struct {
	sender  MessageSender
	timeout time.Duration
}

func NewDispatcher() *Dispatcher {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &Dispatcher{
		sender: &twilioSender{
			client: twilio.NewRestClientWithParams(twilio.ClientParams{
				Username: accountSid,
				Password: authToken,
			}),
		},
		timeout: dispatchTimeout,
	}
}

// NewDispatcherWithSender wires a custom delivery channel, used by
// tests and by the console channel in dev.
func NewDispatcherWithSender(sender MessageSender) *Dispatcher {
	return &Dispatcher{sender: sender, timeout: dispatchTimeout}
}

// Format renders the outbound message for a reminder. Pure function
// of its inputs; the template is keyed by the notification type.
func (d *Dispatcher) Format(reminder *models.Reminder, notificationType string, now time.Time) string {
	var b strings.Builder

	switch notificationType {
	case models.NotificationOverdue:
		b.WriteString("URGENT - OVERDUE\n")
		days := utils.DaysOverdue(reminder.DueDate, now)
		plural := "days"
		if days == 1 {
			plural = "day"
		}
		b.WriteString(fmt.Sprintf("%s service at %s is %d %s overdue.\n",
			reminder.ServiceType, reminder.PropertyName, days, plural))
	case models.NotificationCustom:
		b.WriteString("CUSTOM REMINDER\n")
		b.WriteString(fmt.Sprintf("%s service at %s, reminder cadence every %d hours.\n",
			reminder.ServiceType, reminder.PropertyName, reminder.CustomReminderHours))
	default:
		b.WriteString("DUE TODAY\n")
		b.WriteString(fmt.Sprintf("%s service at %s is due today.\n",
			reminder.ServiceType, reminder.PropertyName))
	}

	b.WriteString(fmt.Sprintf("Property: %s, %s\n", reminder.PropertyName, reminder.Location))
	b.WriteString(fmt.Sprintf("Service: %s\n", reminder.ServiceType))
	b.WriteString(fmt.Sprintf("Contact: %s (%s)\n", reminder.KeyPerson, reminder.Contact))
	b.WriteString(fmt.Sprintf("Due date: %s", utils.FormatDueDate(reminder.DueDate)))
	if reminder.Notes != "" {
		b.WriteString(fmt.Sprintf("\nNotes: %s", reminder.Notes))
	}

	return b.String()
}

// Dispatch hands the message to the delivery channel. A call that
// does not return within the timeout is treated as a failed delivery
// for this reminder only.
func (d *Dispatcher) Dispatch(reminder *models.Reminder, message string) error {
	done := make(chan error, 1)
	go func() {
		_, err := d.sender.Send(reminder.Contact, message)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send to %s: %w", reminder.Contact, err)
		}
		return nil
	case <-time.After(d.timeout):
		return fmt.Errorf("send to %s timed out after %v", reminder.Contact, d.timeout)
	}
}

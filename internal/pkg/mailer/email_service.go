package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// IFeedbackAlerter emails the operations inbox when a farmer leaves a poor
// rating. A null implementation is injected when SMTP is disabled.
type IFeedbackAlerter interface {
	SendLowRatingAlert(sessionId, messageId string, rating int, comment string) error
}

type feedbackAlerter struct {
	dialer      *gomail.Dialer
	senderEmail string
	alertEmail  string
}

func NewFeedbackAlerter(host string, port int, username, password, senderEmail, alertEmail string) IFeedbackAlerter {
	d := gomail.NewDialer(host, port, username, password)

	return &feedbackAlerter{
		dialer:      d,
		senderEmail: senderEmail,
		alertEmail:  alertEmail,
	}
}

func (s *feedbackAlerter) SendLowRatingAlert(sessionId, messageId string, rating int, comment string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", s.alertEmail)
	m.SetHeader("Subject", fmt.Sprintf("Low chat rating (%d/5)", rating))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>A farmer rated an answer %d/5</h2>
			<p><b>Session:</b> %s</p>
			<p><b>Message:</b> %s</p>
			<p><b>Comment:</b> %s</p>
		</div>
	`, rating, sessionId, messageId, comment)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send rating alert: %v\n", err)
		return err
	}

	fmt.Printf("[MAILER] Rating alert sent for message %s\n", messageId)
	return nil
}

// NullFeedbackAlerter is used when SMTP is not configured.
type NullFeedbackAlerter struct{}

func (NullFeedbackAlerter) SendLowRatingAlert(sessionId, messageId string, rating int, comment string) error {
	return nil
}

package service

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/util/common"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	confirmSubject = "Confirm your account"
	// smtpTimeout bounds connecting and the whole SMTP exchange.
	smtpTimeout = 10 * time.Second
)

// Sender delivers a single plain text message.
type Sender interface {
	Send(to, subject, body string) error
}

type MailService struct {
	sender Sender
}

// NewMailService picks the transport from cfg: SendGrid when an API key is set, SMTP when
// a server is set, otherwise nothing is sent.
func NewMailService(cfg config.MailConfig) *MailService {
	s := &MailService{}
	switch {
	case cfg.SendGridAPIKey != "":
		s.sender = &sendGridSender{apiKey: cfg.SendGridAPIKey, from: cfg.DefaultSender}
	case cfg.Server != "":
		s.sender = &smtpSender{cfg: cfg, timeout: smtpTimeout}
	default:
		logger.Warning("mail is not configured, confirmation mails will not be sent")
	}
	return s
}

// NewMailServiceWithSender uses sender as transport.
func NewMailServiceWithSender(sender Sender) *MailService {
	return &MailService{sender: sender}
}

func (s *MailService) Enabled() bool {
	return s.sender != nil
}

// SendConfirmation mails user the token that confirms the account.
func (s *MailService) SendConfirmation(user *model.User, tok string) error {
	if s.sender == nil {
		logger.Warningf("mail disabled, confirmation token for user %d not sent", user.Id)
		return nil
	}
	body := fmt.Sprintf("Dear %s,\n\nTo confirm your account use this token:\n\n%s\n\n"+
		"It is valid for a limited time.\n", user.Username, tok)
	if err := s.sender.Send(user.Email, confirmSubject, body); err != nil {
		logger.Warning("send confirmation mail err:", err)
		return err
	}
	logger.Infof("confirmation mail sent to user %d", user.Id)
	return nil
}

type sendGridSender struct {
	apiKey string
	from   string
}

func (s *sendGridSender) Send(to, subject, body string) error {
	message := mail.NewSingleEmail(mail.NewEmail("", s.from), subject, mail.NewEmail("", to), body, "")
	response, err := sendgrid.NewSendClient(s.apiKey).Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 300 {
		return common.NewErrorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

type smtpSender struct {
	cfg     config.MailConfig
	timeout time.Duration
}

func (s *smtpSender) dial(tlsConfig *tls.Config) (net.Conn, error) {
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.timeout}
	if s.cfg.UseSSL {
		return tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	}
	return dialer.Dial("tcp", addr)
}

func (s *smtpSender) Send(to, subject, body string) error {
	tlsConfig := &tls.Config{ServerName: s.cfg.Server}
	conn, err := s.dial(tlsConfig)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(s.timeout)); err != nil {
		conn.Close()
		return err
	}
	client, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if s.cfg.UseTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(s.cfg.DefaultSender); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + s.cfg.DefaultSender,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

package imapsource

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig holds the submission server settings for outgoing mail.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

// outgoing is one fully-composed message ready for submission.
type outgoing struct {
	from    string
	to      string
	headers []string
	body    string
}

// render flattens the message into wire format.
func (o outgoing) render() string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", o.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", o.to))
	for _, h := range o.headers {
		msg.WriteString(h)
		msg.WriteString("\r\n")
	}
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(o.body)
	return msg.String()
}

// send submits the message over implicit TLS or STARTTLS depending on
// the configuration.
func (cfg SMTPConfig) send(o outgoing) error {
	addr := cfg.Host + ":" + cfg.Port
	if cfg.TLS {
		return cfg.sendWithTLS(addr, o)
	}
	return cfg.sendWithStartTLS(addr, o)
}

// sendWithTLS submits over an implicit TLS connection.
func (cfg SMTPConfig) sendWithTLS(addr string, o outgoing) error {
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return submit(client, o)
}

// sendWithStartTLS submits using STARTTLS.
func (cfg SMTPConfig) sendWithStartTLS(addr string, o outgoing) error {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: cfg.Host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("SMTP STARTTLS: %w", err)
	}

	auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return submit(client, o)
}

// submit runs the envelope exchange on an authenticated client.
func submit(client *smtp.Client, o outgoing) error {
	if err := client.Mail(o.from); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(o.to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := writer.Write([]byte(o.render())); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing message body: %w", err)
	}

	return client.Quit()
}

package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strings"
	textTemplate "text/template"
	"time"

	resend "github.com/resend/resend-go/v2"
)

// IMailService renders and delivers the portal's outgoing email.
type IMailService interface {
	SendOtpCode(ctx context.Context, to, sessionName, code string, ttl time.Duration) error
	SendFeedbackInvite(ctx context.Context, to, attendeeName, sessionName, link string) error
}

// Message is a rendered email ready for a transport.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Notifier delivers a single rendered message.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds SMTP credentials and sender identity.
type SMTPConfig struct {
	Host       string // e.g. "smtp.gmail.com"
	Port       int    // 587 (STARTTLS) or 465 (SMTPS)
	Username   string
	Password   string
	From       string // envelope from
	FromName   string
	UseSSL     bool // true for SMTPS 465
	RequireTLS bool // fail if STARTTLS is not offered
}

type mailService struct {
	transport Notifier
	appName   string
	htmlTpl   *template.Template
	textTpl   *textTemplate.Template
	now       func() time.Time
}

func NewMailService(transport Notifier, appName string) IMailService {
	return &mailService{
		transport: transport,
		appName:   appName,
		htmlTpl:   template.Must(template.New("emailHTML").Parse(baseHTMLTemplate)),
		textTpl:   textTemplate.Must(textTemplate.New("emailText").Parse(plainTextTemplate)),
		now:       time.Now,
	}
}

// ------------------- Public API -------------------

func (s *mailService) SendOtpCode(ctx context.Context, to, sessionName, code string, ttl time.Duration) error {
	subject := "Your verification code"
	if sessionName != "" {
		subject = fmt.Sprintf("Your verification code for %s", sessionName)
	}
	return s.deliver(ctx, to, EmailData{
		Title: subject,
		Intro: fmt.Sprintf("Use the code below to verify your email and share your feedback. It expires in %d minutes.", int(ttl.Minutes())),
		Code:  code,
	})
}

func (s *mailService) SendFeedbackInvite(ctx context.Context, to, attendeeName, sessionName, link string) error {
	greeting := "Hello"
	if attendeeName != "" {
		greeting = "Hello " + attendeeName
	}
	return s.deliver(ctx, to, EmailData{
		Title:     fmt.Sprintf("Share your feedback on %s", sessionName),
		Intro:     greeting + ", thank you for registering. We would love to hear how the session went for you.",
		ButtonURL: link,
		ButtonTxt: "Give Feedback",
	})
}

func (s *mailService) deliver(ctx context.Context, to string, data EmailData) error {
	data.AppName = s.appName
	data.Year = s.now().Year()

	html, text, err := s.renderEmail(data)
	if err != nil {
		return err
	}
	return s.transport.Send(ctx, Message{To: to, Subject: data.Title, HTML: html, Text: text})
}

// ------------------- Rendering -------------------

type EmailData struct {
	Title     string
	Intro     string
	Code      string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
</head>
<body style="margin:0;padding:0;background:#f4f6fb;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;color:#1f2937;">
  <div style="max-width:560px;margin:32px auto;background:#ffffff;border-radius:12px;overflow:hidden;">
    <div style="padding:24px 28px;border-bottom:1px solid #e5e7eb;font-weight:700;color:#4f46e5;">{{.AppName}}</div>
    <div style="padding:28px;">
      <h1 style="margin:0 0 16px;font-size:22px;">{{.Title}}</h1>
      <p style="margin:0 0 20px;line-height:1.6;">{{.Intro}}</p>
      {{if .Code}}
        <div style="margin:24px 0;padding:16px;text-align:center;font-size:32px;letter-spacing:8px;font-weight:700;background:#eef2ff;border-radius:8px;">{{.Code}}</div>
        <p style="margin:0;color:#6b7280;font-size:13px;">If you did not request this code, you can ignore this email.</p>
      {{end}}
      {{if .ButtonURL}}
        <p style="margin:28px 0;"><a href="{{.ButtonURL}}" style="display:inline-block;padding:12px 24px;background:#4f46e5;color:#ffffff;text-decoration:none;border-radius:8px;font-weight:600;">{{.ButtonTxt}}</a></p>
        <p style="margin:0;color:#6b7280;font-size:13px;">Or open this link: {{.ButtonURL}}</p>
      {{end}}
    </div>
    <div style="padding:16px 28px;background:#f9fafb;color:#9ca3af;font-size:12px;text-align:center;">&copy; {{.Year}} {{.AppName}}</div>
  </div>
</body>
</html>`

const plainTextTemplate = `{{.Title}}

{{.Intro}}
{{if .Code}}
Your code: {{.Code}}
{{end}}{{if .ButtonURL}}
Open this link:
{{.ButtonURL}}
{{end}}
{{.AppName}} (c) {{.Year}}
`

func (s *mailService) renderEmail(data EmailData) (html string, text string, err error) {
	var hb, tb bytes.Buffer

	if err = s.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err = s.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}

// ------------------- SMTP transport -------------------

type smtpNotifier struct {
	cfg SMTPConfig
}

func NewSMTPNotifier(cfg SMTPConfig) Notifier {
	return &smtpNotifier{cfg: cfg}
}

func (n *smtpNotifier) Send(ctx context.Context, m Message) error {
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = msg.WriteString(fmt.Sprintf(format, a...)) }

	write("From: %s\r\n", n.formatFromHeader())
	write("To: %s\r\n", m.To)
	write("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", m.Subject))
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	write("\r\n")

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", m.Text)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", m.HTML)

	write("--%s--\r\n", boundary)

	conn, err := n.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if !n.cfg.UseSSL {
		if ok, _ := c.Extension("STARTTLS"); ok {
			tlsCfg := &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}
			if err = c.StartTLS(tlsCfg); err != nil {
				return err
			}
		} else if n.cfg.RequireTLS {
			return fmt.Errorf("server does not support STARTTLS and RequireTLS=true")
		}
	}

	if n.cfg.Username != "" {
		if err = c.Auth(smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)); err != nil {
			return err
		}
	}
	if err = c.Mail(n.cfg.From); err != nil {
		return err
	}
	if err = c.Rcpt(m.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg.Bytes()); err != nil {
		return err
	}
	return w.Close()
}

func (n *smtpNotifier) dial(ctx context.Context) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	if n.cfg.UseSSL {
		// SMTPS (implicit TLS, usually port 465)
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12},
		}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

func (n *smtpNotifier) formatFromHeader() string {
	name := strings.TrimSpace(n.cfg.FromName)
	if name == "" {
		return n.cfg.From
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", name), n.cfg.From)
}

// ------------------- Resend transport -------------------

type resendNotifier struct {
	client *resend.Client
	sender string
}

func NewResendNotifier(client *resend.Client, sender string) Notifier {
	return &resendNotifier{client: client, sender: sender}
}

func (n *resendNotifier) Send(ctx context.Context, m Message) error {
	params := &resend.SendEmailRequest{
		From:    n.sender,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
	}
	_, err := n.client.Emails.SendWithContext(ctx, params)
	return err
}

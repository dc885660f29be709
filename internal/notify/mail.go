// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/olegiv/ocms-blog/internal/blog"
)

// mailTimeout bounds dialing and each SMTP command.
const mailTimeout = 10 * time.Second

// MailConfig configures the SMTP notifier.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// Sender is both the From address and the recipient.
	Sender string
	// Title prefixes the subject line.
	Title string
	// BaseURL turns the comment's relative URL into a link.
	BaseURL string
}

// sender is the part of *mail.Client the Mailer uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer emails the site owner about new comments.
type Mailer struct {
	cfg    MailConfig
	client sender
	now    func() time.Time
}

// NewMailer returns a Mailer, or an error when host or sender is missing.
// STARTTLS is used when the server offers it.
func NewMailer(cfg MailConfig) (*Mailer, error) {
	if cfg.Host == "" || cfg.Sender == "" {
		return nil, errors.New("mail: host and sender are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(mailTimeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: creating client: %w", err)
	}
	return &Mailer{cfg: cfg, client: client, now: time.Now}, nil
}

// Subject returns the notification subject line.
func (m *Mailer) Subject() string {
	return m.cfg.Title + " - New comment published"
}

var textBody = template.Must(template.New("text").Parse(`A new comment was published on "{{.Post.Title}}".

{{.Comment.Description}}

{{.Link}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<p>A new comment was published on <strong>{{.Post.Title}}</strong>.</p>
<blockquote>{{.Comment.Description}}</blockquote>
<p><a href="{{.Link}}">{{.Link}}</a></p>
`))

type mailData struct {
	blog.CommentNotice
	Link string
}

// NotifyComment implements blog.Notifier. Sending stops when ctx ends.
func (m *Mailer) NotifyComment(ctx context.Context, n blog.CommentNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.newMsg(n)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending comment mail: %w", err)
	}
	return nil
}

// newMsg builds the notice with text and HTML alternatives. Both parts are
// quoted-printable, so long comments never produce over-long lines.
func (m *Mailer) newMsg(n blog.CommentNotice) (*mail.Msg, error) {
	data := mailData{CommentNotice: n, Link: m.cfg.BaseURL + n.URL}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("rendering text body: %w", err)
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("rendering html body: %w", err)
	}

	msg := mail.NewMsg(mail.WithEncoding(mail.EncodingQP), mail.WithCharset(mail.CharsetUTF8))
	if err := msg.From(m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(m.cfg.Sender); err != nil {
		return nil, fmt.Errorf("setting recipient: %w", err)
	}
	msg.Subject(m.Subject())
	msg.SetDateWithValue(m.now())
	msg.SetBodyString(mail.TypeTextPlain, text.String())
	msg.AddAlternativeString(mail.TypeTextHTML, html.String())
	return msg, nil
}

// Message renders the full MIME message.
func (m *Mailer) Message(n blog.CommentNotice) ([]byte, error) {
	msg, err := m.newMsg(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing message: %w", err)
	}
	return buf.Bytes(), nil
}

package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// smtpNotifier mails a plain-text summary of each event. Every network step
// runs under the deadline of the context passed to Notify.
type smtpNotifier struct {
	addr      string
	host      string
	from      string
	to        []string
	auth      smtp.Auth
	dialer    net.Dialer
	tlsConfig *tls.Config
}

func NewEmail(host string, port int, from, to, username, password string) (Notifier, error) {
	host = strings.TrimSpace(host)
	from = strings.TrimSpace(from)
	if host == "" {
		return nil, fmt.Errorf("config.smtp_host is required")
	}
	if port <= 0 {
		return nil, fmt.Errorf("config.smtp_port must be > 0")
	}
	if from == "" {
		return nil, fmt.Errorf("config.from is required")
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("config.to is required")
	}
	recipients := splitRecipients(to)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("config.to must include at least one recipient")
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if (username == "") != (password == "") {
		return nil, fmt.Errorf("config.username and config.password must be set together")
	}

	n := &smtpNotifier{
		addr:      net.JoinHostPort(host, strconv.Itoa(port)),
		host:      host,
		from:      from,
		to:        recipients,
		tlsConfig: &tls.Config{ServerName: host},
	}
	if username != "" {
		n.auth = smtp.PlainAuth("", username, password, host)
	}
	return n, nil
}

func (n *smtpNotifier) Notify(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := n.deliver(ctx, composeMessage(n.from, n.to, event)); err != nil {
		// a deadline or cancel closes the connection mid-exchange; report
		// the context error rather than the resulting read failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("smtp %s: %w", n.addr, errors.Join(ctxErr, err))
		}
		return fmt.Errorf("smtp %s: %w", n.addr, err)
	}
	return nil
}

func (n *smtpNotifier) deliver(ctx context.Context, msg []byte) error {
	conn, err := n.dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, n.host)
	if err != nil {
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(n.tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if n.auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(n.auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(n.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range n.to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}

// composeMessage renders headers and body with CRLF line endings.
func composeMessage(from string, to []string, event Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: [gluekit] truncate %s: %s\r\n", event.Status, event.Job)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(summaryText(event), "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func summaryText(event Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Truncate of %s finished with status %s\n\n", event.Job, event.Status)
	fmt.Fprintf(&b, "location: %s\n", event.Location)
	fmt.Fprintf(&b, "batches: %d\n", event.Batches)
	fmt.Fprintf(&b, "deleted: %d\n", event.Deleted)
	fmt.Fprintf(&b, "failed keys: %d\n", event.Failed)
	fmt.Fprintf(&b, "duration: %s", event.Duration)
	if event.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s", event.Error)
	}
	return b.String()
}

func splitRecipients(raw string) []string {
	var out []string
	for p := range strings.SplitSeq(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

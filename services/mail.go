package services

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"paper-birthdays/models"
	"paper-birthdays/providers"
)

const verificationHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="font-size: 28px;">🎂 Paper Birthdays</h1>
    <p>Hi there!</p>
    <p>You've requested to receive annual birthday reminders for this paper:</p>
    <p style="border-left: 4px solid #667eea; padding: 15px;"><strong>"{{.Title}}"</strong></p>
    <p>Every year on <strong>{{.Date}}</strong>, we'll send you an email celebrating this paper's publication anniversary!</p>
    <p style="text-align: center;"><a href="{{.ConfirmURL}}">Confirm Subscription</a></p>
    <p style="font-size: 14px; color: #666;">If the button doesn't work, copy and paste this link into your browser:<br><a href="{{.ConfirmURL}}">{{.ConfirmURL}}</a></p>
    <p style="font-size: 14px; color: #666;">Didn't request this? You can safely ignore this email.</p>
    <p style="text-align: center; font-size: 14px; color: #666;">Happy Birthday Paper | <a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
  </div>
</body>
</html>`

const verificationText = `Paper Birthdays - Confirm Your Subscription

You've requested to receive annual birthday reminders for:
"{{.Title}}"

Every year on {{.Date}}, we'll send you an email celebrating this paper's publication anniversary!

Confirm your subscription by clicking this link:
{{.ConfirmURL}}

Didn't request this? You can safely ignore this email.

Happy Birthday Paper | {{.SiteURL}}`

const birthdayHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="font-size: 28px;">🎂 Paper Birthday!</h1>
    <p style="font-size: 18px;">Celebrating {{.Age}} Years</p>
    <p>Today marks <strong>{{.Age}} years</strong> since this paper was published!</p>
    <h2 style="font-size: 20px; color: #111;">"{{.Title}}"</h2>
    <p>
      <span>📅 Published {{.Date}}, {{.Year}}</span> ·
      <span>📊 {{.Citations}} citations</span> ·
      <span>🏷️ {{.Field}}</span>
    </p>
    <p style="text-align: center;">
      <a href="{{.PaperURL}}">Read the Paper</a> |
      <a href="{{.DayURL}}">More {{.Date}} Papers</a>
    </p>
    <p style="font-size: 14px; color: #666;">You're receiving this email because you subscribed to birthday reminders for this paper.</p>
    <p style="text-align: center; font-size: 12px; color: #999;"><a href="{{.UnsubscribeURL}}">Unsubscribe</a> from this paper</p>
    <p style="text-align: center; font-size: 12px; color: #999;">Happy Birthday Paper | <a href="{{.SiteURL}}">{{.SiteURL}}</a></p>
  </div>
</body>
</html>`

const birthdayText = `🎂 Paper Birthday! Celebrating {{.Age}} Years

Today marks {{.Age}} years since this paper was published:

"{{.Title}}"

📅 Published {{.Date}}, {{.Year}}
📊 {{.Citations}} citations
🏷️ {{.Field}}

Read the paper: {{.PaperURL}}
More {{.Date}} papers: {{.DayURL}}

---
Unsubscribe: {{.UnsubscribeURL}}
Happy Birthday Paper | {{.SiteURL}}`

var (
	verificationHTMLTmpl = htmltemplate.Must(htmltemplate.New("verification.html").Parse(verificationHTML))
	verificationTextTmpl = texttemplate.Must(texttemplate.New("verification.txt").Parse(verificationText))
	birthdayHTMLTmpl     = htmltemplate.Must(htmltemplate.New("birthday.html").Parse(birthdayHTML))
	birthdayTextTmpl     = texttemplate.Must(texttemplate.New("birthday.txt").Parse(birthdayText))

	numberPrinter = message.NewPrinter(language.English)
)

// executor deckt html/template und text/template ab.
type executor interface {
	Execute(w io.Writer, data any) error
}

// Mailer setzt die Nachrichten zusammen. Der Versand liegt beim providers.Sender.
type Mailer struct {
	SiteURL string
}

// VerificationURL ist der Bestätigungslink; das Token ist das einzige Pfadsegment nach dem Präfix.
func (m Mailer) VerificationURL(token string) string {
	return m.SiteURL + "/api/verify-email/" + token
}

// UnsubscribeURL ist der Abmeldelink.
func (m Mailer) UnsubscribeURL(token string) string {
	return m.SiteURL + "/api/unsubscribe/" + token
}

// VerificationMessage baut die Double-Opt-In-Mail.
func (m Mailer) VerificationMessage(to, paperTitle, token, monthDay string) (providers.Message, error) {
	data := struct {
		Title, Date, ConfirmURL, SiteURL string
	}{paperTitle, DisplayDate(monthDay), m.VerificationURL(token), m.SiteURL}
	return m.render(to, "Confirm your Paper Birthday subscription", data, verificationHTMLTmpl, verificationTextTmpl)
}

// BirthdayMessage baut die jährliche Geburtstagsmail.
func (m Mailer) BirthdayMessage(due models.DueSubscription, field string, currentYear int) (providers.Message, error) {
	age := currentYear - due.PaperYear
	dayURL := m.SiteURL
	if tok, err := ParseMonthDay(due.PublicationMonthDay); err == nil {
		dayURL += "/" + tok.String()
	}
	data := struct {
		Age                                                      int
		Title, Date, Citations, Field, PaperURL, DayURL, SiteURL string
		UnsubscribeURL                                           string
		Year                                                     int
	}{
		Age:            age,
		Title:          due.PaperTitle,
		Date:           DisplayDate(due.PublicationMonthDay),
		Citations:      numberPrinter.Sprintf("%d", due.CitationCount),
		Field:          field,
		PaperURL:       due.PaperURL,
		DayURL:         dayURL,
		SiteURL:        m.SiteURL,
		UnsubscribeURL: m.UnsubscribeURL(due.UnsubscribeToken),
		Year:           due.PaperYear,
	}
	subject := fmt.Sprintf("🎂 Happy %s Birthday to \"%s\"!", Ordinal(age), due.PaperTitle)
	return m.render(due.Email, subject, data, birthdayHTMLTmpl, birthdayTextTmpl)
}

func (m Mailer) render(to, subject string, data any, html, text executor) (providers.Message, error) {
	var hb, tb bytes.Buffer
	if err := html.Execute(&hb, data); err != nil {
		return providers.Message{}, fmt.Errorf("render html: %w", err)
	}
	if err := text.Execute(&tb, data); err != nil {
		return providers.Message{}, fmt.Errorf("render text: %w", err)
	}
	return providers.Message{To: to, Subject: subject, HTML: hb.String(), Text: tb.String()}, nil
}

// Ordinal liefert "1st", "2nd", "3rd", "11th", "22nd" usw.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

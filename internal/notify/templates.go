package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"wildfire/internal/models"
)

const signature = "Nepal WildFire Watch"

var (
	otpTmpl = template.Must(template.New("otp").Parse(`Hello,

{{.Intro}}

    {{.Code}}

This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.

-- 
` + signature + `
`))

	replyTmpl = template.Must(template.New("reply").Parse(`{{.Message}}

-- 
` + signature + ` Team
`))

	reportReplyTmpl = template.Must(template.New("report_reply").Parse(`Dear {{.Name}},

Thank you for reporting a fire in {{.District}}{{if .Province}}, {{.Province}}{{end}} on {{.FireDate}}.

{{.Message}}

-- 
` + signature + ` Team
`))

	digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
		"deref": func(p *float64) float64 { return *p },
	}).Parse(`Fire alert issued
=================

{{.Title}}

{{.Message}}

Severity:   {{.Severity}}
{{- if .Forest}}
Forest:     {{.Forest}}{{end}}
{{- if .District}}
District:   {{.District}}{{end}}
{{- if .Province}}
Province:   {{.Province}}{{end}}
Location:   {{printf "%.4f" .Latitude}}, {{printf "%.4f" .Longitude}}
{{- if .Probability}}
Probability: {{printf "%.2f" (deref .Probability)}}{{end}}
{{- with .WeatherData}}
Weather:    {{printf "%.1f" .Temperature}}°C, {{printf "%.0f" .Humidity}}% humidity, wind {{printf "%.1f" .WindSpeed}} km/h, rain {{printf "%.1f" .Precipitation}} mm{{end}}
Expires:    {{.ExpiresAt.Format "2006-01-02 15:04 MST"}}
{{- if .Precautions}}

Precautions: {{.Precautions}}{{end}}

-- 
` + signature + ` alerting
`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func otpMessage(to, subject, intro, code string, ttl time.Duration) (Message, error) {
	body, err := render(otpTmpl, struct {
		Intro   string
		Code    string
		Minutes int
	}{intro, code, int(ttl.Minutes())})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: subject, Body: body}, nil
}

func VerificationOTP(to, code string, ttl time.Duration) (Message, error) {
	return otpMessage(to, "Email Verification OTP - Nepal WildFire Watch",
		"Use the code below to verify your email address.", code, ttl)
}

func ResentOTP(to, code string, ttl time.Duration) (Message, error) {
	return otpMessage(to, "New Email Verification OTP - Nepal WildFire Watch",
		"Here is your new verification code.", code, ttl)
}

func PasswordResetOTP(to, code string, ttl time.Duration) (Message, error) {
	return otpMessage(to, "Password Reset OTP - Nepal WildFire Watch",
		"Use the code below to reset your password.", code, ttl)
}

// Reply wraps an admin's free-form message
func Reply(to, subject, message string) (Message, error) {
	body, err := render(replyTmpl, struct{ Message string }{message})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{to}, Subject: subject, Body: body}, nil
}

// ReportReply answers the person who submitted a fire report
func ReportReply(report *models.FireReport, subject, message string) (Message, error) {
	name := report.Name
	if name == "" {
		name = "reporter"
	}
	body, err := render(reportReplyTmpl, struct {
		Name, District, Province, FireDate, Message string
	}{name, report.District, report.Province, report.FireDate, message})
	if err != nil {
		return Message{}, err
	}
	return Message{To: []string{report.Email}, Subject: subject, Body: body}, nil
}

// AlertDigest describes a newly created alert for the subscriber list
func AlertDigest(recipients []string, alert models.Alert) (Message, error) {
	body, err := render(digestTmpl, alert)
	if err != nil {
		return Message{}, err
	}
	subject := fmt.Sprintf("[%s] %s", alert.Severity, alert.Title)
	return Message{To: recipients, Subject: subject, Body: body}, nil
}

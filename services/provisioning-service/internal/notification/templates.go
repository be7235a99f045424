package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Template names a notification body.
type Template string

const (
	TemplateWelcome       Template = "welcome"
	TemplatePasswordReset Template = "password_reset"
)

// WelcomeData fills the welcome template. Password is only set for accounts
// created by an administrator.
type WelcomeData struct {
	Name             string
	Email            string
	RoleName         string
	OrganizationName string
	Password         string
	LoginURL         string
	ProductName      string
}

// PasswordResetData fills the password reset template.
type PasswordResetData struct {
	ResetLink   string
	Token       string
	ExpiresIn   string
	ProductName string
}

// Rendered is a template rendered for delivery.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type templateSet struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

var templates = map[Template]templateSet{
	TemplateWelcome: {
		subject: "Welcome to {{.ProductName}}",
		html: htmltemplate.Must(htmltemplate.New("welcome").Parse(`<p>Hi {{.Name}},</p>
<p>Your {{.RoleName}} account{{if .OrganizationName}} for {{.OrganizationName}}{{end}} is ready.</p>
<p>Sign in with <strong>{{.Email}}</strong>{{if .Password}} and the temporary password <code>{{.Password}}</code>. Please change it after your first login{{end}}.</p>
<p><a href="{{.LoginURL}}">{{.LoginURL}}</a></p>
<p>{{.ProductName}} Team</p>`)),
		text: texttemplate.Must(texttemplate.New("welcome").Parse(`Hi {{.Name}}, your {{.RoleName}} account{{if .OrganizationName}} for {{.OrganizationName}}{{end}} is ready. Sign in at {{.LoginURL}} with {{.Email}}{{if .Password}} and temporary password {{.Password}}{{end}}.`)),
	},
	TemplatePasswordReset: {
		subject: "{{.ProductName}} password reset",
		html: htmltemplate.Must(htmltemplate.New("password_reset").Parse(`<p>Hi,</p>
<p>We received a request to reset the password for your account.</p>
<p>If you made this request, use the link below to choose a new password:</p>
<p><a href="{{.ResetLink}}">{{.ResetLink}}</a></p>
<p>This link expires in {{.ExpiresIn}}. If you did not request a reset, you can ignore this email.</p>
<p>{{.ProductName}} Team</p>`)),
		text: texttemplate.Must(texttemplate.New("password_reset").Parse(`Reset your {{.ProductName}} password: {{.ResetLink}} (expires in {{.ExpiresIn}}).`)),
	},
}

// Render executes the named template against data.
func Render(name Template, data any) (Rendered, error) {
	set, ok := templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown notification template %q", name)
	}

	var subject, html, text bytes.Buffer

	subjectTmpl, err := texttemplate.New("subject").Parse(set.subject)
	if err != nil {
		return Rendered{}, err
	}
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := set.html.Execute(&html, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := set.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return Rendered{Subject: subject.String(), HTML: html.String(), Text: text.String()}, nil
}

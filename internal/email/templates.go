package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var verificationTmpl = template.Must(template.New("verification").Parse(`
  <div style="font-family:Arial,Helvetica,sans-serif;background:#f6f9fc;padding:24px;">
    <div style="max-width:560px;margin:0 auto;background:#ffffff;border-radius:8px;overflow:hidden;border:1px solid #e6ecf1;">
      <div style="background:#0f172a;color:#ffffff;padding:16px 20px;">
        <h2 style="margin:0;font-size:18px;">Online Examination Portal</h2>
      </div>
      <div style="padding:20px 24px;">
        <p style="margin:0 0 12px 0;color:#0f172a;">Hi {{.Name}},</p>
        <p style="margin:0 0 12px 0;color:#334155;">Use the following verification code to confirm your email address. The code expires in <b>{{.TTLMinutes}} minutes</b>.</p>
        <div style="text-align:center;margin:24px 0;">
          <div style="display:inline-block;border:1px dashed #94a3b8;border-radius:8px;padding:12px 16px;background:#f8fafc;">
            <span style="font-size:24px;letter-spacing:4px;font-weight:700;color:#0f172a;">{{.Code}}</span>
          </div>
        </div>
        <p style="margin:0 0 12px 0;color:#64748b;">If you didn't request this, you can safely ignore this email.</p>
      </div>
      <div style="padding:14px 20px;background:#f1f5f9;color:#475569;font-size:12px;">
        <p style="margin:0;">&copy; {{.Year}} Online Examination Portal</p>
      </div>
    </div>
  </div>`))

// NewVerificationEmail builds the OTP message for an address. userName is
// reduced to its first word for the greeting, "there" when empty.
func NewVerificationEmail(to, userName, code string, ttl time.Duration) (*Email, error) {
	name := "there"
	if userName != "" {
		name = strings.Fields(userName)[0]
	}
	ttlMinutes := int(ttl.Minutes())

	var html bytes.Buffer
	err := verificationTmpl.Execute(&html, map[string]interface{}{
		"Name":       name,
		"Code":       code,
		"TTLMinutes": ttlMinutes,
		"Year":       time.Now().Year(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render verification template: %w", err)
	}

	text := fmt.Sprintf(
		"Hello %s,\n\nYour verification code is: %s\n\nThis code will expire in %d minutes.\n\n"+
			"If you didn't request this code, please ignore this email.\n\nBest regards,\nOnline Exam Portal Team",
		name, code, ttlMinutes,
	)

	return &Email{
		To:       to,
		Subject:  "Verify Your Email - Online Exam Portal",
		Body:     text,
		HTMLBody: html.String(),
	}, nil
}

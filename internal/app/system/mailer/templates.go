// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// NotificationEmailData holds data for notification email templates.
type NotificationEmailData struct {
	SiteName  string
	Recipient string // recipient's display name
	Headline  string // e.g., "A task needs your attention"
	TaskTitle string
	GroupName string
	TaskLink  string
}

// BuildNotificationEmail creates a task notification email with both HTML
// and text bodies.
func BuildNotificationEmail(data NotificationEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("%s: %s", data.SiteName, data.Headline),
		TextBody: buildNotificationText(data),
		HTMLBody: buildNotificationHTML(data),
	}
}

func buildNotificationText(data NotificationEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Recipient))
	buf.WriteString(data.Headline + "\n\n")
	if data.TaskTitle != "" {
		buf.WriteString(fmt.Sprintf("Task: %s\n", data.TaskTitle))
	}
	if data.GroupName != "" {
		buf.WriteString(fmt.Sprintf("Care circle: %s\n", data.GroupName))
	}
	if data.TaskLink != "" {
		buf.WriteString("\nOpen the task:\n" + data.TaskLink + "\n")
	}
	buf.WriteString("\nYou are receiving this because notifications are enabled for your account. You can change this in your notification settings.\n")
	return buf.String()
}

func buildNotificationHTML(data NotificationEmailData) string {
	tmpl := template.Must(template.New("notification").Parse(notificationHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const notificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Headline}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #0e7490;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.Recipient}},
              </p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.Headline}}
              </p>

              {{if .TaskTitle}}
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 20px; margin-bottom: 24px;">
                <p style="margin: 0; font-size: 18px; font-weight: 600; color: #1f2937;">{{.TaskTitle}}</p>
                {{if .GroupName}}
                <p style="margin: 8px 0 0; font-size: 14px; color: #6b7280;">Care circle: {{.GroupName}}</p>
                {{end}}
              </div>
              {{end}}

              {{if .TaskLink}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.TaskLink}}" style="display: inline-block; padding: 14px 32px; background-color: #0e7490; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Open Task
                    </a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You can change what you are notified about in your notification settings.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

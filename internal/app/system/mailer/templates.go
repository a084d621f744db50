// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// WorkspaceInviteData holds data for workspace invitation email templates.
type WorkspaceInviteData struct {
	WorkspaceName string
	InviterName   string
	Role          string
	AcceptLink    string
	ExpiresIn     string // e.g., "7 hari"
}

// BuildWorkspaceInvite creates a workspace invitation email with both HTML
// and text bodies.
func BuildWorkspaceInvite(to string, data WorkspaceInviteData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Undangan bergabung ke workspace %s", data.WorkspaceName),
		TextBody: buildWorkspaceInviteText(data),
		HTMLBody: buildWorkspaceInviteHTML(data),
	}
}

func buildWorkspaceInviteText(data WorkspaceInviteData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s mengundang Anda bergabung ke workspace %s sebagai %s.\n\n",
		data.InviterName, data.WorkspaceName, data.Role))
	buf.WriteString("Klik tautan berikut untuk menerima undangan:\n")
	buf.WriteString(data.AcceptLink + "\n\n")
	buf.WriteString(fmt.Sprintf("Undangan ini berlaku selama %s.\n\n", data.ExpiresIn))
	buf.WriteString("Jika Anda tidak mengenali undangan ini, abaikan email ini.\n")
	return buf.String()
}

func buildWorkspaceInviteHTML(data WorkspaceInviteData) string {
	tmpl := template.Must(template.New("workspace-invite").Parse(workspaceInviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

// PicInviteData holds data for person-in-charge invitation email templates.
type PicInviteData struct {
	EntityKind  string // "task" or "subtask"
	EntityName  string
	InviterName string
	AcceptLink  string
	ExpiresIn   string
}

// BuildPicInvite creates a PIC invitation email with both HTML and text
// bodies.
func BuildPicInvite(to string, data PicInviteData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("Anda ditunjuk sebagai PIC: %s", data.EntityName),
		TextBody: buildPicInviteText(data),
		HTMLBody: buildPicInviteHTML(data),
	}
}

func buildPicInviteText(data PicInviteData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s menunjuk Anda sebagai penanggung jawab %s \"%s\".\n\n",
		data.InviterName, data.EntityKind, data.EntityName))
	buf.WriteString("Klik tautan berikut untuk menerima penunjukan:\n")
	buf.WriteString(data.AcceptLink + "\n\n")
	buf.WriteString(fmt.Sprintf("Undangan ini berlaku selama %s.\n", data.ExpiresIn))
	return buf.String()
}

func buildPicInviteHTML(data PicInviteData) string {
	tmpl := template.Must(template.New("pic-invite").Parse(picInviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const workspaceInviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Undangan Workspace</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.WorkspaceName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                <strong>{{.InviterName}}</strong> mengundang Anda bergabung ke workspace
                <strong>{{.WorkspaceName}}</strong> sebagai <strong>{{.Role}}</strong>.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding-bottom: 24px;">
                    <a href="{{.AcceptLink}}" style="display: inline-block; padding: 12px 32px; background-color: #4f46e5; color: #ffffff; font-size: 16px; font-weight: 600; text-decoration: none; border-radius: 6px;">Terima Undangan</a>
                  </td>
                </tr>
              </table>
              <p style="margin: 0; font-size: 14px; color: #6b7280; text-align: center;">
                Undangan ini berlaku selama {{.ExpiresIn}}. Jika Anda tidak mengenali undangan ini, abaikan email ini.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const picInviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Penunjukan PIC</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                <strong>{{.InviterName}}</strong> menunjuk Anda sebagai penanggung jawab
                {{.EntityKind}} <strong>{{.EntityName}}</strong>.
              </p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center" style="padding-bottom: 24px;">
                    <a href="{{.AcceptLink}}" style="display: inline-block; padding: 12px 32px; background-color: #4f46e5; color: #ffffff; font-size: 16px; font-weight: 600; text-decoration: none; border-radius: 6px;">Terima Penunjukan</a>
                  </td>
                </tr>
              </table>
              <p style="margin: 0; font-size: 14px; color: #6b7280; text-align: center;">
                Undangan ini berlaku selama {{.ExpiresIn}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"taskmanager/models"

	"gopkg.in/gomail.v2"
)

var emailTemplates = map[string]*template.Template{
	"task_assigned": template.Must(template.New("task_assigned").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>New task assigned: {{.Task.Title}}</h2>
    <p>Hello {{.Name}},</p>
    <p>You have been assigned a <strong>{{.Task.Priority}}</strong> priority task due on {{.DueDate}}.</p>
    <p>{{.Task.Description}}</p>
    <p><a href="{{.Link}}">Open task</a></p>
</body>
</html>`)),
	"task_due_soon": template.Must(template.New("task_due_soon").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.Subject}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Reminder: {{.Task.Title}} is due {{.DueDate}}</h2>
    <p>Hello {{.Name}},</p>
    <p>The task is currently <strong>{{.Task.Status}}</strong> at {{.Task.Progress}}% progress.</p>
    <p><a href="{{.Link}}">Open task</a></p>
</body>
</html>`)),
}

type emailData struct {
	Subject string
	Name    string
	Task    *models.Task
	DueDate string
	Link    string
}

type MailerConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	ClientURL string
}

// Mailer sends task notifications over SMTP.
type Mailer struct {
	cfg  MailerConfig
	dial func() (gomail.SendCloser, error)
}

func NewMailer(cfg MailerConfig) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{cfg: cfg, dial: d.Dial}
}

func (m *Mailer) TaskAssigned(ctx context.Context, task *models.Task, assignees []models.User) error {
	return m.send(ctx, "task_assigned", "New task assigned: "+task.Title, task, assignees)
}

func (m *Mailer) TaskDueSoon(ctx context.Context, task *models.Task, assignees []models.User) error {
	return m.send(ctx, "task_due_soon", "Task due soon: "+task.Title, task, assignees)
}

func (m *Mailer) send(ctx context.Context, templateName, subject string, task *models.Task, recipients []models.User) error {
	if len(recipients) == 0 {
		return nil
	}
	tmpl, ok := emailTemplates[templateName]
	if !ok {
		return fmt.Errorf("template '%s' not found", templateName)
	}

	messages := make([]*gomail.Message, 0, len(recipients))
	for _, u := range recipients {
		var body bytes.Buffer
		err := tmpl.Execute(&body, emailData{
			Subject: subject,
			Name:    u.Name,
			Task:    task,
			DueDate: task.DueDate.Format("Jan 2, 2006"),
			Link:    fmt.Sprintf("%s/tasks/%s", m.cfg.ClientURL, task.ID),
		})
		if err != nil {
			return fmt.Errorf("error executing template: %w", err)
		}

		msg := gomail.NewMessage()
		msg.SetHeader("From", m.cfg.FromEmail)
		msg.SetHeader("To", u.Email)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", body.String())
		messages = append(messages, msg)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	sender, err := m.dial()
	if err != nil {
		return fmt.Errorf("error connecting to SMTP server: %w", err)
	}
	defer sender.Close()

	if err := gomail.Send(sender, messages...); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	LogEvent("email_sent", map[string]interface{}{
		"template":   templateName,
		"task_id":    task.ID,
		"recipients": len(messages),
		"sent_at":    time.Now().UTC(),
	})
	return nil
}

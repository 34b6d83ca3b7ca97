package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"assignment-management-api/models"
)

// MailSender delivers one HTML message to recipients without exposing their addresses to each other.
type MailSender func(to []string, subject, html string) error

type DelayedMailerSummary struct {
	JobsProcessed int `json:"processed"`
	EmailsSent    int `json:"emails_sent"`
	JobsSkipped   int `json:"skipped"`
	JobsFailed    int `json:"failed"`
}

// DelayedMailerJobService drains due reminder jobs and mails the assignment participants.
type DelayedMailerJobService struct {
	store     Store
	queue     MailQueue
	send      MailSender
	now       func() time.Time
	BatchSize int
}

func NewDelayedMailerJobService(store Store, queue MailQueue, send MailSender) *DelayedMailerJobService {
	return &DelayedMailerJobService{store: store, queue: queue, send: send, now: time.Now, BatchSize: 50}
}

var reminderTemplate = template.Must(template.New("reminder").Parse(`<p>This is a reminder that the <strong>{{.Deadline}}</strong> deadline for <strong>{{.Assignment}}</strong> is {{.DueAt}}.</p>
{{if .DeadlineName}}<p>{{.DeadlineName}}</p>{{end}}
{{if .DescriptionURL}}<p>Details: <a href="{{.DescriptionURL}}">{{.DescriptionURL}}</a></p>{{end}}
<p>Please log in to complete your work before the deadline.</p>`))

type reminderData struct {
	Deadline       string
	Assignment     string
	DueAt          string
	DeadlineName   string
	DescriptionURL string
}

// ReminderSubject is the subject line of a deadline reminder.
func ReminderSubject(deadline models.DeadlineType, assignmentName string) string {
	return fmt.Sprintf("Message regarding %s deadline for %s", deadline, assignmentName)
}

// RenderReminder builds the subject and HTML body for one due date.
func RenderReminder(assignment models.Assignment, dd models.DueDate) (string, string, error) {
	data := reminderData{
		Deadline:       dd.DeadlineTypeID.String(),
		Assignment:     assignment.Name,
		DeadlineName:   models.StringValue(dd.DeadlineName),
		DescriptionURL: models.StringValue(dd.DescriptionURL),
	}
	if dd.DueAt != nil {
		data.DueAt = dd.DueAt.UTC().Format("2006-01-02 15:04 MST")
	}
	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, data); err != nil {
		return "", "", err
	}
	return ReminderSubject(dd.DeadlineTypeID, assignment.Name), body.String(), nil
}

// RunOnce processes every job that is due now.
func (s *DelayedMailerJobService) RunOnce(ctx context.Context) (*DelayedMailerSummary, error) {
	summary := &DelayedMailerSummary{}
	for {
		jobs, err := s.queue.PopDue(ctx, s.now(), s.BatchSize)
		if err != nil {
			return summary, err
		}
		if len(jobs) == 0 {
			return summary, nil
		}
		for _, job := range jobs {
			summary.JobsProcessed++
			sent, err := s.deliver(ctx, job)
			switch {
			case err != nil:
				summary.JobsFailed++
				log.Printf("[delayed-mailer] job %s (assignment %d): %v", job.ID, job.AssignmentID, err)
			case sent == 0:
				summary.JobsSkipped++
			default:
				summary.EmailsSent += sent
			}
		}
		if len(jobs) < s.BatchSize {
			return summary, nil
		}
	}
}

// deliver mails one job. Jobs whose due date was removed or moved are stale and skipped.
func (s *DelayedMailerJobService) deliver(ctx context.Context, job MailJob) (int, error) {
	assignment, err := s.store.GetAssignment(ctx, job.AssignmentID)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	dueDates, err := s.store.ListDueDates(ctx, job.AssignmentID)
	if err != nil {
		return 0, err
	}
	var current *models.DueDate
	for i := range dueDates {
		if dueDates[i].ID == job.DueDateID {
			current = &dueDates[i]
			break
		}
	}
	if current == nil || current.DueAt == nil || !current.DueAt.Equal(job.DueAt) {
		return 0, nil
	}

	recipients, err := s.store.ListParticipantEmails(ctx, job.AssignmentID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}
	subject, body, err := RenderReminder(*assignment, *current)
	if err != nil {
		return 0, err
	}
	if err := s.send(recipients, subject, body); err != nil {
		return 0, err
	}
	return len(recipients), nil
}

// Run polls the queue every interval until ctx is cancelled.
func (s *DelayedMailerJobService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		summary, err := s.RunOnce(ctx)
		if err != nil {
			log.Printf("[delayed-mailer] poll failed: %v", err)
		} else if summary.JobsProcessed > 0 {
			log.Printf("[delayed-mailer] processed=%d sent=%d skipped=%d failed=%d",
				summary.JobsProcessed, summary.EmailsSent, summary.JobsSkipped, summary.JobsFailed)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

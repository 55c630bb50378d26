package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/notify"
	"training-passport/internal/repository"

	"github.com/sirupsen/logrus"
)

// Fallback label for trainings without a responsible trainer. The group is
// still built (it shows up in logs) but can never be delivered.
const unassignedTrainer = "Sin Responsable"

// NewAssignmentNotice is one line of the new-assignment digest.
type NewAssignmentNotice struct {
	TrainingTitle string
	UserName      string
}

// TrainerNewDigest groups the new-assignment notices for one trainer.
// Email is empty when no user matches the trainer's name; those groups are
// skipped at send time.
type TrainerNewDigest struct {
	TrainerName string
	Email       string
	Notices     []NewAssignmentNotice
}

// MonthlyItem is one training line of the monthly digest.
type MonthlyItem struct {
	Title        string
	PendingCount int
}

// TrainerMonthlyDigest groups a trainer's overdue and upcoming pending trainings.
type TrainerMonthlyDigest struct {
	TrainerName string
	Email       string
	Overdue     []MonthlyItem
	Upcoming    []MonthlyItem
}

type NotificationService interface {
	// BuildNewAssignmentDigest collects assignments created after since, grouped
	// by trainer. Pure read; groups are sorted by trainer name.
	BuildNewAssignmentDigest(ctx context.Context, since time.Time) ([]TrainerNewDigest, error)
	// BuildMonthlyDigest classifies each training with pending assignments as
	// overdue or upcoming and groups by trainer. Pure read.
	BuildMonthlyDigest(ctx context.Context) ([]TrainerMonthlyDigest, error)
	// RunNewAssignmentSweep builds and sends the new-assignment digest, then
	// advances the cursor to the sweep start time whether or not anything was
	// sent. Returns the number of emails sent.
	RunNewAssignmentSweep(ctx context.Context) (int, error)
	// RunMonthlySweep builds and sends the monthly digest. Returns the number
	// of emails sent.
	RunMonthlySweep(ctx context.Context) (int, error)
}

// notificationService implements the NotificationService interface.
type notificationService struct {
	userRepo       repository.UserRepository
	trainingRepo   repository.TrainingRepository
	assignmentRepo repository.AssignmentRepository
	cursorStore    repository.CursorStore
	mailer         notify.Mailer
	appURL         string
	logger         *logrus.Logger
}

// NewNotificationService creates a new instance of notificationService.
func NewNotificationService(
	userRepo repository.UserRepository,
	trainingRepo repository.TrainingRepository,
	assignmentRepo repository.AssignmentRepository,
	cursorStore repository.CursorStore,
	mailer notify.Mailer,
	appURL string,
	logger *logrus.Logger,
) NotificationService {
	return &notificationService{
		userRepo:       userRepo,
		trainingRepo:   trainingRepo,
		assignmentRepo: assignmentRepo,
		cursorStore:    cursorStore,
		mailer:         mailer,
		appURL:         appURL,
		logger:         logger,
	}
}

// BuildNewAssignmentDigest joins recent assignments to their training and user
// and groups the result by responsible trainer. Entries whose training or user
// was deleted in the meantime are dropped.
func (s *notificationService) BuildNewAssignmentDigest(ctx context.Context, since time.Time) ([]TrainerNewDigest, error) {
	assignments, err := s.assignmentRepo.GetAssignedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return []TrainerNewDigest{}, nil
	}

	trainings, err := s.trainingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	trainingsByID := make(map[string]domain.Training, len(trainings))
	for _, t := range trainings {
		trainingsByID[t.ID.Hex()] = t
	}
	usersByID := make(map[string]domain.User, len(users))
	for _, u := range users {
		usersByID[u.ID.Hex()] = u
	}

	grouped := make(map[string][]NewAssignmentNotice)
	for _, assignment := range assignments {
		training, okT := trainingsByID[assignment.TrainingID.Hex()]
		user, okU := usersByID[assignment.UserID.Hex()]
		if !okT || !okU {
			continue
		}
		trainerName := training.TrainerName
		if trainerName == "" {
			trainerName = unassignedTrainer
		}
		grouped[trainerName] = append(grouped[trainerName], NewAssignmentNotice{
			TrainingTitle: training.Title,
			UserName:      user.Name,
		})
	}

	digests := make([]TrainerNewDigest, 0, len(grouped))
	for trainerName, notices := range grouped {
		digests = append(digests, TrainerNewDigest{
			TrainerName: trainerName,
			Email:       resolveTrainerEmail(users, trainerName),
			Notices:     notices,
		})
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].TrainerName < digests[j].TrainerName })
	return digests, nil
}

// BuildMonthlyDigest walks every training, counts its pending assignments and
// classifies it as overdue (scheduled date in the past with pending people) or
// upcoming. Trainers with nothing in either bucket are omitted.
func (s *notificationService) BuildMonthlyDigest(ctx context.Context) ([]TrainerMonthlyDigest, error) {
	trainings, err := s.trainingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	pendingByTraining := make(map[string]int)
	for _, a := range assignments {
		if a.Status == domain.StatusPending {
			pendingByTraining[a.TrainingID.Hex()]++
		}
	}

	now := time.Now().UTC()
	grouped := make(map[string]*TrainerMonthlyDigest)
	for _, training := range trainings {
		pending := pendingByTraining[training.ID.Hex()]
		if pending == 0 {
			continue
		}

		trainerName := training.TrainerName
		if trainerName == "" {
			trainerName = unassignedTrainer
		}
		digest, ok := grouped[trainerName]
		if !ok {
			digest = &TrainerMonthlyDigest{
				TrainerName: trainerName,
				Email:       resolveTrainerEmail(users, trainerName),
			}
			grouped[trainerName] = digest
		}

		item := MonthlyItem{Title: training.Title, PendingCount: pending}
		if training.ScheduledDate != nil && training.ScheduledDate.Before(now) {
			digest.Overdue = append(digest.Overdue, item)
		} else {
			digest.Upcoming = append(digest.Upcoming, item)
		}
	}

	digests := make([]TrainerMonthlyDigest, 0, len(grouped))
	for _, d := range grouped {
		digests = append(digests, *d)
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].TrainerName < digests[j].TrainerName })
	return digests, nil
}

// RunNewAssignmentSweep sends one email per trainer with new assignments.
// The cursor always advances to the sweep start so the same assignments are
// not re-announced, even when nothing could be delivered.
func (s *notificationService) RunNewAssignmentSweep(ctx context.Context) (int, error) {
	sweepStart := time.Now().UTC()

	since, ok, err := s.cursorStore.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		// First run: announce everything on record once.
		since = time.Time{}
	}

	digests, err := s.BuildNewAssignmentDigest(ctx, since)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, digest := range digests {
		if digest.Email == "" {
			s.logger.WithField("trainer", digest.TrainerName).Warn("no deliverable address for trainer, skipping digest")
			continue
		}
		body := renderNewAssignmentBody(digest)
		if err := s.mailer.Send(digest.Email, "Nuevas Capacitaciones Asignadas", body); err != nil {
			s.logger.WithError(err).WithField("trainer", digest.TrainerName).Error("failed to send new-assignment digest")
			continue
		}
		sent++
	}

	if err := s.cursorStore.Set(ctx, sweepStart); err != nil {
		// Notifications are already out; a next run may duplicate them. Accepted.
		return sent, fmt.Errorf("failed to persist sweep cursor: %w", err)
	}
	return sent, nil
}

// RunMonthlySweep sends the monthly summary to each resolvable trainer.
func (s *notificationService) RunMonthlySweep(ctx context.Context) (int, error) {
	digests, err := s.BuildMonthlyDigest(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, digest := range digests {
		if digest.Email == "" {
			s.logger.WithField("trainer", digest.TrainerName).Warn("no deliverable address for trainer, skipping digest")
			continue
		}
		subject := fmt.Sprintf("Resumen Mensual de Capacitaciones: %s", digest.TrainerName)
		if err := s.mailer.Send(digest.Email, subject, s.renderMonthlyBody(digest)); err != nil {
			s.logger.WithError(err).WithField("trainer", digest.TrainerName).Error("failed to send monthly digest")
			continue
		}
		sent++
	}
	return sent, nil
}

// resolveTrainerEmail matches a trainer to a user account by display name.
// Trainers are plain names on the training document, not foreign keys.
func resolveTrainerEmail(users []domain.User, trainerName string) string {
	for _, u := range users {
		if u.Name == trainerName && u.Email != "" {
			return u.Email
		}
	}
	return ""
}

// renderNewAssignmentBody renders the Spanish HTML body of the new-assignment digest.
func renderNewAssignmentBody(digest TrainerNewDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,<br><br>Se han asignado nuevas capacitaciones bajo tu responsabilidad:<ul>", digest.TrainerName)
	for _, notice := range digest.Notices {
		fmt.Fprintf(&b, "<li><b>%s</b> asignada a %s.</li>", notice.TrainingTitle, notice.UserName)
	}
	b.WriteString("</ul><br>Puedes ver los detalles en el panel de administración.")
	return b.String()
}

// renderMonthlyBody renders the Spanish HTML body of the monthly digest,
// overdue items first.
func (s *notificationService) renderMonthlyBody(digest TrainerMonthlyDigest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s,<br><br>Este es tu resumen mensual de capacitaciones asignadas:<br><br>", digest.TrainerName)

	if len(digest.Overdue) > 0 {
		b.WriteString(`<h3><font color="red">Capacitaciones Atrasadas:</font></h3><ul>`)
		for _, item := range digest.Overdue {
			fmt.Fprintf(&b, "<li><b>%s</b> - %d persona(s) pendiente(s)</li>", item.Title, item.PendingCount)
		}
		b.WriteString("</ul><br>")
	}
	if len(digest.Upcoming) > 0 {
		b.WriteString("<h3>Capacitaciones Pendientes:</h3><ul>")
		for _, item := range digest.Upcoming {
			fmt.Fprintf(&b, "<li><b>%s</b> - %d persona(s) pendiente(s)</li>", item.Title, item.PendingCount)
		}
		b.WriteString("</ul><br>")
	}

	fmt.Fprintf(&b, `Por favor, revisa el <a href="%s">panel de administración</a> para más detalles.<br><br>Saludos,<br>Sistema Pasaporte de Capacitación.`, s.appURL)
	return b.String()
}

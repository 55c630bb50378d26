package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"training-passport/internal/domain"
	"training-passport/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[primitive.ObjectID]*domain.User
	// assignmentRepo, when set, receives the cascade on Delete the way the
	// real repository does inside a transaction.
	assignmentRepo *mockAssignmentRepo
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return user.ID, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetAll(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) SetRole(_ context.Context, id primitive.ObjectID, role domain.Role) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *mockUserRepo) SetAvatarURL(_ context.Context, id primitive.ObjectID, avatarURL string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	if m.assignmentRepo != nil {
		m.assignmentRepo.deleteByUser(id)
	}
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock TrainingRepository ──

type mockTrainingRepo struct {
	trainings      map[primitive.ObjectID]*domain.Training
	assignmentRepo *mockAssignmentRepo
}

func newMockTrainingRepo() *mockTrainingRepo {
	return &mockTrainingRepo{trainings: make(map[primitive.ObjectID]*domain.Training)}
}

func (m *mockTrainingRepo) Create(_ context.Context, training *domain.Training) (primitive.ObjectID, error) {
	if training.ID.IsZero() {
		training.ID = primitive.NewObjectID()
	}
	training.CreatedAt = time.Now().UTC()
	training.UpdatedAt = training.CreatedAt
	cp := *training
	m.trainings[training.ID] = &cp
	return training.ID, nil
}

func (m *mockTrainingRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Training, error) {
	if t, ok := m.trainings[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockTrainingRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Training, error) {
	var result []domain.Training
	for _, id := range ids {
		if t, ok := m.trainings[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTrainingRepo) GetAll(_ context.Context) ([]domain.Training, error) {
	result := make([]domain.Training, 0, len(m.trainings))
	for _, t := range m.trainings {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTrainingRepo) Update(_ context.Context, training *domain.Training) error {
	if _, ok := m.trainings[training.ID]; !ok {
		return repository.ErrNotFound
	}
	training.UpdatedAt = time.Now().UTC()
	cp := *training
	m.trainings[training.ID] = &cp
	return nil
}

func (m *mockTrainingRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.trainings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.trainings, id)
	if m.assignmentRepo != nil {
		m.assignmentRepo.deleteByTraining(id)
	}
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[primitive.ObjectID]*domain.Assignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[primitive.ObjectID]*domain.Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.ID.IsZero() {
		assignment.ID = primitive.NewObjectID()
	}
	assignment.UpdatedAt = time.Now().UTC()
	cp := *assignment
	m.assignments[assignment.ID] = &cp
	return assignment.ID, nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockAssignmentRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for _, a := range m.assignments {
		if a.UserID == userID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) GetByTrainingID(_ context.Context, trainingID primitive.ObjectID) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for _, a := range m.assignments {
		if a.TrainingID == trainingID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) GetByUserAndTraining(_ context.Context, userID, trainingID primitive.ObjectID) (*domain.Assignment, error) {
	for _, a := range m.assignments {
		if a.UserID == userID && a.TrainingID == trainingID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockAssignmentRepo) GetByTrainingAndUsers(_ context.Context, trainingID primitive.ObjectID, userIDs []primitive.ObjectID) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for _, a := range m.assignments {
		if a.TrainingID != trainingID {
			continue
		}
		for _, uid := range userIDs {
			if a.UserID == uid {
				result = append(result, *a)
				break
			}
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) GetAll(_ context.Context) ([]domain.Assignment, error) {
	result := make([]domain.Assignment, 0, len(m.assignments))
	for _, a := range m.assignments {
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockAssignmentRepo) GetAssignedSince(_ context.Context, since time.Time) ([]domain.Assignment, error) {
	var result []domain.Assignment
	for _, a := range m.assignments {
		if a.AssignedDate.After(since) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) Reassign(_ context.Context, id primitive.ObjectID, fields repository.ReassignFields) error {
	a, ok := m.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = domain.StatusPending
	if fields.ScheduledDate != nil {
		a.ScheduledDate = fields.ScheduledDate
	}
	if fields.TrainerName != "" {
		a.TrainerName = fields.TrainerName
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockAssignmentRepo) SetStatus(_ context.Context, id primitive.ObjectID, status domain.AssignmentStatus, completedDate *time.Time) error {
	a, ok := m.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Status = status
	if completedDate != nil {
		a.CompletedDate = completedDate
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) BulkAssign(ctx context.Context, inserts []*domain.Assignment, reassigns map[primitive.ObjectID]repository.ReassignFields) error {
	for _, a := range inserts {
		if _, err := m.Create(ctx, a); err != nil {
			return err
		}
	}
	for id, fields := range reassigns {
		if err := m.Reassign(ctx, id, fields); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockAssignmentRepo) deleteByUser(userID primitive.ObjectID) {
	for id, a := range m.assignments {
		if a.UserID == userID {
			delete(m.assignments, id)
		}
	}
}

func (m *mockAssignmentRepo) deleteByTraining(trainingID primitive.ObjectID) {
	for id, a := range m.assignments {
		if a.TrainingID == trainingID {
			delete(m.assignments, id)
		}
	}
}

// ── Mock CursorStore ──

type mockCursorStore struct {
	cursor time.Time
	set    bool
	setErr error
}

func (m *mockCursorStore) Get(_ context.Context) (time.Time, bool, error) {
	return m.cursor, m.set, nil
}

func (m *mockCursorStore) Set(_ context.Context, cursor time.Time) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.cursor = cursor
	m.set = true
	return nil
}

// ── Mock Mailer ──

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockMailer struct {
	sent    []sentMail
	sendErr error
}

func (m *mockMailer) Send(to, subject, htmlBody string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// ── Mock FileStorage ──

type mockFileStorage struct {
	deleted []string
}

func (m *mockFileStorage) GeneratePresignedUploadURL(_ context.Context, objectKey string, contentType string, _ time.Duration) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unexpected content type %q", contentType)
	}
	return "https://storage.example.com/upload/" + objectKey, nil
}

func (m *mockFileStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.example.com/download/" + objectKey, nil
}

func (m *mockFileStorage) DeleteObject(_ context.Context, objectKey string) error {
	m.deleted = append(m.deleted, objectKey)
	return nil
}

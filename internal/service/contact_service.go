package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"lensfolio/api/internal/ids"
	"lensfolio/api/internal/models"
	"lensfolio/api/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ContactService struct {
	messages *repository.ContactRepository
}

func NewContactService(messages *repository.ContactRepository) *ContactService {
	return &ContactService{messages: messages}
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (s *ContactService) Submit(ctx context.Context, input ContactInput) (models.ContactMessage, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	subject := strings.TrimSpace(input.Subject)
	message := strings.TrimSpace(input.Message)

	if name == "" || email == "" || subject == "" || message == "" {
		return models.ContactMessage{}, errors.New("all fields are required")
	}
	if !emailPattern.MatchString(email) {
		return models.ContactMessage{}, errors.New("invalid email format")
	}

	msg := models.ContactMessage{
		ID:      ids.New(),
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return models.ContactMessage{}, err
	}
	return msg, nil
}

package notification

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/adityarh/antarin/internal/model"
	"github.com/adityarh/antarin/internal/repository"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NotificationService pushes order events to drivers and riders over FCM
type NotificationService struct {
	client   *messaging.Client
	userRepo *repository.UserRepository
}

// NewNotificationService creates a new FCM notification service.
// Returns nil (disabled) when credentials are missing or Firebase is down,
// so the server can come up without push.
func NewNotificationService(credentialsFile string, userRepo *repository.UserRepository) (*NotificationService, error) {
	if credentialsFile == "" {
		log.Println("⚠️ Firebase credentials not provided, push notifications disabled")
		return nil, nil
	}

	opt := option.WithCredentialsFile(credentialsFile)
	app, err := firebase.NewApp(context.Background(), nil, opt)
	if err != nil {
		log.Printf("⚠️ Failed to initialize Firebase app: %v (push notifications disabled)", err)
		return nil, nil
	}

	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Printf("⚠️ Failed to get messaging client: %v", err)
		return nil, nil
	}

	log.Println("✅ Firebase FCM initialized")
	return &NotificationService{client: client, userRepo: userRepo}, nil
}

// SendOrderAssigned notifies a driver that a new ride landed on them
func (s *NotificationService) SendOrderAssigned(ctx context.Context, driverID uuid.UUID, order *model.Order) error {
	title := "New ride request"
	body := fmt.Sprintf("Pickup at %s (%d coins)", order.PickupAddress, order.Fare)
	return s.send(ctx, driverID, title, body, map[string]string{
		"type":     "order_assigned",
		"order_id": order.ID.String(),
	})
}

// SendOrderStatus notifies a rider about a status change of their ride
func (s *NotificationService) SendOrderStatus(ctx context.Context, riderID uuid.UUID, order *model.Order) error {
	title := "Ride update"
	body := fmt.Sprintf("Your ride is now %s", order.Status)
	return s.send(ctx, riderID, title, body, map[string]string{
		"type":     "order_status",
		"order_id": order.ID.String(),
		"status":   string(order.Status),
	})
}

func (s *NotificationService) send(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	if s == nil || s.client == nil {
		return nil
	}

	devices, err := s.userRepo.GetUserDevices(userID)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.FCMToken)
	}

	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	br, err := s.client.SendMulticast(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending multicast message: %w", err)
	}

	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️ FCM failure for token %s: %v", tokens[idx], resp.Error)
			}
		}
	}

	return nil
}

// Package messaging delivers booking events to the parties: structured
// conversation messages over SNS and a confirmation summary over SES.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/errors"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

// SNSPublisher is the slice of the SNS client the notifier needs.
type SNSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SESSender is the slice of the SES client the notifier needs.
type SESSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// Config tunes the notifier.
type Config struct {
	TopicARN     string
	EmailEnabled bool
	FromEmail    string
}

// Notifier publishes booking lifecycle events. Delivery is best-effort by
// contract with the coordinator: errors are returned for logging but must
// never abort a booking state change.
type Notifier struct {
	sns    SNSPublisher
	ses    SESSender
	config Config
	logger logger.Logger
}

// NewNotifier wires a notifier. ses may be nil when email is disabled.
func NewNotifier(snsClient SNSPublisher, sesClient SESSender, config Config, log logger.Logger) *Notifier {
	return &Notifier{
		sns:    snsClient,
		ses:    sesClient,
		config: config,
		logger: log,
	}
}

// ChannelID derives the stable conversation channel for a booking pair.
func ChannelID(customerID, artistID string) string {
	return fmt.Sprintf("conv:%s:%s", customerID, artistID)
}

// BookingCreated tells the artist a new request arrived.
func (n *Notifier) BookingCreated(ctx context.Context, booking *models.BookingRequest, artist *models.ArtistProfile) error {
	text := fmt.Sprintf("New booking request for %s on %s",
		booking.Details.BodyLocation,
		booking.Details.PreferredDate.Format(models.DateLayout))

	return n.publish(ctx, booking, "booking_created", booking.CustomerID, text, map[string]interface{}{
		"artistName": artist.Name,
	})
}

// ResponseAdded relays a negotiation response to the other party.
func (n *Notifier) ResponseAdded(ctx context.Context, booking *models.BookingRequest, response *models.BookingResponse) error {
	text := response.Message
	if text == "" {
		text = fmt.Sprintf("Booking %s received a %s response", booking.ID, response.Kind)
	}

	meta := map[string]interface{}{
		"responseKind": string(response.Kind),
	}
	if response.ProposedDate != nil {
		meta["proposedDate"] = response.ProposedDate.Format(models.DateLayout)
	}
	if response.ProposedPrice != nil {
		meta["proposedPrice"] = *response.ProposedPrice
	}

	return n.publish(ctx, booking, "booking_response", response.ResponderID, text, meta)
}

// BookingConfirmed announces the fixed terms and emails the customer a
// summary when email delivery is enabled.
func (n *Notifier) BookingConfirmed(ctx context.Context, booking *models.BookingRequest, artist *models.ArtistProfile) error {
	if booking.Confirmed == nil {
		return apperrors.NewValidationFailedError("confirmed booking has no terms")
	}

	text := fmt.Sprintf("Booking confirmed for %s, %d JPY",
		booking.Confirmed.Date.Format("2006-01-02 15:04"),
		booking.Confirmed.Price)

	if err := n.publish(ctx, booking, "booking_confirmed", booking.ArtistID, text, nil); err != nil {
		return err
	}

	return n.sendConfirmationEmail(ctx, booking, artist)
}

// BookingCancelled announces a cancellation.
func (n *Notifier) BookingCancelled(ctx context.Context, booking *models.BookingRequest, reason string) error {
	text := "Booking was cancelled"
	if reason != "" {
		text = fmt.Sprintf("Booking was cancelled: %s", reason)
	}
	return n.publish(ctx, booking, "booking_cancelled", booking.CustomerID, text, nil)
}

// BookingCompleted announces completion.
func (n *Notifier) BookingCompleted(ctx context.Context, booking *models.BookingRequest) error {
	return n.publish(ctx, booking, "booking_completed", booking.ArtistID, "Booking session completed", nil)
}

func (n *Notifier) publish(ctx context.Context, booking *models.BookingRequest, kind, senderID, text string, metadata map[string]interface{}) error {
	if n.sns == nil || n.config.TopicARN == "" {
		return nil
	}

	message := models.ConversationMessage{
		ChannelID: ChannelID(booking.CustomerID, booking.ArtistID),
		SenderID:  senderID,
		Text:      text,
		Kind:      kind,
		Metadata:  metadata,
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return apperrors.NewNotificationSendFailedError(kind, err)
	}

	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.TopicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventKind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(kind),
			},
			"bookingId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(booking.ID),
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError(kind, err)
	}

	n.logger.Debug("Booking event published", map[string]interface{}{
		"bookingId": booking.ID,
		"kind":      kind,
	})
	return nil
}

func (n *Notifier) sendConfirmationEmail(ctx context.Context, booking *models.BookingRequest, artist *models.ArtistProfile) error {
	if !n.config.EmailEnabled || n.ses == nil || artist.ContactEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Booking confirmed: %s", booking.Confirmed.Date.Format(models.DateLayout))
	body := fmt.Sprintf(
		"Your booking with %s is confirmed.\n\nDate: %s\nDuration: %.1f hours\nPrice: %d JPY\nLocation on body: %s\n",
		artist.Name,
		booking.Confirmed.Date.Format("2006-01-02 15:04"),
		booking.Confirmed.DurationHours,
		booking.Confirmed.Price,
		booking.Details.BodyLocation,
	)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{artist.ContactEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return apperrors.NewNotificationSendFailedError("confirmation_email", err)
	}

	return nil
}

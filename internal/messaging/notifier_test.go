package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/common/logger"
	"github.com/paruuuu0310/tattoo-journey-v1-sub002/internal/models"
)

type capturingSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (c *capturingSNS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.inputs = append(c.inputs, input)
	return &sns.PublishOutput{}, nil
}

type capturingSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (c *capturingSES) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.inputs = append(c.inputs, input)
	return &ses.SendEmailOutput{}, nil
}

func confirmedBooking() *models.BookingRequest {
	return &models.BookingRequest{
		ID:         "b-1",
		CustomerID: "customer-1",
		ArtistID:   "artist-1",
		Details: models.TattooDetails{
			Description:   "Koi on forearm",
			BodyLocation:  "forearm",
			PreferredDate: time.Date(2026, 9, 15, 13, 0, 0, 0, time.UTC),
		},
		Status: models.StatusConfirmed,
		Confirmed: &models.ConfirmedTerms{
			Date:          time.Date(2026, 9, 15, 13, 0, 0, 0, time.UTC),
			Price:         40000,
			DurationHours: 3,
		},
	}
}

func testArtist() *models.ArtistProfile {
	return &models.ArtistProfile{
		ID:           "artist-1",
		Name:         "Aoi",
		ContactEmail: "aoi@example.com",
	}
}

func newTestNotifier(t *testing.T, snsClient SNSPublisher, sesClient SESSender, emailEnabled bool) *Notifier {
	t.Helper()
	return NewNotifier(snsClient, sesClient, Config{
		TopicARN:     "arn:aws:sns:ap-northeast-1:000000000000:bookings",
		EmailEnabled: emailEnabled,
		FromEmail:    "noreply@example.com",
	}, logger.NewTestLogger(t))
}

func TestChannelID(t *testing.T) {
	assert.Equal(t, "conv:customer-1:artist-1", ChannelID("customer-1", "artist-1"))
}

func TestNotifier_BookingCreated(t *testing.T) {
	snsClient := &capturingSNS{}
	notifier := newTestNotifier(t, snsClient, nil, false)

	err := notifier.BookingCreated(context.Background(), confirmedBooking(), testArtist())
	require.NoError(t, err)

	require.Len(t, snsClient.inputs, 1)
	input := snsClient.inputs[0]

	var message models.ConversationMessage
	require.NoError(t, json.Unmarshal([]byte(*input.Message), &message))
	assert.Equal(t, "conv:customer-1:artist-1", message.ChannelID)
	assert.Equal(t, "booking_created", message.Kind)
	assert.Equal(t, "booking_created", *input.MessageAttributes["eventKind"].StringValue)
	assert.Equal(t, "b-1", *input.MessageAttributes["bookingId"].StringValue)
}

func TestNotifier_ResponseAdded_CarriesProposal(t *testing.T) {
	snsClient := &capturingSNS{}
	notifier := newTestNotifier(t, snsClient, nil, false)

	price := 45000
	date := time.Date(2026, 9, 20, 15, 0, 0, 0, time.UTC)
	response := &models.BookingResponse{
		ID:            "r-1",
		ResponderID:   "artist-1",
		Kind:          models.ResponseCounterOffer,
		ProposedDate:  &date,
		ProposedPrice: &price,
		Message:       "Can do the 20th instead",
	}

	require.NoError(t, notifier.ResponseAdded(context.Background(), confirmedBooking(), response))

	require.Len(t, snsClient.inputs, 1)
	var message models.ConversationMessage
	require.NoError(t, json.Unmarshal([]byte(*snsClient.inputs[0].Message), &message))
	assert.Equal(t, "Can do the 20th instead", message.Text)
	assert.Equal(t, "counter_offer", message.Metadata["responseKind"])
	assert.Equal(t, "2026-09-20", message.Metadata["proposedDate"])
}

func TestNotifier_BookingConfirmed_SendsEmail(t *testing.T) {
	snsClient := &capturingSNS{}
	sesClient := &capturingSES{}
	notifier := newTestNotifier(t, snsClient, sesClient, true)

	require.NoError(t, notifier.BookingConfirmed(context.Background(), confirmedBooking(), testArtist()))

	require.Len(t, snsClient.inputs, 1)
	require.Len(t, sesClient.inputs, 1)

	email := sesClient.inputs[0]
	assert.Equal(t, "noreply@example.com", *email.Source)
	assert.Equal(t, []string{"aoi@example.com"}, email.Destination.ToAddresses)
	assert.Contains(t, *email.Message.Body.Text.Data, "40000")
}

func TestNotifier_BookingConfirmed_EmailDisabled(t *testing.T) {
	snsClient := &capturingSNS{}
	sesClient := &capturingSES{}
	notifier := newTestNotifier(t, snsClient, sesClient, false)

	require.NoError(t, notifier.BookingConfirmed(context.Background(), confirmedBooking(), testArtist()))
	assert.Empty(t, sesClient.inputs)
}

func TestNotifier_PublishFailureReturnsError(t *testing.T) {
	snsClient := &capturingSNS{err: errors.New("throttled")}
	notifier := newTestNotifier(t, snsClient, nil, false)

	err := notifier.BookingCancelled(context.Background(), confirmedBooking(), "customer request")
	require.Error(t, err)
}

func TestNotifier_NoTopicIsNoOp(t *testing.T) {
	notifier := NewNotifier(nil, nil, Config{}, logger.NewNoOpLogger())
	assert.NoError(t, notifier.BookingCompleted(context.Background(), confirmedBooking()))
}

package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioProvider sends messages through the Twilio REST API.
type TwilioProvider struct {
	client *twilio.RestClient
}

// NewTwilioProvider creates a Twilio backed provider.
func NewTwilioProvider(accountSID, authToken string) *TwilioProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioProvider{client: client}
}

// Name implements SMSProvider.
func (p *TwilioProvider) Name() string { return "twilio" }

// SendSMS implements SMSProvider.
func (p *TwilioProvider) SendSMS(ctx context.Context, to, from, body string) (*SMSResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := p.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("twilio create message: %w", err)
	}

	result := &SMSResult{DateCreated: time.Now().UTC()}
	if resp.Sid != nil {
		result.SID = *resp.Sid
	}
	if resp.Status != nil {
		result.Status = *resp.Status
	}
	return result, nil
}

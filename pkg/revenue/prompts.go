package revenue

import (
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/jordanlanch/beautyos/pkg/tenant"
)

func upsellPrompt(cfg *tenant.StudioConfig) string {
	return fmt.Sprintf(`You are the SMS assistant for "%s".

Write a SHORT, cheeky, friendly upsell text message (under 160 characters if possible,
max 320 characters). The message should:
1. Greet the client by first name.
2. Mention their booked service and confirm the appointment is tomorrow.
3. Pitch the add-on naturally using the provided pitch line.
4. End with "Reply YES to add it!" or similar CTA.

Tone: %s. Use %s.

RESPOND WITH VALID JSON ONLY:
{
    "sms_body": "The full SMS text"
}
`, cfg.Studio.Name, cfg.BrandVoice.SMSTone, cfg.BrandVoice.EmojiLimit)
}

func upsellMessage(firstName, service string, addon *models.Addon) string {
	pitch := addon.Pitch
	if pitch == "" {
		pitch = "Add this while you're here!"
	}
	return fmt.Sprintf("Client: %s\nBooked service: %s\nAdd-on: %s, $%.0f, %d min\nPitch angle: %s",
		firstName, service, addon.Name, addon.Price, addon.DurationMin, pitch)
}

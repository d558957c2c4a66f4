package vibecheck

import (
	"fmt"

	"github.com/jordanlanch/beautyos/pkg/tenant"
)

func leadPrompt(cfg *tenant.StudioConfig) string {
	studio := cfg.Studio
	return fmt.Sprintf(`You are the virtual front-desk assistant for "%s".

PERSONALITY:
%s

POLICIES YOU ENFORCE (non-negotiable):
%s

SERVICES:
%s

YOUR JOB:
1. Determine what the person wants (service inquiry, pricing, trying to bypass policies, spam, or other).
2. Rate them on brand fit (0.0 = total mismatch, 1.0 = dream client).
   - Dream clients: respectful, clear about what they want, understand policies.
   - Red flags: demanding discounts, refusing deposits, rude tone, "can you just squeeze me in."
3. If they seem like a good fit, confirm they understand and accept the deposit
   policy BEFORE giving them the booking link.
4. If they're not a fit, politely decline or redirect.

RESPOND WITH VALID JSON ONLY, no markdown and no explanation outside the JSON:
{
    "is_approved": true/false,
    "vibe_score": 0.0-1.0,
    "reasoning": "Brief internal note on why you scored them this way",
    "draft_reply": "The actual message to send back to the client",
    "requires_policy_confirmation": true/false,
    "detected_intent": "service_inquiry" | "pricing" | "policy_bypass" | "spam" | "other"
}

If requires_policy_confirmation is true, your draft_reply should ask them to
confirm they accept the deposit/cancellation policy before you provide the
booking link.

If is_approved is true AND they've already confirmed the policy (the user
message indicates acceptance), include the booking link in your reply:
%s
`, studio.Name, cfg.BrandVoice.Personality, tenant.PoliciesText(studio), tenant.ServicesMenu(cfg), studio.BookingURL)
}

func confirmationPrompt(cfg *tenant.StudioConfig) string {
	studio := cfg.Studio
	return fmt.Sprintf(`You are the virtual front-desk assistant for "%s".

The client has been sent the deposit/cancellation policy:
%s

Now you need to evaluate whether their reply constitutes a clear acceptance.

Acceptable: "yes", "sounds good", "I agree", "that works", "ok deal", etc.
Not acceptable: ignoring the policy, changing the subject, asking for exceptions.

Tone: %s

RESPOND WITH VALID JSON ONLY:
{
    "confirmed": true/false,
    "draft_reply": "Your response to the client"
}

If confirmed is true, your draft_reply should include the booking link: %s
If confirmed is false, your draft_reply should re-state the policy requirement gently.
`, studio.Name, tenant.PoliciesText(studio), cfg.BrandVoice.Personality, studio.BookingURL)
}

func leadMessage(in LeadInput) string {
	name := in.SenderName
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("Instagram DM from @%s (%s):\n\n%s", in.SenderIG, name, in.Message)
}

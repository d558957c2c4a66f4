package tenant

import "github.com/jordanlanch/beautyos/pkg/models"

// VoicePreset holds the prompt fragments for one brand voice.
type VoicePreset struct {
	Label       string `json:"label"`
	Personality string `json:"personality"`
	SMSTone     string `json:"sms_tone"`
	EmojiLimit  string `json:"emoji_limit"`
}

var voicePresets = map[models.BrandVoice]VoicePreset{
	models.BrandVoiceProfessionalChill: {
		Label: "Professional & Chill",
		Personality: "Professional, particular, and chill. " +
			"You are warm but you do NOT bend rules. " +
			"You keep responses concise (2-4 sentences max). " +
			"You never sound desperate for business. You're booked and selective. " +
			"If someone is rude, pushy, or tries to haggle, you stay composed and " +
			"redirect them politely, but you do NOT accommodate.",
		SMSTone:    "warm and casual, not salesy",
		EmojiLimit: "1-2 emojis max",
	},
	models.BrandVoiceWarmBubbly: {
		Label: "Warm & Bubbly",
		Personality: "Warm, bubbly, and genuinely excited to help. " +
			"You radiate positive energy and make every client feel special. " +
			"You keep responses friendly and upbeat (2-4 sentences max). " +
			"You still enforce all policies firmly, but with a smile. " +
			"If someone pushes back, you stay cheerful and redirect with kindness.",
		SMSTone:    "bubbly and enthusiastic, like texting a friend",
		EmojiLimit: "2-3 emojis",
	},
	models.BrandVoiceLuxuryExclusive: {
		Label: "Luxury & Exclusive",
		Personality: "Refined, elegant, and subtly exclusive. " +
			"You speak like a luxury concierge: polished but never stuffy. " +
			"You keep responses sophisticated and concise (2-3 sentences max). " +
			"You make clients feel they're accessing something special. " +
			"Policies are presented as 'standards of our house' rather than rules.",
		SMSTone:    "polished and refined, like a luxury brand",
		EmojiLimit: "1 emoji max, elegant choices only (✨💎)",
	},
}

// Voice returns the preset for v, falling back to professional_chill.
func Voice(v models.BrandVoice) VoicePreset {
	if p, ok := voicePresets[v]; ok {
		return p
	}
	return voicePresets[models.BrandVoiceProfessionalChill]
}

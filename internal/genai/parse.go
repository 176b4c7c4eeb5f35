package genai

import (
	"encoding/json"
	"strings"

	"github.com/brianmaseno/medtech/internal/models"
)

// ParseReply extracts a structured reply from raw model output. Markdown code
// fences are stripped and the first JSON object is decoded. The bool reports
// whether a usable reply was found.
func ParseReply(raw string) (models.AIReply, bool) {
	clean := strings.TrimSpace(raw)
	clean = strings.ReplaceAll(clean, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return models.AIReply{}, false
	}

	var reply models.AIReply
	if err := json.Unmarshal([]byte(clean[start:end+1]), &reply); err != nil {
		return models.AIReply{}, false
	}
	if strings.TrimSpace(reply.Text) == "" {
		return models.AIReply{}, false
	}

	if len(reply.Text) > MaxReplyLength {
		reply.Text = reply.Text[:MaxReplyLength-3] + "..."
	}
	if reply.Urgency == "" {
		reply.Urgency = models.UrgencyMedium
	}
	if len(reply.Recommendations) == 0 {
		reply.Recommendations = []string{
			"Monitor your symptoms closely",
			"Seek medical care if symptoms worsen",
		}
	}
	return reply, true
}

// FallbackReply builds keyword-based advice when the model output was not
// usable. Common symptom words map to vetted guidance.
func FallbackReply(question string) models.AIReply {
	q := strings.ToLower(question)
	reply := models.AIReply{Urgency: models.UrgencyMedium, ShouldSeeDoctor: true}

	switch {
	case strings.Contains(q, "fever"):
		reply.Text = "Fever can indicate your body is fighting infection. If it's over 38.5C or lasts more than 3 days, please see a doctor. Rest and drink fluids."
		reply.Recommendations = []string{
			"Take paracetamol for fever reduction",
			"Drink plenty of fluids",
			"See a doctor if fever persists over 3 days",
		}
	case strings.Contains(q, "headache") || strings.Contains(q, "head"):
		reply.Text = "Headaches can be caused by stress, dehydration, or eye strain. Rest in a dark quiet room and drink water. If severe or persistent, see a doctor."
		reply.Recommendations = []string{
			"Rest in a dark, quiet room",
			"Stay hydrated",
			"Try gentle head/neck massage",
		}
	case strings.Contains(q, "cough"):
		reply.Text = "Coughs can be due to infections, allergies, or irritants. If it lasts over 2 weeks, comes with blood, or high fever, see a doctor immediately."
		reply.Recommendations = []string{
			"Stay hydrated with warm liquids",
			"Avoid smoke and irritants",
			"See doctor if cough persists over 2 weeks",
		}
	case strings.Contains(q, "chest pain") || strings.Contains(q, "breathing"):
		reply.Text = "Chest pain or breathing difficulties can be serious. If severe, seek immediate medical attention or call emergency services."
		reply.Urgency = models.UrgencyHigh
		reply.Recommendations = []string{
			"Seek immediate medical attention",
			"Call emergency services if severe",
			"Don't delay treatment",
		}
	default:
		reply.Text = "I understand your health concern. This doesn't replace professional medical advice. For accurate diagnosis and treatment, please see a qualified provider."
		reply.Recommendations = []string{
			"Consult a healthcare provider",
			"Monitor symptoms closely",
			"Seek immediate care if symptoms worsen",
		}
	}
	return reply
}

package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianmaseno/medtech/internal/models"
)

// Prompt rendering for every conversation state. Transition logic stays in
// the state handlers; this file only turns accumulated payload into the
// outbound text.

const displayDateLayout = "02/01/2006"

func welcomePrompt(name string) string {
	return fmt.Sprintf(`👋 Welcome to MedConnect AI, %s!

I'm here to help with your health needs. What would you like to do?

1️⃣ Chat with AI Doctor 💬
2️⃣ Book Appointment 📅
3️⃣ View My Appointments 📋
4️⃣ See Available Doctors 👨‍⚕️
5️⃣ Get Health Tip 💡

Just reply with a number, or tell me what you need help with! 😊

Examples:
• "I have a headache"
• "Book appointment with Dr. Sarah"
• "Show me doctors"`, name)
}

func helpPrompt() string {
	return `🏥 MedConnect AI - Main Menu

Choose what you'd like to do:
1️⃣ Chat with AI Doctor
2️⃣ Book Appointment
3️⃣ View My Appointments
4️⃣ List Available Doctors
5️⃣ Health Tips

💬 Quick Commands:
• Type "CHAT" for AI consultation
• Type "BOOK" to book appointment
• Type "DOCTORS" to see doctors
• Type "EXIT" to end conversation

What would you like to do? Just reply with a number or command! 😊`
}

func goodbyePrompt() string {
	return `👋 Conversation ended. Send any message to start again or use these commands:

📋 HELP - Commands list
👨‍⚕️ DOCTORS - Available doctors
📅 BOOK - Start booking
💬 CHAT - AI health chat

Have a healthy day! 🏥`
}

func chatIntroPrompt(name string) string {
	return fmt.Sprintf(`💬 AI Doctor Chat Started

Hi %s! I'm your AI health assistant. You can ask me about:
• Symptoms you're experiencing
• Health concerns or questions
• General medical advice
• When to see a doctor

What's on your mind today? Describe how you're feeling or ask any health question! 🩺`, name)
}

func chatReplyPrompt(reply models.AIReply) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 AI Doctor Response:\n\n%s", reply.Text)

	if reply.Urgency == models.UrgencyHigh || reply.Urgency == models.UrgencyEmergency {
		b.WriteString("\n\n🚨 URGENT: This seems serious! Please seek immediate medical attention or call emergency services.")
	} else if reply.ShouldSeeDoctor {
		b.WriteString("\n\n💡 Recommendation: Consider booking an appointment with one of our doctors.")
	}

	b.WriteString(`

What's next?
1️⃣ Ask another question
2️⃣ Book appointment
3️⃣ Get health tip
Or just type your next question. Type "MENU" for main menu.`)
	return b.String()
}

func followupRepromptPrompt() string {
	return `Please reply with:
1️⃣ Ask another question
2️⃣ Book appointment
3️⃣ Get health tip
Or just type your next question. Type "MENU" for main menu.`
}

func chatUnavailablePrompt() string {
	return `😔 Sorry, I'm having trouble right now.

Try asking your question again, or type "MENU" to see other options.

For urgent concerns, please contact a healthcare provider directly! 🏥`
}

func doctorListPrompt(doctors []models.Doctor) string {
	var b strings.Builder
	b.WriteString("📅 Appointment Booking\n\nGreat! Let's book you an appointment. Here are our available doctors:\n\n")
	for i, d := range doctors {
		fmt.Fprintf(&b, "%d️⃣ %s\n   %s\n   Fee: KSh %d\n   Rating: ⭐ %.1f/5\n\n", i+1, d.Name, d.Specialization, d.ConsultationFee, d.Rating)
	}
	fmt.Fprintf(&b, `Which doctor would you like to see? Reply with:
• The number (1-%d)
• Doctor's name (e.g., "Sarah")
• Type "MENU" for main menu`, len(doctors))
	return b.String()
}

func doctorRepromptPrompt(doctors []models.Doctor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❌ I didn't recognize that choice. Please reply with:\n• A number (1-%d)\n• Doctor's name\n• \"MENU\" for main menu\n\nAvailable doctors:\n", len(doctors))
	for i, d := range doctors {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

func doctorDirectoryPrompt(doctors []models.Doctor) string {
	var b strings.Builder
	b.WriteString("👨‍⚕️ Available Doctors\n\n")
	for i, d := range doctors {
		fmt.Fprintf(&b, "%d️⃣ %s\n   🩺 %s\n   🏥 %s\n   💰 KSh %d\n   ⭐ %.1f/5 stars\n\n", i+1, d.Name, d.Specialization, d.Hospital, d.ConsultationFee, d.Rating)
	}
	b.WriteString(`To book:
• Type "BOOK" to start booking
• Type "MENU" for main options`)
	return b.String()
}

func datePrompt(doctor models.Doctor) string {
	return fmt.Sprintf(`✅ %s selected!

Specialization: %s
Hospital: %s
Fee: KSh %d

📅 When would you like your appointment?

1️⃣ Today
2️⃣ Tomorrow
3️⃣ Day after tomorrow
4️⃣ This weekend
5️⃣ Next week

Reply with a number or tell me your preferred date! 📱`, doctor.Name, doctor.Specialization, doctor.Hospital, doctor.ConsultationFee)
}

func dateRepromptPrompt() string {
	return `❌ I didn't understand that date. Please choose:

1️⃣ Today
2️⃣ Tomorrow
3️⃣ Day after tomorrow
4️⃣ This weekend
5️⃣ Next week

Or type "MENU" for the main menu.`
}

func timePrompt(dateLabel string) string {
	return fmt.Sprintf(`📅 %s selected!

⏰ What time works best for you?

Morning:
1️⃣ 9:00 AM
2️⃣ 10:00 AM
3️⃣ 11:00 AM

Afternoon:
4️⃣ 2:00 PM
5️⃣ 3:00 PM
6️⃣ 4:00 PM

Evening:
7️⃣ 5:00 PM
8️⃣ 6:00 PM

Reply with a number or tell me your preferred time! ⏰`, dateLabel)
}

func timeRepromptPrompt() string {
	return `❌ Please select a valid time:

1️⃣ 9:00 AM  2️⃣ 10:00 AM  3️⃣ 11:00 AM
4️⃣ 2:00 PM  5️⃣ 3:00 PM   6️⃣ 4:00 PM
7️⃣ 5:00 PM  8️⃣ 6:00 PM

Or type the time directly (e.g., "2:30 PM")`
}

func confirmPrompt(doctor models.Doctor, dateLabel string, date time.Time, timeSlot string) string {
	return fmt.Sprintf(`✅ Appointment Summary

👨‍⚕️ Doctor: %s
🏥 Hospital: %s
📅 Date: %s (%s)
⏰ Time: %s
💰 Fee: KSh %d

Is this correct?
1️⃣ YES - Confirm booking
2️⃣ NO - Change time
3️⃣ BACK - Choose different doctor

Reply with 1, 2, or 3! 📱`, doctor.Name, doctor.Hospital, dateLabel, date.Format(displayDateLayout), timeSlot, doctor.ConsultationFee)
}

func confirmRepromptPrompt() string {
	return `Please reply with:
1️⃣ YES - to confirm
2️⃣ NO - to change time
3️⃣ BACK - to choose different doctor`
}

func bookedPrompt(appt models.Appointment, doctorPhone string) string {
	return fmt.Sprintf(`🎉 APPOINTMENT CONFIRMED!

✅ Booking ID: %s
👨‍⚕️ Doctor: %s
🏥 Hospital: %s
📅 Date: %s
⏰ Time: %s
💰 Fee: KSh %d
📞 Doctor's Phone: %s

Important:
• Arrive 15 minutes early
• Bring valid ID
• Payment due at time of service

Thank you for choosing MedConnect AI! 🏥💙`,
		appt.ID, appt.DoctorName, appt.Hospital, appt.Date.Format(displayDateLayout), appt.TimeSlot, appt.ConsultationFee, doctorPhone)
}

func noAppointmentsPrompt() string {
	return `📅 My Appointments

You have no upcoming appointments.

Would you like to book one?
• Type "BOOK" to start booking
• Type "MENU" for main options 😊`
}

func appointmentListPrompt(appts []models.Appointment) string {
	var b strings.Builder
	b.WriteString("📅 My Upcoming Appointments\n\n")
	for i, a := range appts {
		fmt.Fprintf(&b, "%d️⃣ %s\n   📅 %s\n   ⏰ %s\n   🏥 %s\n   🆔 %s\n   💰 KSh %d\n\n",
			i+1, a.DoctorName, a.Date.Format(displayDateLayout), a.TimeSlot, a.Specialization, a.ID, a.ConsultationFee)
	}
	b.WriteString(`Options:
1️⃣ Cancel an appointment
2️⃣ Reschedule an appointment
3️⃣ Book new appointment
Type "MENU" for main options`)
	return b.String()
}

func appointmentPickPrompt(action string, appts []models.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Which appointment would you like to %s?\n\n", action)
	for i, a := range appts {
		fmt.Fprintf(&b, "%d. %s - %s at %s\n", i+1, a.DoctorName, a.Date.Format(displayDateLayout), a.TimeSlot)
	}
	fmt.Fprintf(&b, "\nReply with a number (1-%d) or \"MENU\" to go back.", len(appts))
	return b.String()
}

func rescheduleDatePrompt(appt models.Appointment) string {
	return fmt.Sprintf(`🔄 Rescheduling appointment %s
👨‍⚕️ %s, currently %s at %s

📅 When would you like the new appointment?

1️⃣ Today
2️⃣ Tomorrow
3️⃣ Day after tomorrow
4️⃣ This weekend
5️⃣ Next week

Reply with a number or tell me your preferred date! 📱`,
		appt.ID, appt.DoctorName, appt.Date.Format(displayDateLayout), appt.TimeSlot)
}

func cancelledPrompt(appt models.Appointment) string {
	return fmt.Sprintf(`✅ Appointment Cancelled

🆔 %s
👨‍⚕️ %s
📅 %s at %s

Send any message to start again. Stay healthy! 🏥`,
		appt.ID, appt.DoctorName, appt.Date.Format(displayDateLayout), appt.TimeSlot)
}

func rescheduledPrompt(appt models.Appointment, dateLabel string, date time.Time, timeSlot string) string {
	return fmt.Sprintf(`✅ Appointment Rescheduled

🆔 %s
👨‍⚕️ %s
📅 New date: %s (%s)
⏰ New time: %s

Send any message to start again. See you then! 🏥`,
		appt.ID, appt.DoctorName, dateLabel, date.Format(displayDateLayout), timeSlot)
}

func healthTipPrompt(tip string) string {
	return fmt.Sprintf(`💡 Daily Health Tip

%s

Want more health advice?
• Type "CHAT" to ask AI doctor
• Type "BOOK" to schedule appointment
• Type "MENU" for main options

Stay healthy! 🌟`, tip)
}

func apologyPrompt() string {
	return `😔 Sorry, something went wrong on our side. Please try again.

Type "MENU" for the main menu or "EXIT" to end the conversation.`
}

func bookingFailedPrompt() string {
	return `❌ Sorry, there was an error confirming your appointment. Please try again or contact support.

Type "MENU" to return to main options.`
}

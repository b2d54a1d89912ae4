package course

import (
	"fmt"
	"strings"
)

// SystemPrompt is the instruction sent ahead of every model conversation.
func SystemPrompt(info Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful AI assistant for the %q course.\n\n", info.Name)
	b.WriteString("COURSE DETAILS:\n")
	fmt.Fprintf(&b, "- Course Name: %s\n", info.Name)
	fmt.Fprintf(&b, "- Duration: %s\n", info.Duration)
	fmt.Fprintf(&b, "- Price: %s\n", info.Price)
	fmt.Fprintf(&b, "- Instructor: %s\n", info.Instructor)
	fmt.Fprintf(&b, "- Format: %s\n", info.Format)
	fmt.Fprintf(&b, "- Schedule: %s\n", info.Schedule)
	fmt.Fprintf(&b, "- Prerequisites: %s\n", info.Prerequisites)
	fmt.Fprintf(&b, "- Support: %s\n\n", info.Support)
	b.WriteString("COURSE BENEFITS:\n")
	for _, benefit := range info.Benefits {
		fmt.Fprintf(&b, "- %s\n", benefit)
	}
	fmt.Fprintf(&b, "\nCOURSE DESCRIPTION:\n%s\n\n", info.Description)
	b.WriteString(`Rules:
1. Answer only questions about this course. Politely decline anything unrelated.
2. Be concise, friendly and encouraging.
3. If the user wants to register, do not collect their details in chat: tell them to use the registration form (/register) with their name, email and phone number.
4. If you don't know something specific about the course, refer them to support.`)
	return b.String()
}

// Greeting answers a first "hello" before any context exists.
func Greeting(info Info) string {
	return fmt.Sprintf(`Hello! 👋 Welcome to our %s information assistant!

📚 **Course Overview:** %s
⏰ **Duration:** %s
💰 **Price:** %s
📅 **Schedule:** %s

Feel free to ask me about:
- Course details and curriculum
- Pricing and payment options
- Schedule and format
- Benefits and what you'll learn
- How to register

What would you like to know about the course?`, info.Name, info.Description, info.Duration, info.Price, info.Schedule)
}

// Welcome is returned by /start.
func Welcome(info Info) string {
	var perks []string
	for i, benefit := range info.Benefits {
		if i == 5 {
			break
		}
		perks = append(perks, "✅ "+benefit)
	}
	return fmt.Sprintf(`🎉 Welcome to %s!

I'm your personal course assistant, here to help you learn everything about the program.

**Quick Course Overview:**
📚 **Course:** %s
⏰ **Duration:** %s
💰 **Investment:** %s
👨‍💻 **Instructor:** %s
📱 **Format:** %s

**What you'll get:**
%s

Ask me about the schedule, price or benefits, or register to secure your spot!`,
		info.Name, info.Name, info.Duration, info.Price, info.Instructor, info.Format, strings.Join(perks, "\n"))
}

// Confirmation is shown after a registration. saved reports whether the
// spreadsheet accepted the row.
func Confirmation(info Info, name, email, phone string, saved bool) string {
	status := "⚠️ **Registration received but there was an issue with our system. We will contact you shortly.**"
	if saved {
		status = "✅ **Saved to our system successfully!**"
	}
	return fmt.Sprintf(`🎉 Thank you for registering, %s!

**Registration Details:**
✅ **Name:** %s
✅ **Email:** %s
✅ **Phone:** %s
✅ **Course:** %s

%s

**What's Next:**
1. You'll receive a confirmation email within 24 hours
2. Course materials will be sent 1 week before start date
3. Payment instructions will be included in the confirmation email

**Need help?** Email %s

Welcome to the %s family! 🐍✨`,
		name, name, email, phone, info.Name, status, info.SupportEmail, info.Name)
}

const (
	// FallbackUnavailable is returned when no model is configured.
	FallbackUnavailable = "I'm sorry, the AI service is not available right now. Please try again later or contact support."
	// FallbackError is returned when the model call fails.
	FallbackError = "I'm sorry, I'm having trouble processing your request right now. Please try again or contact our support team for assistance."
)

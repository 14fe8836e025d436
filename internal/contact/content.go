// Package contact serves the contact page and forwards support messages.
package contact

// Info is one contact channel shown beside the form.
type Info struct {
	Title       string
	Content     string
	Description string
}

// FAQ is a frequently asked question.
type FAQ struct {
	Question string
	Answer   string
}

// Channels lists the ways to reach support. The email channel shows supportEmail.
func Channels(supportEmail string) []Info {
	return []Info{
		{Title: "Email Us", Content: supportEmail, Description: "Send us an email anytime"},
		{Title: "Call Us", Content: "+1 (555) 123-4567", Description: "Mon-Fri from 8am to 6pm"},
		{Title: "Visit Us", Content: "123 Survey Street, Data City, DC 12345", Description: "Come say hello at our office"},
		{Title: "Business Hours", Content: "Monday - Friday: 8:00 AM - 6:00 PM", Description: "Weekend support available online"},
	}
}

// FAQs are shown below the form.
var FAQs = []FAQ{
	{
		Question: "How do I create my first survey?",
		Answer:   "Simply click on 'Create Survey' in the navigation menu and follow our intuitive step-by-step process. You can add various question types, customize the design, and set up distribution options.",
	},
	{
		Question: "Can I customize the appearance of my surveys?",
		Answer:   "Yes! SurveyHub offers extensive customization options including themes, colors, fonts, and logos to match your brand identity.",
	},
	{
		Question: "How many responses can I collect?",
		Answer:   "Our plans offer different response limits. The basic plan includes up to 1,000 responses per month, while premium plans offer unlimited responses.",
	},
	{
		Question: "Is my data secure and private?",
		Answer:   "Absolutely. We use enterprise-grade security measures including SSL encryption, secure data centers, and strict privacy controls to protect your data.",
	},
	{
		Question: "Can I export my survey data?",
		Answer:   "Yes, you can export your survey results in multiple formats including CSV, Excel, PDF, and connect with popular analytics tools.",
	},
	{
		Question: "Do you offer customer support?",
		Answer:   "We provide comprehensive support through email, live chat, and our knowledge base. Premium customers also get priority phone support.",
	},
}

package email

import (
	"bytes"
	"fmt"
	"text/template"

	"biaw-integrations/internal/common/format"
	"biaw-integrations/internal/models"
)

const signature = `Best regards,
BIAW Support Team`

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"currency": format.Currency,
}).Parse(`
{{define "application-received"}}Dear {{.FirstName}} {{.LastName}},

Thank you for submitting your Builder Application to BIAW. We have received your application and it is now under review.

Application Details:
- Business Name: {{.BusinessName}}

What to Expect:
1. Our team will review your application and supporting documents
2. The review process typically takes 5-7 business days
3. You will receive an email notification once the review is complete

If you have any questions or need to provide additional information, please don't hesitate to contact us.

` + signature + `{{end}}

{{define "status-Certified"}}Dear {{.FirstName}} {{.LastName}},

Congratulations! We are delighted to inform you that your Builder Application has been approved, and you are now officially Certified.

Your certification demonstrates your commitment to excellence in the building industry. As a certified builder, you now have access to all the benefits and resources available to our certified members.

Key Benefits:
- Access to exclusive industry resources
- Recognition in our certified builders directory
- Priority support for industry-related queries
- Networking opportunities with other certified professionals

If you have any questions or need assistance with your certification, please don't hesitate to contact us.

` + signature + `{{end}}

{{define "status-Rejected"}}Dear {{.FirstName}} {{.LastName}},

We regret to inform you that your Builder Application has not been approved at this time.

We understand this may be disappointing news. Our review process is thorough and considers various factors to ensure the highest standards in our industry.

Next Steps:
1. Review the application requirements
2. Address any areas that may need improvement
3. Consider reapplying in the future

If you would like to discuss the decision or receive feedback on your application, please contact us. We're here to help you understand the requirements better and guide you through the process.

` + signature + `{{end}}

{{define "status-Under Process"}}Dear {{.FirstName}} {{.LastName}},

We are writing to inform you that your Builder Application is currently under review by our team.

What to Expect:
- Our review process typically takes 5-7 business days
- We are carefully evaluating all aspects of your application
- You will receive another email once the review is complete

During this time, if you have any questions or need to provide additional information, please don't hesitate to contact us.

` + signature + `{{end}}

{{define "payment-confirmation"}}Dear {{.Name}},

Thank you for your payment. Your subscription has been successfully processed.

Payment Details:
Amount: {{currency .AmountCents}}
Subscription Start Date: {{.StartDate}}
Subscription End Date: {{.EndDate}}

Best Regards,
BIAW Support{{end}}

{{define "subscription-activated"}}Dear {{.Name}},

Your subscription is now active!

Start Date: {{.StartDate}}
End Date: {{.EndDate}}

Thank you for subscribing.

Best regards,
BIAW Team{{end}}
`))

var statusSubjects = map[models.CertificationStatus]string{
	models.StatusCertified:    "Congratulations! Your Builder Application is Certified",
	models.StatusRejected:     "Builder Application Status Update",
	models.StatusUnderProcess: "Your Builder Application is Under Review",
}

// Applicant identifies the recipient of application mail.
type Applicant struct {
	Email        string
	FirstName    string
	LastName     string
	BusinessName string
}

// Subscription describes a paid period for confirmation mail.
type Subscription struct {
	Email       string
	Name        string
	AmountCents int64
	StartDate   string
	EndDate     string
}

func ApplicationReceived(a Applicant) (Message, error) {
	return render(a.Email, "Builder Application Received - BIAW", "application-received", a)
}

// HasStatusTemplate reports whether a status email exists for s. Submitted has none.
func HasStatusTemplate(s models.CertificationStatus) bool {
	_, ok := statusSubjects[s]
	return ok
}

func CertificationStatus(s models.CertificationStatus, a Applicant) (Message, error) {
	subject, ok := statusSubjects[s]
	if !ok {
		return Message{}, fmt.Errorf("no email template for status %q", s)
	}
	return render(a.Email, subject, "status-"+string(s), a)
}

func PaymentConfirmation(s Subscription) (Message, error) {
	return render(s.Email, "Payment Confirmation - BIAW", "payment-confirmation", s)
}

func SubscriptionActivated(s Subscription) (Message, error) {
	return render(s.Email, "Subscription Activated - BIAW", "subscription-activated", s)
}

func render(to, subject, name string, data interface{}) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return Message{To: to, Subject: subject, Body: buf.String()}, nil
}

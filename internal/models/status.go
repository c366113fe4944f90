package models

import (
	"fmt"
	"strings"
)

// CertificationStatus is the review state of a builder application.
type CertificationStatus string

const (
	StatusSubmitted    CertificationStatus = "Submitted"
	StatusUnderProcess CertificationStatus = "Under Process"
	StatusCertified    CertificationStatus = "Certified"
	StatusRejected     CertificationStatus = "Rejected"
)

var certificationStatuses = []CertificationStatus{
	StatusSubmitted,
	StatusUnderProcess,
	StatusCertified,
	StatusRejected,
}

// ParseCertificationStatus normalizes case and inner whitespace, so
// " under  process" parses as StatusUnderProcess.
func ParseCertificationStatus(raw string) (CertificationStatus, error) {
	normalized := strings.Join(strings.Fields(raw), " ")
	for _, s := range certificationStatuses {
		if strings.EqualFold(normalized, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown certification status %q", raw)
}

// IsTerminal reports whether automated transitions out of s are suppressed.
func (s CertificationStatus) IsTerminal() bool {
	return s == StatusCertified || s == StatusRejected
}

func (s CertificationStatus) String() string { return string(s) }

// MailDirective is the "Send Mail Status" column on an application row.
type MailDirective string

const (
	MailHold   MailDirective = "Hold mail"
	MailSend   MailDirective = "Send mail"
	MailMailed MailDirective = "Mailed"
)

func ParseMailDirective(raw string) MailDirective {
	normalized := strings.Join(strings.Fields(raw), " ")
	for _, d := range []MailDirective{MailHold, MailSend, MailMailed} {
		if strings.EqualFold(normalized, string(d)) {
			return d
		}
	}
	return MailDirective(normalized)
}

func (d MailDirective) IsHold() bool { return d == MailHold }

// Autopay values. The CMS spells the inactive option differently from the table.
const (
	AutopayActive      = "Active"
	AutopayInactive    = "Inactive"
	CMSAutopayInactive = "In-active"
)

const PaymentStatusPaid = "Paid"

// MeetingStatusCompleted replaces "Past" when minutes are published.
const MeetingStatusCompleted = "Completed"

// NormalizeMeetingStatus maps "past" (any case) to Completed and trims the rest.
func NormalizeMeetingStatus(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, "past") {
		return MeetingStatusCompleted
	}
	return trimmed
}

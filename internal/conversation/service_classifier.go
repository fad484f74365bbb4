package conversation

import (
	"fmt"
	"strings"
)

// ServiceKind is the closed set of bookable services.
type ServiceKind int

const (
	ServiceUnknown ServiceKind = iota
	ServicePhysiotherapy
	ServiceMassage
	ServiceGeneralConsultation
)

var serviceNames = map[ServiceKind]string{
	ServiceUnknown:             "Unknown",
	ServicePhysiotherapy:       "Physiotherapy",
	ServiceMassage:             "Massage",
	ServiceGeneralConsultation: "General Consultation",
}

func (k ServiceKind) String() string {
	if name, ok := serviceNames[k]; ok {
		return name
	}
	return serviceNames[ServiceUnknown]
}

// MarshalText renders the display name so JSON payloads stay readable.
func (k ServiceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the display names produced by MarshalText.
func (k *ServiceKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseServiceKind(string(text))
	if !ok {
		return fmt.Errorf("conversation: unknown service %q", string(text))
	}
	*k = parsed
	return nil
}

// ParseServiceKind is the inverse of String, case-insensitive.
func ParseServiceKind(name string) (ServiceKind, bool) {
	name = strings.TrimSpace(name)
	for kind, display := range serviceNames {
		if strings.EqualFold(display, name) {
			return kind, true
		}
	}
	return ServiceUnknown, false
}

// ClassifyService maps free text onto a ServiceKind. The first keyword group
// in priority order wins: physio, then massage, then consultation.
func ClassifyService(text string) ServiceKind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "physiotherapy"), strings.Contains(lower, "physio"):
		return ServicePhysiotherapy
	case strings.Contains(lower, "massage"):
		return ServiceMassage
	case strings.Contains(lower, "consultation"):
		return ServiceGeneralConsultation
	default:
		return ServiceUnknown
	}
}

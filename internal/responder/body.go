package responder

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/medunigraz/idmsync/internal/model"
)

// Leak details come from untrusted feeds and end up in mails and tickets;
// strip everything that is not plain text.
var detailsPolicy = bluemonday.StrictPolicy()

func summary(incident *model.Incident, source *model.ThreatSource) string {
	return fmt.Sprintf("[%s] Leaked credential confirmed for %s", incident.Reference(), incident.UID)
}

func description(incident *model.Incident, source *model.ThreatSource) string {
	var b strings.Builder

	fmt.Fprintf(&b, "A leaked credential was confirmed against the directory.\n\n")
	fmt.Fprintf(&b, "Reference: %s\n", incident.Reference())
	fmt.Fprintf(&b, "Account:   %s\n", incident.UID)
	fmt.Fprintf(&b, "Source:    %s\n", source.Name)
	fmt.Fprintf(&b, "Record:    %s\n", incident.ForeignID)

	if incident.Details != "" {
		fmt.Fprintf(&b, "\nDetails:\n%s\n", detailsPolicy.Sanitize(incident.Details))
	}

	b.WriteString("\nThe account password must be rotated.\n")

	return b.String()
}

package finding

import (
	"html"
	"strings"

	"github.com/maxvaer/actuatorhunt/internal/signature"
)

const (
	remediation = "Disable or secure the exposed actuator endpoint in the application " +
		"configuration (e.g., application.properties or application.yml)."

	background = "<b>Vulnerability Information & Remediation:</b><br>" +
		"Exposing actuator endpoints publicly can lead to serious security risks, " +
		"including unauthorized configuration changes or sensitive data leaks.<br><br>" +
		"<b>References:</b><ul>" +
		"<li><a href='https://www.wiz.io/blog/spring-boot-actuator-misconfigurations'>" +
		"Wiz: Spring Boot Actuator Misconfigurations</a></li>" +
		"</ul>"
)

// Synthesize builds the finding for a matched signature. It performs no
// I/O and returns the same result for the same inputs.
func Synthesize(sig signature.Signature, baseURL string, ev Evidence) Finding {
	return Finding{
		Name:            sig.Name,
		Path:            sig.Path,
		Keyword:         sig.Keyword,
		BaseURL:         baseURL,
		Detail:          detail(sig.Path, sig.Keyword),
		Remediation:     remediation,
		Background:      background,
		Severity:        High,
		TypicalSeverity: High,
		Confidence:      Certain,
		Evidence:        ev,
	}
}

func detail(path, keyword string) string {
	var b strings.Builder
	b.WriteString("The application exposes a Spring Boot Actuator endpoint at <b>")
	b.WriteString(html.EscapeString(path))
	b.WriteString("</b>.<br><br>")
	b.WriteString("This was confirmed by receiving a HTTP 200 OK status code and finding the signature keyword <b>'")
	b.WriteString(html.EscapeString(keyword))
	b.WriteString("'</b> in the response body. This leak can expose sensitive configuration details or routing tables.")
	return b.String()
}

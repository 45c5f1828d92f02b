package delivery

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Travel-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Travel-Intake/agent/state"
	smtpx "github.com/tanpawarit/Chative-Travel-Intake/pkg/smtp"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

type templateData struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Passengers    int
	Budget        string
	Package       *contractx.TravelPackage
}

func newTemplateData(req statex.TravelRequest, pkg *contractx.TravelPackage) templateData {
	data := templateData{
		Origin:      req.OriginValue(),
		Destination: req.DestinationValue(),
		Passengers:  req.Passengers,
		Package:     pkg,
	}
	if req.DepartureDate != nil {
		data.DepartureDate = req.DepartureDate.In(time.UTC).Format("January 02, 2006")
	}
	if req.ReturnDate != nil {
		data.ReturnDate = req.ReturnDate.In(time.UTC).Format("January 02, 2006")
	}
	if req.Budget != nil {
		data.Budget = strconv.FormatFloat(*req.Budget, 'f', -1, 64)
	}
	return data
}

// Render builds the email for a fulfilled request. A nil package renders the
// no-results notice.
func Render(req statex.TravelRequest, pkg *contractx.TravelPackage) (smtpx.Message, error) {
	data := newTemplateData(req, pkg)

	name := "package.html.tmpl"
	if pkg == nil {
		name = "no_results.html.tmpl"
	}

	var html bytes.Buffer
	if err := templates.ExecuteTemplate(&html, name, data); err != nil {
		return smtpx.Message{}, fmt.Errorf("render %s: %w", name, err)
	}

	return smtpx.Message{
		To:      req.UserEmailValue(),
		Subject: fmt.Sprintf("🎉 Your Perfect Trip: %s → %s", data.Origin, data.Destination),
		HTML:    html.String(),
		Text:    plainText(data),
	}, nil
}

func plainText(data templateData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s → %s\n", data.Origin, data.Destination)
	fmt.Fprintf(&b, "Date: %s\n", data.DepartureDate)
	fmt.Fprintf(&b, "Travellers: %d\n", data.Passengers)
	if data.Budget != "" {
		fmt.Fprintf(&b, "Budget: €%s\n", data.Budget)
	}
	b.WriteString("\n")
	if data.Package == nil {
		b.WriteString("No travel options matched your criteria. Try adjusting your budget or dates.\n")
		return b.String()
	}
	b.WriteString(data.Package.Summary())
	b.WriteString("\n")
	return b.String()
}

package httpserver

import (
	"bytes"
	"html/template"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/service"
)

type resultPage struct {
	Success        bool
	Title          string
	Message        string
	OrderID        uint
	Total          string
	ShipmentStatus string
	AWB            string
	Courier        string
	Notified       bool
}

var resultTmpl = template.Must(template.New("result").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .Success}}<p>Order #{{.OrderID}} is confirmed. Total paid: Rs.{{.Total}}</p>
<p>Shipment: {{.ShipmentStatus}}{{if .AWB}} ({{.Courier}}, AWB {{.AWB}}){{end}}</p>
{{if .Notified}}<p>A confirmation has been sent to you.</p>{{end}}
{{else}}<p>{{.Message}}</p>{{end}}
<p><a href="/">Continue shopping</a></p>
</body>
</html>
`))

func successPage(out *service.PaymentOutcome) resultPage {
	return resultPage{
		Success:        true,
		Title:          "Payment successful",
		OrderID:        out.Order.ID,
		Total:          out.Order.Total.String(),
		ShipmentStatus: out.ShipmentStatus,
		AWB:            out.Order.AWBNumber,
		Courier:        out.Order.CourierName,
		Notified:       out.Notified,
	}
}

func failurePage(msg string) resultPage {
	return resultPage{Title: "Payment failed", Message: msg}
}

func renderResult(c echo.Context, status int, p resultPage) error {
	var buf bytes.Buffer
	if err := resultTmpl.Execute(&buf, p); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}
